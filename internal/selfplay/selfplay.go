// Package selfplay lets the engine play against itself, one game at a time
// or as a match of many games spread over concurrent workers.
package selfplay

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/engine"
)

//go:embed openings.txt
var openingsTxt string

// Outcome is how a game ended.
type Outcome int

const (
	Unfinished Outcome = iota // ply limit reached or cancelled
	WhiteWins
	BlackWins
	Stalemate
)

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Stalemate:
		return "1/2-1/2"
	}
	return "*"
}

// Config controls every game of a match.
type Config struct {
	Depth       int           // search depth per move (0 = engine default)
	MoveTime    time.Duration // time limit per move (0 = none)
	MaxPlies    int           // adjudicate as Unfinished after this many plies (0 = no limit)
	Strict      bool          // strict legality filter
	Concurrency int           // games played at once (0 = 1)
}

// Game is a finished (or abandoned) game.
type Game struct {
	Number   int
	Opening  string
	Moves    board.MoveList
	Outcome  Outcome
	Duration time.Duration
}

// Openings returns the built-in starting positions.
func Openings() []string {
	var result []string
	for _, line := range strings.Split(openingsTxt, "\n") {
		line = strings.TrimSpace(line)
		if !(line == "" || strings.HasPrefix(line, "//")) {
			result = append(result, line)
		}
	}
	return result
}

// Play lets eng play both sides from pos until the game ends, the ply
// limit is reached or ctx is cancelled. pos is advanced move by move;
// onMove, if set, sees the position after each move.
func Play(ctx context.Context, eng *engine.Engine, pos *board.Position, cfg Config, onMove func(*board.Position, engine.Result)) Game {
	start := time.Now()
	game := Game{Opening: pos.ToFEN()}
	limits := engine.SearchLimits{Depth: cfg.Depth, MoveTime: cfg.MoveTime}

	for cfg.MaxPlies == 0 || len(game.Moves) < cfg.MaxPlies {
		if ctx.Err() != nil || pos.IsGameOver() {
			break
		}
		res := eng.Search(ctx, pos, limits)
		if res.Move == board.NoMove || ctx.Err() != nil {
			break
		}
		pos.MakeMove(res.Move)
		game.Moves = append(game.Moves, res.Move)
		if onMove != nil {
			onMove(pos, res)
		}
	}

	game.Outcome = outcome(pos)
	game.Duration = time.Since(start)
	return game
}

func outcome(pos *board.Position) Outcome {
	switch {
	case pos.IsCheckmate(board.White):
		return BlackWins
	case pos.IsCheckmate(board.Black):
		return WhiteWins
	case pos.IsStalemate(pos.SideToMove()):
		return Stalemate
	}
	return Unfinished
}

type gameInfo struct {
	number  int
	opening string
}

// RunMatch plays one game from each opening, cfg.Concurrency at a time,
// each worker with its own engine. onGame, if set, is called for every
// finished game from a single goroutine; an error from it ends the match.
// Games are returned in opening order.
func RunMatch(ctx context.Context, cfg Config, openings []string, onGame func(Game) error) ([]Game, error) {
	concurrency := max(cfg.Concurrency, 1)
	games := make([]Game, len(openings))

	g, ctx := errgroup.WithContext(ctx)

	gameInfos := make(chan gameInfo)
	gameResults := make(chan Game)

	g.Go(func() error {
		defer close(gameInfos)
		for i, opening := range openings {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- gameInfo{number: i + 1, opening: opening}:
			}
		}
		return nil
	})

	g.Go(func() error {
		for game := range gameResults {
			games[game.Number-1] = game
			if onGame != nil {
				if err := onGame(game); err != nil {
					return fmt.Errorf("game %d: %w", game.Number, err)
				}
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, cfg, gameInfos, gameResults)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	err := g.Wait()
	return games, err
}

func playGames(ctx context.Context, cfg Config, gameInfos <-chan gameInfo, gameResults chan<- Game) error {
	eng := engine.NewEngine()
	if cfg.Depth > 0 {
		eng.SetDepth(cfg.Depth)
	}

	for info := range gameInfos {
		pos, err := board.ParseFEN(info.opening)
		if err != nil {
			return fmt.Errorf("game %d: %w", info.number, err)
		}
		pos.SetStrictLegality(cfg.Strict)

		game := Play(ctx, eng, pos, cfg, nil)
		game.Number = info.number
		game.Opening = info.opening
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case gameResults <- game:
		}
	}
	return nil
}

// Summary counts match results.
type Summary struct {
	WhiteWins  int
	BlackWins  int
	Stalemates int
	Unfinished int
}

// Summarize tallies the outcomes of games.
func Summarize(games []Game) Summary {
	var s Summary
	for _, g := range games {
		switch g.Outcome {
		case WhiteWins:
			s.WhiteWins++
		case BlackWins:
			s.BlackWins++
		case Stalemate:
			s.Stalemates++
		default:
			s.Unfinished++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("+%d -%d =%d *%d", s.WhiteWins, s.BlackWins, s.Stalemates, s.Unfinished)
}
