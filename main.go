// NegaChess self-play: the engine plays both sides and prints the board
// after every move. With -games above one it plays a match over the
// built-in openings instead and prints one line per game.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/display"
	"github.com/hailam/negachess/internal/engine"
	"github.com/hailam/negachess/internal/selfplay"
	"github.com/hailam/negachess/internal/storage"
)

var (
	fen         = flag.String("fen", board.StartFEN, "starting position for a single game")
	depth       = flag.Int("depth", engine.DefaultDepth, "search depth per move")
	strict      = flag.Bool("strict", false, "filter pinned-piece moves even when not in check")
	moveTime    = flag.Duration("movetime", 0, "time limit per move (0 = depth only)")
	maxPlies    = flag.Int("maxplies", 200, "stop a game after this many plies")
	games       = flag.Int("games", 1, "number of games; above one plays a match over the built-in openings")
	concurrency = flag.Int("concurrency", 1, "games played at once in a match")
	dbDir       = flag.String("db", "", `record finished games in this database ("default" for the user data dir)`)
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store *storage.Storage
	if *dbDir != "" {
		dir := *dbDir
		if dir == "default" {
			dir = ""
		}
		var err error
		store, err = storage.Open(dir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
	}

	cfg := selfplay.Config{
		Depth:       *depth,
		MoveTime:    *moveTime,
		MaxPlies:    *maxPlies,
		Strict:      *strict,
		Concurrency: *concurrency,
	}

	if *games > 1 {
		if err := runMatch(ctx, cfg, *games, store); err != nil {
			log.Fatal(err)
		}
		return
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal(err)
	}
	pos.SetStrictLegality(cfg.Strict)

	eng := engine.NewEngine()
	eng.SetDepth(cfg.Depth)

	if err := display.Render(os.Stdout, pos); err != nil {
		log.Fatal(err)
	}
	game := selfplay.Play(ctx, eng, pos, cfg, func(pos *board.Position, res engine.Result) {
		last := pos.History()[pos.Ply()-1]
		fmt.Printf("\n%s plays %s (depth %d, score %s, %d nodes, %v)\n",
			last.Mover.Color(), res.Move, res.Depth, engine.ScoreToString(res.Score), res.Nodes, res.Time.Round(time.Millisecond))
		if err := display.Render(os.Stdout, pos); err != nil {
			log.Fatal(err)
		}
	})

	fmt.Printf("%s after %d plies in %v\n", game.Outcome, len(game.Moves), game.Duration.Round(time.Millisecond))
	if err := recordGame(store, game); err != nil {
		log.Printf("Warning: game not recorded: %v", err)
	}
}

func runMatch(ctx context.Context, cfg selfplay.Config, n int, store *storage.Storage) error {
	openings := selfplay.Openings()
	var list []string
	for i := 0; i < n; i++ {
		list = append(list, openings[i%len(openings)])
	}

	played, err := selfplay.RunMatch(ctx, cfg, list, func(g selfplay.Game) error {
		log.Printf("Finished game %d: %v in %d plies {%s}", g.Number, g.Outcome, len(g.Moves), g.Opening)
		return recordGame(store, g)
	})
	if err != nil {
		return err
	}

	log.Printf("Match: %v", selfplay.Summarize(played))
	if store != nil {
		stats, err := store.LoadStats()
		if err != nil {
			return err
		}
		log.Printf("All games: %d played, %.1f plies on average", stats.GamesPlayed, stats.AveragePlies())
	}
	return nil
}

func recordGame(store *storage.Storage, g selfplay.Game) error {
	if store == nil {
		return nil
	}
	return store.RecordGame(storage.GameResult{
		WhiteWon: g.Outcome == selfplay.WhiteWins,
		BlackWon: g.Outcome == selfplay.BlackWins,
		Plies:    len(g.Moves),
		Duration: g.Duration,
	})
}
