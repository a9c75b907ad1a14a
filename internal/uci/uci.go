// Package uci implements the line-oriented engine protocol over an
// io.Reader/io.Writer pair.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/display"
	"github.com/hailam/negachess/internal/engine"
	"github.com/hailam/negachess/internal/storage"
)

// Engine identification
const (
	EngineName   = "NegaChess"
	EngineAuthor = "NegaChess Team"
)

// syncWriter serializes writes from the command loop and the search goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	strict   bool
	store    *storage.Storage

	out    *syncWriter
	errOut *syncWriter

	// Search state
	searching  bool
	infinite   bool
	searchDone chan struct{}
	cancel     context.CancelFunc

	quit bool
}

// New creates a protocol handler writing responses to out and diagnostics
// ("info string" lines) to errOut.
func New(eng *engine.Engine, out, errOut io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		out:      &syncWriter{w: out},
		errOut:   &syncWriter{w: errOut},
	}
}

// SetStore attaches storage: finished searches are recorded and option
// changes are saved as preferences.
func (u *UCI) SetStore(s *storage.Storage) {
	u.store = s
}

// SetStrictLegality selects the legality filter for every loaded position.
func (u *UCI) SetStrictLegality(strict bool) {
	u.strict = strict
	u.position.SetStrictLegality(strict)
}

// Position returns a copy of the current position.
func (u *UCI) Position() *board.Position {
	return u.position.Copy()
}

// Run reads commands from in until "quit" or end of input. A search still
// running at end of input is allowed to finish.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for !u.quit && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.out.printf("readyok\n")
		case "ucinewgame":
			u.waitSearch()
			u.handleNewGame()
		case "position":
			u.waitSearch()
			u.handlePosition(args)
		case "go":
			u.waitSearch()
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			u.quit = true
		case "setoption":
			u.waitSearch()
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.waitSearch()
			u.handleDisplay()
		case "perft":
			u.waitSearch()
			u.handlePerft(args)
		case "eval":
			u.waitSearch()
			u.out.printf("eval cp %d\n", engine.Evaluate(u.position))
		default:
			u.errOut.printf("info string unknown command: %s\n", cmd)
		}
	}

	u.waitSearch()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.out.printf("id name %s\n", EngineName)
	u.out.printf("id author %s\n", EngineAuthor)
	u.out.printf("\n")
	u.out.printf("option name Depth type spin default %d min 1 max %d\n", engine.DefaultDepth, engine.MaxPly)
	u.out.printf("option name StrictLegality type check default false\n")
	u.out.printf("uciok\n")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.position = board.NewPosition()
	u.position.SetStrictLegality(u.strict)
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos [moves e2e4 e7e5]
//   - position fen <fen> [moves e2e4]
//   - position <fen> [moves e2e4]
//
// Bad position text keeps the previous position. An illegal move stops the
// replay at that move.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		u.errOut.printf("info string position: missing argument\n")
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		p, err := board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.errOut.printf("info string invalid fen: %v\n", err)
			return
		}
		pos = p
	default:
		p, err := board.ParseFEN(strings.Join(args[:movesAt], " "))
		if err != nil {
			u.errOut.printf("info string invalid fen: %v\n", err)
			return
		}
		pos = p
	}
	pos.SetStrictLegality(u.strict)
	u.position = pos

	if movesAt >= len(args) {
		return
	}
	for _, moveStr := range args[movesAt+1:] {
		move, err := pos.ParseLegalMove(moveStr)
		if err != nil {
			u.errOut.printf("info string illegal move: %v\n", err)
			return
		}
		pos.MakeMove(move)
	}
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)

	pos := u.position.Copy()
	ctx, cancel := context.WithCancel(context.Background())

	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}

	u.searching = true
	u.infinite = limits.Infinite
	u.cancel = cancel
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res := u.engine.Search(ctx, pos, limits)
		u.out.printf("bestmove %s\n", res.Move)
		u.record(pos, res)
	}()
}

// record stores a finished search when storage is attached.
func (u *UCI) record(pos *board.Position, res engine.Result) {
	if u.store == nil || res.Depth == 0 {
		return
	}
	err := u.store.RecordAnalysis(storage.AnalysisRecord{
		Key:     pos.Hash(),
		FEN:     pos.ToFEN(),
		Depth:   res.Depth,
		Move:    res.Move.String(),
		Score:   res.Score,
		Nodes:   res.Nodes,
		Elapsed: res.Time,
	})
	if err != nil {
		u.errOut.printf("info string record analysis: %v\n", err)
	}
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	duration := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "depth":
			if hasValue {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if hasValue {
				opts.MoveTime = duration(i + 1)
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if hasValue {
				opts.WTime = duration(i + 1)
				i++
			}
		case "btime":
			if hasValue {
				opts.BTime = duration(i + 1)
				i++
			}
		case "winc":
			if hasValue {
				opts.WInc = duration(i + 1)
				i++
			}
		case "binc":
			if hasValue {
				opts.BInc = duration(i + 1)
				i++
			}
		case "movestogo":
			if hasValue {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	limits := engine.SearchLimits{}

	if opts.Infinite {
		limits.Infinite = true
		return limits
	}

	if opts.Depth > 0 {
		limits.Depth = opts.Depth
	}

	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
	} else if opts.WTime > 0 || opts.BTime > 0 {
		// Clock given: deepen until the move budget runs out.
		limits.MoveTime = u.calculateTimeForMove(opts)
		if opts.Depth == 0 {
			limits.Depth = engine.MaxPly
		}
	}

	return limits
}

// calculateTimeForMove determines how much time to spend on this move.
func (u *UCI) calculateTimeForMove(opts GoOptions) time.Duration {
	clock := engine.Clock{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
	}
	alloc := engine.AllocateTime(clock, u.position)

	us := u.position.SideToMove()
	u.errOut.printf("info string time_allocated=%dms moves_remaining=%d our_time=%dms our_inc=%dms\n",
		alloc.MoveTime.Milliseconds(), alloc.MovesRemaining, clock.Time[us].Milliseconds(), clock.Inc[us].Milliseconds())

	return alloc.MoveTime
}

// formatScore renders a score as "cp N" or "mate N" (moves, negative when
// being mated). Mate scores carry the remaining depth at the mated node.
func formatScore(score, depth int) string {
	if engine.IsMateScore(score) {
		abs := score
		if abs < 0 {
			abs = -abs
		}
		plies := depth - (abs - engine.MateScore)
		moves := (plies + 1) / 2
		if score < 0 {
			moves = -moves
		}
		return fmt.Sprintf("mate %d", moves)
	}
	return fmt.Sprintf("cp %d", score)
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + formatScore(info.Score, info.Depth),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.Move != board.NoMove {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.out.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searching {
		u.cancel()
		u.engine.Stop()
	}
	u.waitSearch()
}

// waitSearch blocks until a running search has printed its bestmove. An
// infinite search only ends on request, so it is stopped first.
func (u *UCI) waitSearch() {
	if !u.searching {
		return
	}
	if u.infinite {
		u.cancel()
		u.engine.Stop()
	}
	<-u.searchDone
	u.searching = false
	u.infinite = false
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	val := strings.Join(value, " ")
	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		depth, err := strconv.Atoi(val)
		if err != nil {
			u.errOut.printf("info string bad Depth %q\n", val)
			return
		}
		u.engine.SetDepth(depth)
	case "strictlegality":
		u.SetStrictLegality(strings.EqualFold(val, "true"))
	default:
		u.errOut.printf("info string unknown option %q\n", strings.Join(name, " "))
		return
	}

	u.savePreferences()
}

func (u *UCI) savePreferences() {
	if u.store == nil {
		return
	}
	prefs := &storage.Preferences{
		Depth:          u.engine.Depth(),
		StrictLegality: u.strict,
	}
	if err := u.store.SavePreferences(prefs); err != nil {
		u.errOut.printf("info string save preferences: %v\n", err)
	}
}

// handleDisplay prints the board, its text form and key.
func (u *UCI) handleDisplay() {
	u.out.printf("%s", display.RenderString(u.position))
	u.out.printf("Fen: %s\n", u.position.ToFEN())
	u.out.printf("Key: %016x\n", u.position.Hash())
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 {
			u.errOut.printf("info string bad perft depth %q\n", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	nodes := engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	u.out.printf("Nodes: %d\n", nodes)
	u.out.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.out.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
