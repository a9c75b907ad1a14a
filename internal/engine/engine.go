package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hailam/negachess/internal/board"
)

// DefaultDepth is the search depth used when limits name none.
const DefaultDepth = 4

// SearchInfo contains information about a completed iteration.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = engine default)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Deepen until stopped
}

// Result is the outcome of a search. Move is board.NoMove when the side to
// move has no legal move; Depth is 0 when no iteration completed and Move
// is the first legal move.
type Result struct {
	Move  board.Move
	Score int
	Depth int
	Nodes uint64
	Time  time.Duration
}

// Engine drives searches. It is safe to call Stop from another goroutine
// while Search runs; Search itself must not run concurrently with itself.
type Engine struct {
	depth    int
	stopFlag atomic.Bool

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine searching DefaultDepth.
func NewEngine() *Engine {
	return &Engine{depth: DefaultDepth}
}

// SetDepth sets the default search depth.
func (e *Engine) SetDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxPly {
		depth = MaxPly
	}
	e.depth = depth
}

// Depth returns the default search depth.
func (e *Engine) Depth() int {
	return e.depth
}

// Stop aborts the running search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Search finds the best move for pos. pos is left as it was found.
//
// Without a deadline or a cancellable context the search runs once at the
// full depth. Otherwise it deepens one ply at a time and returns the last
// completed iteration.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits SearchLimits) Result {
	e.stopFlag.Store(false)
	startTime := time.Now()

	maxDepth := e.depth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly)
	}
	if limits.Infinite {
		maxDepth = MaxPly
	}

	if limits.MoveTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.MoveTime)
		defer cancel()
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return Result{Move: board.NoMove, Score: noMovesScore(pos, maxDepth), Time: time.Since(startTime)}
	}

	result := Result{Move: moves[0]}

	startDepth := maxDepth
	if ctx.Done() != nil {
		startDepth = 1
	}

	s := NewSearcher(ctx, pos.Copy(), &e.stopFlag)
	for depth := startDepth; depth <= maxDepth; depth++ {
		before := s.Nodes()
		move, score := s.SearchRoot(moves, depth, -Infinity, Infinity)
		result.Nodes += s.Nodes() - before
		if s.Stopped() {
			break
		}

		result.Move = move
		result.Score = score
		result.Depth = depth

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: result.Nodes,
				Time:  time.Since(startTime),
				Move:  move,
			})
		}
	}

	result.Time = time.Since(startTime)
	return result
}

// Perft counts leaf nodes of the legal move tree (for debugging move generation).
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, move := range moves {
		pos.MakeMove(move)
		nodes += Perft(pos, depth-1)
		pos.UndoMove(move)
	}

	return nodes
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return score > MateScore || score < -MateScore
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore {
		return "Mate"
	}
	if score < -MateScore {
		return "Mated"
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
