package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/negachess/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// checkInterval is how many nodes pass between context checks.
const checkInterval = 1024

// Searcher runs negamax with alpha-beta pruning on one Position, mutating it
// with make/undo in stack order. It owns its transposition table and is not
// safe for concurrent use.
type Searcher struct {
	pos   *board.Position
	tt    *TranspositionTable
	nodes uint64

	ctx     context.Context
	stop    *atomic.Bool
	stopped bool
}

// NewSearcher creates a searcher over pos with a fresh transposition table.
// stop may be nil.
func NewSearcher(ctx context.Context, pos *board.Position, stop *atomic.Bool) *Searcher {
	if stop == nil {
		stop = new(atomic.Bool)
	}
	return &Searcher{
		pos:  pos,
		tt:   NewTranspositionTable(),
		ctx:  ctx,
		stop: stop,
	}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Stopped reports whether the last search was aborted.
func (s *Searcher) Stopped() bool {
	return s.stopped
}

// TT returns the searcher's transposition table.
func (s *Searcher) TT() *TranspositionTable {
	return s.tt
}

func (s *Searcher) shouldStop() bool {
	if s.stopped {
		return true
	}
	if s.stop.Load() {
		s.stopped = true
	} else if s.nodes%checkInterval == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	return s.stopped
}

// noMovesScore scores a node whose mover has no legal move: mated scores
// below every material outcome, nearer mates (more depth left) lower still;
// stalemate is even.
func noMovesScore(pos *board.Position, depth int) int {
	if pos.InCheck() {
		return -(MateScore + depth)
	}
	return 0
}

// SearchRoot searches every move in moves to depth and returns the first
// move reaching the best score. A full window gives exact scores for every
// move; narrower windows still return the same move and score.
func (s *Searcher) SearchRoot(moves board.MoveList, depth, alpha, beta int) (board.Move, int) {
	s.stopped = false
	bestMove := board.NoMove
	bestScore := -Infinity

	if len(moves) == 0 {
		return board.NoMove, noMovesScore(s.pos, depth)
	}
	if s.ctx.Err() != nil || s.stop.Load() {
		s.stopped = true
		return bestMove, bestScore
	}

	for _, m := range moves {
		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		s.pos.UndoMove(m)

		if s.stopped {
			return bestMove, bestScore
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}

	return bestMove, bestScore
}

// negamax is fail-hard: results are clamped to [alpha, beta]. Entries are
// stored with the bound they prove, so a probe only answers when the bound
// settles the current window.
func (s *Searcher) negamax(depth, alpha, beta int) int {
	s.nodes++
	if s.shouldStop() {
		return 0
	}

	if depth == 0 {
		return Evaluate(s.pos)
	}

	key := s.pos.Key()
	if entry, ok := s.tt.Probe(key, depth); ok {
		switch entry.Flag {
		case TTExact:
			return clamp(entry.Score, alpha, beta)
		case TTLowerBound:
			if entry.Score >= beta {
				return beta
			}
		case TTUpperBound:
			if entry.Score <= alpha {
				return alpha
			}
		}
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		score := noMovesScore(s.pos, depth)
		s.tt.Store(key, depth, score, TTExact, board.NoMove)
		return clamp(score, alpha, beta)
	}

	flag := TTUpperBound
	bestMove := board.NoMove
	for _, m := range moves {
		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		s.pos.UndoMove(m)

		if s.stopped {
			return 0
		}

		if score >= beta {
			s.tt.Store(key, depth, beta, TTLowerBound, m)
			return beta
		}
		if score > alpha {
			alpha = score
			flag = TTExact
			bestMove = m
		}
	}

	s.tt.Store(key, depth, alpha, flag, bestMove)
	return alpha
}

func clamp(score, alpha, beta int) int {
	if score < alpha {
		return alpha
	}
	if score > beta {
		return beta
	}
	return score
}
