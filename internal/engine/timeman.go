package engine

import (
	"time"

	"github.com/hailam/negachess/internal/board"
)

// Clock holds the time control state sent with a search request.
type Clock struct {
	Time      [2]time.Duration // remaining time, indexed by color
	Inc       [2]time.Duration // increment per move, indexed by color
	MovesToGo int              // moves until next time control (0 = sudden death)
}

// Time bounds for one move
const (
	minMoveTime    = 10 * time.Millisecond
	maxTimePercent = 90
)

// Allocation is the outcome of AllocateTime.
type Allocation struct {
	MoveTime       time.Duration
	MovesRemaining int
}

// AllocateTime decides how long the side to move in pos may think: an even
// share of the remaining time plus 90% of the increment, capped at 90% of
// the remaining time and never below minMoveTime.
func AllocateTime(clock Clock, pos *board.Position) Allocation {
	us := pos.SideToMove()
	timeLeft := clock.Time[us]
	inc := clock.Inc[us]

	mtg := clock.MovesToGo
	if mtg <= 0 {
		mtg = estimateMovesRemaining(pos)
	}

	moveTime := timeLeft/time.Duration(mtg) + inc*9/10

	if maxTime := timeLeft * maxTimePercent / 100; moveTime > maxTime {
		moveTime = maxTime
	}
	if moveTime < minMoveTime {
		moveTime = minMoveTime
	}

	return Allocation{MoveTime: moveTime, MovesRemaining: mtg}
}

// estimateMovesRemaining guesses the moves left in the game from the
// material on the board.
func estimateMovesRemaining(pos *board.Position) int {
	totalPieces := pos.Occupied().PopCount()

	if totalPieces > 24 {
		return 40 // Opening/early middlegame
	} else if totalPieces > 12 {
		return 30 // Middlegame
	}
	return 20 // Endgame
}
