package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is wrapped by every move-text and move-legality error.
var ErrInvalidMove = errors.New("invalid move")

// Move encodes a move in 16 bits:
// bits 0-5:  from square
// bits 6-11: to square
// bit 12:    capture (destination held an opposing piece at generation time)
// bit 13:    promotion (pawn reaching the back rank; always becomes a queen)
type Move uint16

const (
	flagCapture   Move = 1 << 12
	flagPromotion Move = 1 << 13
)

// NoMove is the null move: from = to = a1, no flags. Search returns it when
// the side to move has no legal move; callers check for it before applying.
const NoMove Move = 0

// NewMove creates a move.
func NewMove(from, to Square, capture, promotion bool) Move {
	m := Move(from) | Move(to)<<6
	if capture {
		m |= flagCapture
	}
	if promotion {
		m |= flagPromotion
	}
	return m
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// IsCapture reports the capture flag.
func (m Move) IsCapture() bool {
	return m&flagCapture != 0
}

// IsPromotion reports the promotion flag.
func (m Move) IsPromotion() bool {
	return m&flagPromotion != 0
}

// IsNull reports whether m is the null move.
func (m Move) IsNull() bool {
	return m == NoMove
}

// String returns the move text, e.g. "e2e4" or "e7e8q". The null move is "0000".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "q"
	}
	return s
}

// ParseMove parses move text: source square, destination square and an
// optional trailing 'q' for promotion. The capture flag cannot be known from
// text alone; use Position.ParseLegalMove to resolve against a position.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}
	promotion := false
	if len(s) == 5 {
		if s[4] != 'q' {
			return NoMove, fmt.Errorf("%w: unsupported promotion %q", ErrInvalidMove, s)
		}
		promotion = true
	}
	return NewMove(from, to, false, promotion), nil
}

// MoveList is a reusable append-only list of moves.
type MoveList []Move

// Contains reports whether the list holds m.
func (ml MoveList) Contains(m Move) bool {
	for _, x := range ml {
		if x == m {
			return true
		}
	}
	return false
}

// Strings returns the move texts in list order.
func (ml MoveList) Strings() []string {
	out := make([]string, len(ml))
	for i, m := range ml {
		out[i] = m.String()
	}
	return out
}
