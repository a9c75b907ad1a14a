package board

import (
	"fmt"
	"strings"
)

// SideSet holds one color's pieces. Occupied is always the union of Pieces,
// and no square is set in more than one of the six boards.
type SideSet struct {
	Pieces   [6]Bitboard // [PieceType]
	Occupied Bitboard
	Color    Color
}

// PieceAt returns the piece type on sq, or NoPieceType.
func (s *SideSet) PieceAt(sq Square) PieceType {
	bb := SquareBB(sq)
	if s.Occupied&bb == 0 {
		return NoPieceType
	}
	for pt := Pawn; pt <= King; pt++ {
		if s.Pieces[pt]&bb != 0 {
			return pt
		}
	}
	return NoPieceType
}

// Status is the cached terminal-state record of one color.
//
// Draw is set for stalemate and for checkmate alike: it means "no legal
// moves", not a drawn game. Score outcomes with Checkmate and Stalemate.
type Status struct {
	Check     bool
	Checkmate bool
	Stalemate bool
	Draw      bool
}

// HistoryEntry is one applied move with everything UndoMove needs.
type HistoryEntry struct {
	Move     Move
	Mover    Piece // piece that left the source square (the pawn for promotions)
	Captured Piece // NoPiece for quiet moves
	status   Status
	strict   bool
}

// Key identifies a position for memoization: piece placement plus turn.
// It is comparable and collision-free, unlike Hash.
type Key struct {
	Pieces [2][6]Bitboard
	Turn   Color
}

// Position is a board with its side to move, move history and the cached
// status of the side to move.
//
// A Position is not safe for concurrent use; clone it with Copy.
type Position struct {
	sides      [2]SideSet
	sideToMove Color
	history    []HistoryEntry

	// status is valid for sideToMove; refreshed on every make/undo.
	status Status
	hash   uint64
	strict bool
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

func newEmptyPosition() *Position {
	p := &Position{}
	p.sides[White].Color = White
	p.sides[Black].Color = Black
	return p
}

// Copy creates a deep copy of the position, history included.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.history = make([]HistoryEntry, len(p.history), cap(p.history))
	copy(newPos.history, p.history)
	return &newPos
}

// Side returns the piece set of color c.
func (p *Position) Side(c Color) SideSet {
	return p.sides[c]
}

// SideToMove returns the color whose turn it is.
func (p *Position) SideToMove() Color {
	return p.sideToMove
}

// Occupied returns all occupied squares.
func (p *Position) Occupied() Bitboard {
	return p.sides[White].Occupied | p.sides[Black].Occupied
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	for c := White; c <= Black; c++ {
		if pt := p.sides[c].PieceAt(sq); pt != NoPieceType {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Occupied()&SquareBB(sq) == 0
}

// Hash returns the incrementally maintained Zobrist key.
func (p *Position) Hash() uint64 {
	return p.hash
}

// Key returns the exact memoization key of the position.
func (p *Position) Key() Key {
	return Key{
		Pieces: [2][6]Bitboard{p.sides[White].Pieces, p.sides[Black].Pieces},
		Turn:   p.sideToMove,
	}
}

// History returns a copy of the applied moves, oldest first.
func (p *Position) History() []HistoryEntry {
	out := make([]HistoryEntry, len(p.history))
	copy(out, p.history)
	return out
}

// Ply returns the number of moves applied since the position was created.
func (p *Position) Ply() int {
	return len(p.history)
}

// SetStrictLegality switches the legality filter between the reference
// behavior (filter only while in check) and filtering every move, which
// also rejects moves of pinned pieces.
func (p *Position) SetStrictLegality(strict bool) {
	if p.strict == strict {
		return
	}
	p.strict = strict
	p.refreshStatus()
}

// StrictLegality reports the current filter mode.
func (p *Position) StrictLegality() bool {
	return p.strict
}

// setPiece places a piece on an empty square and updates the hash.
func (p *Position) setPiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.sides[c].Pieces[pt] |= bb
	p.sides[c].Occupied |= bb
	p.hash ^= zobristPiece[c][pt][sq]
}

// removePiece clears sq and returns what stood there.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.sides[c].Pieces[pt] &^= bb
	p.sides[c].Occupied &^= bb
	p.hash ^= zobristPiece[c][pt][sq]
	return piece
}

func (p *Position) flipTurn() {
	p.sideToMove = p.sideToMove.Other()
	p.hash ^= zobristSideToMove
}

// MakeMove applies m for the side to move. The source square must hold a
// piece of the side to move; anything else is a caller bug and panics.
// A pawn reaching the back rank becomes a queen.
func (p *Position) MakeMove(m Move) {
	from, to := m.From(), m.To()
	us := p.sideToMove

	mover := p.PieceAt(from)
	if mover == NoPiece {
		panic(fmt.Sprintf("board: MakeMove %s: no piece on %s", m, from))
	}
	if mover.Color() != us {
		panic(fmt.Sprintf("board: MakeMove %s: %s to move", m, us))
	}

	entry := HistoryEntry{
		Move:     m,
		Mover:    mover,
		Captured: NoPiece,
		status:   p.status,
		strict:   p.strict,
	}

	p.removePiece(from)
	if captured := p.removePiece(to); captured != NoPiece {
		if captured.Color() == us {
			panic(fmt.Sprintf("board: MakeMove %s: captures own %s", m, captured.Type()))
		}
		entry.Captured = captured
	}

	placed := mover
	if mover.Type() == Pawn && isBackRank(to, us) {
		placed = NewPiece(Queen, us)
	}
	p.setPiece(placed, to)

	p.history = append(p.history, entry)
	p.flipTurn()
	p.refreshStatus()
}

// UndoMove reverts the most recent move, which must equal m.
func (p *Position) UndoMove(m Move) {
	n := len(p.history)
	if n == 0 {
		panic(fmt.Sprintf("board: UndoMove %s: empty history", m))
	}
	entry := p.history[n-1]
	if entry.Move != m {
		panic(fmt.Sprintf("board: UndoMove %s: last move was %s", m, entry.Move))
	}
	p.history = p.history[:n-1]

	from, to := m.From(), m.To()
	p.removePiece(to)
	p.setPiece(entry.Mover, from)
	if entry.Captured != NoPiece {
		p.setPiece(entry.Captured, to)
	}
	p.flipTurn()

	if entry.strict == p.strict {
		p.status = entry.status
	} else {
		p.refreshStatus()
	}
}

func isBackRank(sq Square, c Color) bool {
	if c == White {
		return sq.Rank() == 7
	}
	return sq.Rank() == 0
}

// refreshStatus recomputes the cached record for the side to move.
func (p *Position) refreshStatus() {
	p.status = p.computeStatus(p.sideToMove)
}

func (p *Position) computeStatus(c Color) Status {
	check := kingAttacked(&p.sides, c)
	if p.hasLegalMove(c, check) {
		return Status{Check: check}
	}
	return Status{
		Check:     check,
		Checkmate: check,
		Stalemate: !check,
		Draw:      true,
	}
}

// IsCheck reports whether the king of c is attacked. A color without a king
// is always in check.
func (p *Position) IsCheck(c Color) bool {
	if c == p.sideToMove {
		return p.status.Check
	}
	return kingAttacked(&p.sides, c)
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.status.Check
}

// Status returns the terminal-state record of c. The side to move is served
// from the cache; the other color is computed on demand.
func (p *Position) Status(c Color) Status {
	if c == p.sideToMove {
		return p.status
	}
	return p.computeStatus(c)
}

// IsCheckmate reports whether c is in check with no legal move.
func (p *Position) IsCheckmate(c Color) bool {
	return p.Status(c).Checkmate
}

// IsStalemate reports whether c is not in check and has no legal move.
func (p *Position) IsStalemate(c Color) bool {
	return p.Status(c).Stalemate
}

// IsDraw reports whether c has no legal move, checkmate included.
func (p *Position) IsDraw(c Color) bool {
	return p.Status(c).Draw
}

// IsGameOver reports checkmate or stalemate for the side to move.
func (p *Position) IsGameOver() bool {
	return p.status.Checkmate || p.status.Stalemate
}

// Material returns the piece count per type for color c.
func (p *Position) Material(c Color) [6]int {
	var counts [6]int
	for pt := Pawn; pt <= King; pt++ {
		counts[pt] = p.sides[c].Pieces[pt].PopCount()
	}
	return counts
}

// String returns an ASCII board, rank 8 first.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("  +-----------------+\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d | ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("  +-----------------+\n")
	sb.WriteString("    a b c d e f g h\n")
	fmt.Fprintf(&sb, "Turn: %s\n", p.sideToMove)
	return sb.String()
}
