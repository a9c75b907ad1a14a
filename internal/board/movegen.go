package board

import "fmt"

// Per-piece generators emit quiet moves first, then captures, each in
// ascending destination order. Friendly-occupied squares are never targets.

func appendTargets(ml MoveList, from Square, targets Bitboard, capture bool, promotion bool) MoveList {
	for targets != 0 {
		ml = append(ml, NewMove(from, targets.PopLSB(), capture, promotion))
	}
	return ml
}

// appendSplit adds the quiet and capture subsets of an attack set.
func appendSplit(ml MoveList, from Square, attacks, occupied, enemies Bitboard) MoveList {
	ml = appendTargets(ml, from, attacks&^occupied, false, false)
	return appendTargets(ml, from, attacks&enemies, true, false)
}

func (p *Position) appendPawnMoves(ml MoveList, from Square, us Color, occupied, enemies Bitboard) MoveList {
	var step Bitboard
	var promoRank Bitboard
	if us == White {
		step = SquareBB(from).North()
		promoRank = Rank8
	} else {
		step = SquareBB(from).South()
		promoRank = Rank1
	}

	pushes := PawnPushes(from, us) &^ occupied
	if pushes&step == 0 {
		// blocked single step also blocks the double step
		pushes = 0
	}
	captures := PawnAttacks(from, us) & enemies

	ml = appendTargets(ml, from, pushes&^promoRank, false, false)
	ml = appendTargets(ml, from, pushes&promoRank, false, true)
	ml = appendTargets(ml, from, captures&^promoRank, true, false)
	return appendTargets(ml, from, captures&promoRank, true, true)
}

// appendPieceMoves dispatches on the piece kind at from.
func (p *Position) appendPieceMoves(ml MoveList, from Square, pt PieceType, us Color) MoveList {
	occupied := p.Occupied()
	enemies := p.sides[us.Other()].Occupied

	switch pt {
	case Pawn:
		return p.appendPawnMoves(ml, from, us, occupied, enemies)
	case Knight:
		return appendSplit(ml, from, KnightAttacks(from), occupied, enemies)
	case Bishop:
		return appendSplit(ml, from, BishopAttacks(from, occupied), occupied, enemies)
	case Rook:
		return appendSplit(ml, from, RookAttacks(from, occupied), occupied, enemies)
	case Queen:
		ml = appendSplit(ml, from, BishopAttacks(from, occupied), occupied, enemies)
		return appendSplit(ml, from, RookAttacks(from, occupied), occupied, enemies)
	case King:
		return appendSplit(ml, from, KingAttacks(from), occupied, enemies)
	default:
		panic(fmt.Sprintf("board: unknown piece type %d on %s", pt, from))
	}
}

// pseudoLegal generates moves for color c in ascending source order.
func (p *Position) pseudoLegal(c Color) MoveList {
	ml := make(MoveList, 0, 48)
	own := p.sides[c].Occupied
	for own != 0 {
		from := own.PopLSB()
		ml = p.appendPieceMoves(ml, from, p.sides[c].PieceAt(from), c)
	}
	return ml
}

// needsFilter reports whether moves of c go through the simulation filter:
// always in strict mode, otherwise only while c is in check.
func (p *Position) needsFilter(c Color) bool {
	return p.strict || p.IsCheck(c)
}

// isSafe reports whether m leaves the king of c unattacked.
func (p *Position) isSafe(m Move, c Color) bool {
	v := NewVBoard(p)
	v.ApplyMove(m, c)
	return !v.IsKingAttacked(c)
}

func (p *Position) filter(ml MoveList, c Color) MoveList {
	out := ml[:0]
	for _, m := range ml {
		if p.isSafe(m, c) {
			out = append(out, m)
		}
	}
	return out
}

// hasLegalMove stops at the first move that survives the filter.
func (p *Position) hasLegalMove(c Color, check bool) bool {
	ml := p.pseudoLegal(c)
	if !check && !p.strict {
		return len(ml) > 0
	}
	for _, m := range ml {
		if p.isSafe(m, c) {
			return true
		}
	}
	return false
}

// PseudoLegalMoves returns every move obeying piece movement rules for c,
// without the king-safety filter.
func (p *Position) PseudoLegalMoves(c Color) MoveList {
	return p.pseudoLegal(c)
}

// MovesFor returns the moves of color c as if c were to move.
func (p *Position) MovesFor(c Color) MoveList {
	ml := p.pseudoLegal(c)
	if p.needsFilter(c) {
		ml = p.filter(ml, c)
	}
	return ml
}

// LegalMoves returns the moves of the side to move.
func (p *Position) LegalMoves() MoveList {
	return p.MovesFor(p.sideToMove)
}

// MovesFrom returns the moves of the piece on sq, nil if the square is empty.
func (p *Position) MovesFrom(sq Square) MoveList {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return nil
	}
	c := piece.Color()
	ml := p.appendPieceMoves(nil, sq, piece.Type(), c)
	if p.needsFilter(c) {
		ml = p.filter(ml, c)
	}
	return ml
}

// ParseLegalMove resolves move text against the legal moves of the side to
// move, filling in the capture flag.
func (p *Position) ParseLegalMove(s string) (Move, error) {
	m, err := ParseMove(s)
	if err != nil {
		return NoMove, err
	}
	for _, legal := range p.LegalMoves() {
		if legal.From() == m.From() && legal.To() == m.To() && legal.IsPromotion() == m.IsPromotion() {
			return legal, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s is not legal here", ErrInvalidMove, s)
}
