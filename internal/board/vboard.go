package board

// VBoard is a lightweight board for move simulation.
// Unlike Position, it only contains data needed for attack detection:
// no history, no hash, no cached status. Stack-allocated.
type VBoard struct {
	Sides [2]SideSet
}

// NewVBoard creates a VBoard from a Position.
func NewVBoard(p *Position) VBoard {
	return VBoard{Sides: p.sides}
}

// ApplyMove applies a move to the VBoard (no validation, no hash update).
func (v *VBoard) ApplyMove(m Move, us Color) {
	them := us.Other()
	from, to := m.From(), m.To()
	fromBB, toBB := SquareBB(from), SquareBB(to)

	pt := v.Sides[us].PieceAt(from)
	if pt == NoPieceType {
		return
	}

	// Capture
	if victim := v.Sides[them].PieceAt(to); victim != NoPieceType {
		v.Sides[them].Pieces[victim] &^= toBB
		v.Sides[them].Occupied &^= toBB
	}

	moveBB := fromBB | toBB
	v.Sides[us].Pieces[pt] ^= moveBB
	v.Sides[us].Occupied ^= moveBB

	if pt == Pawn && isBackRank(to, us) {
		v.Sides[us].Pieces[Pawn] &^= toBB
		v.Sides[us].Pieces[Queen] |= toBB
	}
}

// IsKingAttacked reports whether the king of color c is attacked.
// A missing king counts as attacked.
func (v *VBoard) IsKingAttacked(c Color) bool {
	return kingAttacked(&v.Sides, c)
}
