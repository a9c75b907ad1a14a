package board

import "sync"

// attackTables holds the empty-board masks for the non-sliding pieces.
// Built once on first use and read-only afterwards.
type attackTables struct {
	knight      [64]Bitboard
	king        [64]Bitboard
	pawnPushes  [2][64]Bitboard // [Color][Square] single and double advances
	pawnAttacks [2][64]Bitboard // [Color][Square] diagonal captures
}

var (
	tablesOnce sync.Once
	tables     *attackTables
)

func attackTablesInstance() *attackTables {
	tablesOnce.Do(func() {
		tables = buildAttackTables()
	})
	return tables
}

func buildAttackTables() *attackTables {
	t := &attackTables{}
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		t.knight[sq] = knightMask(bb)
		t.king[sq] = kingMask(bb)

		t.pawnAttacks[White][sq] = bb.North().East() | bb.North().West()
		t.pawnAttacks[Black][sq] = bb.South().East() | bb.South().West()

		t.pawnPushes[White][sq] = bb.North()
		if sq.Rank() == 1 {
			t.pawnPushes[White][sq] |= bb.North().North()
		}
		t.pawnPushes[Black][sq] = bb.South()
		if sq.Rank() == 6 {
			t.pawnPushes[Black][sq] |= bb.South().South()
		}
	}
	return t
}

func knightMask(bb Bitboard) Bitboard {
	up2, down2 := bb.North().North(), bb.South().South()
	east2, west2 := bb.East().East(), bb.West().West()
	return up2.East() | up2.West() |
		down2.East() | down2.West() |
		east2.North() | east2.South() |
		west2.North() | west2.South()
}

func kingMask(bb Bitboard) Bitboard {
	row := bb | bb.East() | bb.West()
	return (row | row.North() | row.South()) &^ bb
}

// KnightAttacks returns the knight mask for a square.
func KnightAttacks(sq Square) Bitboard {
	return attackTablesInstance().knight[sq]
}

// KingAttacks returns the king mask for a square.
func KingAttacks(sq Square) Bitboard {
	return attackTablesInstance().king[sq]
}

// PawnPushes returns the advance targets of a pawn of color c on sq,
// including the double step from its starting rank.
func PawnPushes(sq Square, c Color) Bitboard {
	return attackTablesInstance().pawnPushes[c][sq]
}

// PawnAttacks returns the diagonal capture targets of a pawn of color c on sq.
func PawnAttacks(sq Square, c Color) Bitboard {
	return attackTablesInstance().pawnAttacks[c][sq]
}

type direction struct{ df, dr int }

var (
	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

// castRays walks each direction one square at a time. The first blocker on a
// ray is included and ends the ray.
func castRays(sq Square, blockers Bitboard, dirs *[4]direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		f, r := sq.File(), sq.Rank()
		for {
			f += d.df
			r += d.dr
			if f < 0 || f > 7 || r < 0 || r > 7 {
				break
			}
			target := SquareBB(NewSquare(f, r))
			attacks |= target
			if blockers&target != 0 {
				break
			}
		}
	}
	return attacks
}

// BishopAttacks ray-casts the four diagonals from sq.
func BishopAttacks(sq Square, blockers Bitboard) Bitboard {
	return castRays(sq, blockers, &bishopDirections)
}

// RookAttacks ray-casts the four orthogonals from sq.
func RookAttacks(sq Square, blockers Bitboard) Bitboard {
	return castRays(sq, blockers, &rookDirections)
}

// QueenAttacks is the union of bishop and rook rays.
func QueenAttacks(sq Square, blockers Bitboard) Bitboard {
	return BishopAttacks(sq, blockers) | RookAttacks(sq, blockers)
}

// attackersByColor returns the pieces of color c that attack sq.
func attackersByColor(sides *[2]SideSet, sq Square, c Color, occupied Bitboard) Bitboard {
	t := attackTablesInstance()
	own := &sides[c].Pieces
	return (t.pawnAttacks[c.Other()][sq] & own[Pawn]) |
		(t.knight[sq] & own[Knight]) |
		(t.king[sq] & own[King]) |
		(BishopAttacks(sq, occupied) & (own[Bishop] | own[Queen])) |
		(RookAttacks(sq, occupied) & (own[Rook] | own[Queen]))
}

// kingAttacked reports whether the king of color c is attacked. A missing
// king counts as attacked.
func kingAttacked(sides *[2]SideSet, c Color) bool {
	king := sides[c].Pieces[King]
	if king == 0 {
		return true
	}
	occupied := sides[White].Occupied | sides[Black].Occupied
	return attackersByColor(sides, king.LSB(), c.Other(), occupied) != 0
}
