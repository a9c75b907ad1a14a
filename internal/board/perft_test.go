package board

import "testing"

// Perft counts the number of leaf nodes at the given depth.
// This is the standard way to verify move generation correctness.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		p.MakeMove(m)
		nodes += perft(p, depth-1)
		p.UndoMove(m)
	}
	return nodes
}

// TestPerftStartingPosition runs the default filter. Up to depth 3 no pinned
// piece can move, so the counts match standard perft.
func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(pos, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftStrict checks depth 4, which contains pinned pieces
// (1.e4 a6 2.Bb5 pins d7) but no castling, en passant or promotion.
func TestPerftStrict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping perft(4) in short mode")
	}
	pos := NewPosition()
	pos.SetStrictLegality(true)

	if got := perft(pos, 4); got != 197281 {
		t.Errorf("perft(4) = %d, want 197281", got)
	}
}

// TestPerftRestoresPosition checks that a full perft walk leaves the
// position untouched.
func TestPerftRestoresPosition(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	before := pos.ToFEN()
	hash := pos.Hash()
	status := pos.Status(pos.SideToMove())

	perft(pos, 3)

	if got := pos.ToFEN(); got != before {
		t.Errorf("FEN after perft = %s, want %s", got, before)
	}
	if pos.Hash() != hash {
		t.Errorf("hash after perft = %x, want %x", pos.Hash(), hash)
	}
	if pos.Status(pos.SideToMove()) != status {
		t.Errorf("status after perft = %+v, want %+v", pos.Status(pos.SideToMove()), status)
	}
	if pos.Ply() != 0 {
		t.Errorf("Ply() = %d after perft, want 0", pos.Ply())
	}
}

// TestPerftPromotion exercises promotion make/undo on a small board.
func TestPerftPromotion(t *testing.T) {
	pos, err := ParseFEN("8/P6k/8/8/8/8/6Kp/8 w")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	pos.SetStrictLegality(true)
	before := pos.ToFEN()

	moves := pos.LegalMoves()
	if !moves.Contains(NewMove(A7, A8, false, true)) {
		t.Fatalf("a7a8q missing from %v", moves.Strings())
	}

	pos.MakeMove(NewMove(A7, A8, false, true))
	if got := pos.PieceAt(A8); got != WhiteQueen {
		t.Errorf("PieceAt(a8) = %v, want Q", got)
	}
	perft(pos, 2)
	pos.UndoMove(NewMove(A7, A8, false, true))

	if got := pos.PieceAt(A7); got != WhitePawn {
		t.Errorf("PieceAt(a7) after undo = %v, want P", got)
	}
	if got := pos.ToFEN(); got != before {
		t.Errorf("FEN after undo = %s, want %s", got, before)
	}
}
