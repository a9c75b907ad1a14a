package board

import (
	"sort"
	"strings"
	"testing"

	"github.com/notnil/chess"
)

func TestStartingPositionMoveCount(t *testing.T) {
	pos := NewPosition()
	moves := pos.LegalMoves()
	if len(moves) != 20 {
		t.Fatalf("start position has %d moves, want 20: %v", len(moves), moves.Strings())
	}

	var pawn, knight int
	for _, m := range moves {
		switch pos.PieceAt(m.From()).Type() {
		case Pawn:
			pawn++
		case Knight:
			knight++
		}
		if m.IsCapture() || m.IsPromotion() {
			t.Errorf("unexpected flags on %v", m)
		}
	}
	if pawn != 16 || knight != 4 {
		t.Errorf("pawn moves = %d, knight moves = %d, want 16 and 4", pawn, knight)
	}
}

// oracleMoves returns the oracle's legal moves as sorted move text.
// Under-promotions are skipped since pawns always promote to a queen here.
func oracleMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("oracle FEN %q: %v", fen, err)
	}
	game := chess.NewGame(opt)
	var out []string
	for _, m := range game.ValidMoves() {
		s := chess.UCINotation{}.Encode(game.Position(), m)
		if len(s) == 5 && !strings.HasSuffix(s, "q") {
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortedStrings(ml MoveList) []string {
	out := ml.Strings()
	sort.Strings(out)
	return out
}

func TestLegalMovesMatchOracle(t *testing.T) {
	// No castling rights or en passant targets: neither is modeled.
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R b - - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w - - 1 8",
		"4k3/8/8/8/8/8/4r3/4K3 w - - 0 1",
		"4k3/8/8/8/1b6/8/3N4/4K3 w - - 0 1",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatal(err)
			}
			pos.SetStrictLegality(true)

			got := sortedStrings(pos.LegalMoves())
			want := oracleMoves(t, fen)
			if strings.Join(got, " ") != strings.Join(want, " ") {
				t.Errorf("moves differ\n got: %v\nwant: %v", got, want)
			}
		})
	}
}

func TestCaptureFlag(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w")
	if err != nil {
		t.Fatal(err)
	}
	them := pos.Side(Black).Occupied
	for _, m := range pos.LegalMoves() {
		if m.IsCapture() != them.IsSet(m.To()) {
			t.Errorf("%v: capture flag %v, destination occupied by black %v", m, m.IsCapture(), them.IsSet(m.To()))
		}
	}
}

func TestPawnDoubleStepBlocked(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from Square
		want []string
	}{
		{"open", "4k3/8/8/8/8/8/4P3/4K3 w", E2, []string{"e2e3", "e2e4"}},
		{"first square blocked", "4k3/8/8/8/8/4n3/4P3/4K3 w", E2, nil},
		{"second square blocked", "4k3/8/8/8/4n3/8/4P3/4K3 w", E2, []string{"e2e3"}},
		{"black open", "4k3/3p4/8/8/8/8/8/4K3 b", D7, []string{"d7d5", "d7d6"}},
		{"black first blocked", "4k3/3p4/3B4/8/8/8/8/4K3 b", D7, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			got := sortedStrings(pos.MovesFrom(tc.from))
			if strings.Join(got, " ") != strings.Join(tc.want, " ") {
				t.Errorf("MovesFrom(%v) = %v, want %v", tc.from, got, tc.want)
			}
		})
	}
}

func TestPinnedPieceReferenceVersusStrict(t *testing.T) {
	// Knight on d2 is pinned by the bishop on b4; white is not in check.
	pos, err := ParseFEN("4k3/8/8/8/1b6/8/3N4/4K3 w")
	if err != nil {
		t.Fatal(err)
	}
	if pos.InCheck() {
		t.Fatal("white should not be in check")
	}

	if got := len(pos.LegalMoves()); got != 10 {
		t.Errorf("reference filter: %d moves, want 10 (6 knight + 4 king): %v", got, pos.LegalMoves().Strings())
	}

	pos.SetStrictLegality(true)
	moves := pos.LegalMoves()
	if len(moves) != 4 {
		t.Errorf("strict filter: %d moves, want 4: %v", len(moves), moves.Strings())
	}
	for _, m := range moves {
		if m.From() == D2 {
			t.Errorf("pinned knight move %v allowed in strict mode", m)
		}
	}
}

func TestInCheckFilter(t *testing.T) {
	// Rook e2 checks the king on e1; only captures and escapes remain.
	pos, err := ParseFEN("4k3/8/8/8/8/8/4r3/4K3 w")
	if err != nil {
		t.Fatal(err)
	}
	got := sortedStrings(pos.LegalMoves())
	want := []string{"e1d1", "e1e2", "e1f1"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("LegalMoves() = %v, want %v", got, want)
	}
}

func TestQueenMovesBishopThenRook(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/3Q4/8/8/4K3 w")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos.MovesFrom(D4)
	if len(moves) != 27 {
		t.Fatalf("queen on d4 has %d moves, want 27", len(moves))
	}
	diag := BishopAttacks(D4, pos.Occupied())
	for i, m := range moves {
		inDiag := diag.IsSet(m.To())
		if i < 13 && !inDiag {
			t.Errorf("move %d (%v) should be a diagonal move", i, m)
		}
		if i >= 13 && inDiag {
			t.Errorf("move %d (%v) should be an orthogonal move", i, m)
		}
	}
}

func TestMovesFromEmptySquare(t *testing.T) {
	pos := NewPosition()
	if moves := pos.MovesFrom(E4); moves != nil {
		t.Errorf("MovesFrom(e4) = %v, want nil", moves)
	}
}

func TestParseLegalMove(t *testing.T) {
	pos, err := ParseFEN("4k3/P7/8/8/8/8/7r/4K3 w")
	if err != nil {
		t.Fatal(err)
	}
	m, err := pos.ParseLegalMove("a7a8q")
	if err != nil {
		t.Fatalf("ParseLegalMove(a7a8q): %v", err)
	}
	if !m.IsPromotion() {
		t.Error("a7a8q should carry the promotion flag")
	}

	pos, err = ParseFEN("7k/8/8/8/8/8/4K3/R6r w")
	if err != nil {
		t.Fatal(err)
	}
	m, err = pos.ParseLegalMove("a1h1")
	if err != nil {
		t.Fatalf("ParseLegalMove(a1h1): %v", err)
	}
	if !m.IsCapture() {
		t.Error("a1h1 should carry the capture flag")
	}

	for _, bad := range []string{"a1a9", "e2e4", "a1", "a1b2n"} {
		if _, err := pos.ParseLegalMove(bad); err == nil {
			t.Errorf("ParseLegalMove(%q) succeeded", bad)
		}
	}
}
