package engine

import (
	"context"
	"testing"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/negachess/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestEvaluateStartingPosition(t *testing.T) {
	pos := board.NewPosition()
	if got := Evaluate(pos); got != 0 {
		t.Errorf("Evaluate(start) = %d, want 0", got)
	}
	pos.MakeMove(board.NewMove(board.E2, board.E4, false, false))
	pos.MakeMove(board.NewMove(board.E7, board.E5, false, false))
	if got := Evaluate(pos); got != 0 {
		t.Errorf("Evaluate after symmetric moves = %d, want 0", got)
	}
}

func TestEvaluateSideToMove(t *testing.T) {
	white := mustFEN(t, "4k3/8/8/8/8/8/8/3QK3 w")
	black := mustFEN(t, "4k3/8/8/8/8/8/8/3QK3 b")
	if Evaluate(white) <= 0 {
		t.Errorf("white up a queen scores %d for white", Evaluate(white))
	}
	if Evaluate(black) != -Evaluate(white) {
		t.Errorf("Evaluate(black to move) = %d, want %d", Evaluate(black), -Evaluate(white))
	}
}

// referenceNegamax is the unpruned full-width negamax that rebuilds the
// position from text at every node instead of using make/undo.
func referenceNegamax(t *testing.T, fen string, depth int) int {
	pos := mustFEN(t, fen)
	if depth == 0 {
		return Evaluate(pos)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return noMovesScore(pos, depth)
	}
	best := -Infinity
	for _, m := range moves {
		child := mustFEN(t, fen)
		child.MakeMove(m)
		if score := -referenceNegamax(t, child.ToFEN(), depth-1); score > best {
			best = score
		}
	}
	return best
}

func referenceRoot(t *testing.T, fen string, depth int) (board.Move, int) {
	pos := mustFEN(t, fen)
	bestMove, bestScore := board.NoMove, -Infinity
	for _, m := range pos.LegalMoves() {
		child := mustFEN(t, fen)
		child.MakeMove(m)
		if score := -referenceNegamax(t, child.ToFEN(), depth-1); score > bestScore {
			bestMove, bestScore = m, score
		}
	}
	return bestMove, bestScore
}

var searchPositions = []struct {
	fen   string
	depth int
}{
	{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w", 3},
	{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w", 2},
	{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w", 3},
	{"6k1/5ppp/8/8/8/8/8/R5K1 w", 3},
	{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w", 2},
	{"4k3/8/8/8/1b6/8/3N4/4K3 w", 3},
}

func TestAlphaBetaMatchesUnprunedNegamax(t *testing.T) {
	eng := NewEngine()
	for _, tc := range searchPositions {
		t.Run(tc.fen, func(t *testing.T) {
			wantMove, wantScore := referenceRoot(t, tc.fen, tc.depth)
			pos := mustFEN(t, tc.fen)
			got := eng.Search(context.Background(), pos, SearchLimits{Depth: tc.depth})
			if got.Move != wantMove || got.Score != wantScore {
				t.Errorf("Search = %v (%d), unpruned = %v (%d)", got.Move, got.Score, wantMove, wantScore)
			}
			if got.Depth != tc.depth {
				t.Errorf("Depth = %d, want %d", got.Depth, tc.depth)
			}
			t.Logf("%v score %d nodes %d", got.Move, got.Score, got.Nodes)
		})
	}
}

func TestDeepeningMatchesFixedDepth(t *testing.T) {
	eng := NewEngine()

	for _, tc := range searchPositions {
		t.Run(tc.fen, func(t *testing.T) {
			limits := SearchLimits{Depth: tc.depth}
			want := eng.Search(context.Background(), mustFEN(t, tc.fen), limits)

			// A cancellable context switches the driver to iterative deepening.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			got := eng.Search(ctx, mustFEN(t, tc.fen), limits)

			if got.Move != want.Move || got.Score != want.Score || got.Depth != want.Depth {
				t.Errorf("deepening = %v (%d) depth %d, fixed = %v (%d) depth %d",
					got.Move, got.Score, got.Depth, want.Move, want.Score, want.Depth)
			}
		})
	}
}

func TestSearchLeavesPositionUntouched(t *testing.T) {
	pos := board.NewPosition()
	before := pos.ToFEN()
	NewEngine().Search(context.Background(), pos, SearchLimits{Depth: 3})
	if pos.ToFEN() != before || pos.Ply() != 0 {
		t.Errorf("position changed by search: %s ply %d", pos.ToFEN(), pos.Ply())
	}
}

func TestFindsMateInOne(t *testing.T) {
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w")
	for _, depth := range []int{2, 3} {
		res := NewEngine().Search(context.Background(), pos, SearchLimits{Depth: depth})
		if res.Move != board.NewMove(board.A1, board.A8, false, false) {
			t.Errorf("depth %d: best move %v, want a1a8", depth, res.Move)
		}
		if !IsMateScore(res.Score) {
			t.Errorf("depth %d: score %d is not a mate score", depth, res.Score)
		}
	}
}

func TestNoMoveWhenGameOver(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		wantScore int
	}{
		{"checkmated", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w", -(MateScore + 3)},
		{"stalemated", "7k/5Q2/6K1/8/8/8/8/8 b", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := NewEngine().Search(context.Background(), mustFEN(t, tc.fen), SearchLimits{Depth: 3})
			if res.Move != board.NoMove {
				t.Errorf("Move = %v, want NoMove", res.Move)
			}
			if res.Score != tc.wantScore {
				t.Errorf("Score = %d, want %d", res.Score, tc.wantScore)
			}
		})
	}
}

func TestCancelledSearchFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos := board.NewPosition()
	res := NewEngine().Search(ctx, pos, SearchLimits{Depth: 6})
	if res.Depth != 0 {
		t.Errorf("Depth = %d, want 0", res.Depth)
	}
	if res.Move != pos.LegalMoves()[0] {
		t.Errorf("Move = %v, want first legal move %v", res.Move, pos.LegalMoves()[0])
	}
}

func TestStopKeepsLastIteration(t *testing.T) {
	eng := NewEngine()
	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) {
		infos = append(infos, info)
		if info.Depth == 2 {
			eng.Stop()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := eng.Search(ctx, board.NewPosition(), SearchLimits{Infinite: true})

	if res.Depth != 2 {
		t.Errorf("Depth = %d, want 2", res.Depth)
	}
	if len(infos) != 2 || infos[0].Depth != 1 {
		t.Errorf("infos = %+v", infos)
	}
	if res.Move != infos[1].Move {
		t.Errorf("Move = %v, last info move = %v", res.Move, infos[1].Move)
	}
}

func TestMoveTimeReturnsInTime(t *testing.T) {
	start := time.Now()
	res := NewEngine().Search(context.Background(), board.NewPosition(), SearchLimits{MoveTime: 200 * time.Millisecond, Infinite: true})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("search took %v with a 200ms budget", elapsed)
	}
	if res.Move == board.NoMove {
		t.Error("no move returned")
	}
	t.Logf("reached depth %d, %d nodes", res.Depth, res.Nodes)
}

// dragontoothPerft counts the same tree with an independent generator.
// Under-promotions are skipped since pawns only promote to a queen here.
func dragontoothPerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var nodes uint64
	for _, m := range b.GenerateLegalMoves() {
		if p := m.Promote(); p != 0 && p != dragontoothmg.Queen {
			continue
		}
		unapply := b.Apply(m)
		nodes += dragontoothPerft(b, depth-1)
		unapply()
	}
	return nodes
}

func TestPerftMatchesDragontooth(t *testing.T) {
	// No castling rights, and depths stop before any en passant capture
	// becomes available.
	tests := []struct {
		fen   string
		depth int
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", 3},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w - - 0 1", 1},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 1},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w - - 1 8", 3},
		{"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N w - - 0 1", 3},
	}
	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			pos := mustFEN(t, tc.fen)
			pos.SetStrictLegality(true)
			oracle := dragontoothmg.ParseFen(tc.fen)

			for depth := 1; depth <= tc.depth; depth++ {
				want := dragontoothPerft(&oracle, depth)
				if got := Perft(pos, depth); got != want {
					t.Errorf("Perft(%d) = %d, want %d", depth, got, want)
				}
			}
		})
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{150, "1.50"},
		{-35, "-0.35"},
		{MateScore + 2, "Mate"},
		{-(MateScore + 1), "Mated"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
