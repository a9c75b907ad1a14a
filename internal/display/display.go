// Package display renders positions for people: a colored board with the
// last move, capturable pieces and a checked king highlighted.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hailam/negachess/internal/board"
)

var (
	whitePiece = color.New(color.FgHiWhite, color.Bold)
	blackPiece = color.New(color.FgHiBlue, color.Bold)
	lastMove   = color.New(color.BgYellow, color.FgBlack)
	target     = color.New(color.FgRed, color.Bold)
	checked    = color.New(color.BgRed, color.FgHiWhite, color.Bold)
	dim        = color.New(color.Faint)
)

// Render writes pos to w, rank 8 first. Pieces the side to move can capture
// are red; the squares of the last move have a yellow background; a king in
// check has a red background. Set color.NoColor to get plain text.
func Render(w io.Writer, pos *board.Position) error {
	_, err := io.WriteString(w, RenderString(pos))
	return err
}

// RenderString is Render into a string.
func RenderString(pos *board.Position) string {
	var captures board.Bitboard
	for _, m := range pos.LegalMoves() {
		if m.IsCapture() {
			captures = captures.Set(m.To())
		}
	}

	var moved board.Bitboard
	if h := pos.History(); len(h) > 0 {
		last := h[len(h)-1].Move
		moved = board.SquareBB(last.From()) | board.SquareBB(last.To())
	}

	us := pos.SideToMove()
	var kingInCheck board.Bitboard
	if pos.InCheck() {
		kingInCheck = pos.Side(us).Pieces[board.King]
	}

	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(dim.Sprintf("%d ", rank+1))
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			sb.WriteString(cell(pos.PieceAt(sq), sq, captures, moved, kingInCheck))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(dim.Sprint("  a b c d e f g h"))
	sb.WriteByte('\n')
	sb.WriteString(Footer(pos))
	sb.WriteByte('\n')
	return sb.String()
}

func cell(p board.Piece, sq board.Square, captures, moved, kingInCheck board.Bitboard) string {
	text := "."
	if p != board.NoPiece {
		text = p.String()
	}

	switch {
	case kingInCheck.IsSet(sq):
		return checked.Sprint(text)
	case p != board.NoPiece && captures.IsSet(sq):
		return target.Sprint(text)
	case moved.IsSet(sq):
		return lastMove.Sprint(text)
	case p == board.NoPiece:
		return dim.Sprint(text)
	case p.Color() == board.White:
		return whitePiece.Sprint(text)
	default:
		return blackPiece.Sprint(text)
	}
}

// Footer describes whose turn it is and any terminal state.
func Footer(pos *board.Position) string {
	us := pos.SideToMove()
	st := pos.Status(us)
	switch {
	case st.Checkmate:
		return fmt.Sprintf("%s is checkmated, %s wins", us, us.Other())
	case st.Stalemate:
		return fmt.Sprintf("%s is stalemated", us)
	case st.Check:
		return fmt.Sprintf("%s to move, in check", us)
	default:
		return fmt.Sprintf("%s to move", us)
	}
}
