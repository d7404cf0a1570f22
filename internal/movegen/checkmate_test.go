package movegen

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestCheckmate(t *testing.T) {
	// White: Ka1, Ra8. Black: Kh8, pawns on g7/h7 block the escape
	// squares; black to move is already mated.
	pos, err := board.ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	pos.UpdateCheckers()
	if !pos.InCheck() {
		t.Fatal("expected side to move to be in check")
	}

	if !IsCheckmate(pos) {
		t.Error("expected checkmate but got false")
	}
}

func TestNotCheckmate(t *testing.T) {
	// Black king on h8 can capture the checking rook on g8.
	pos, err := board.ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	pos.UpdateCheckers()

	if IsCheckmate(pos) {
		t.Error("expected not checkmate but got true")
	}
}

func TestStalemate(t *testing.T) {
	// Classic stalemate: black king on a8 boxed in, not in check.
	pos, err := board.ParseFEN("k7/8/1Q6/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	pos.UpdateCheckers()

	if pos.InCheck() {
		t.Fatal("expected side to move not in check")
	}
	if !IsStalemate(pos) {
		t.Error("expected stalemate but got false")
	}
	if IsCheckmate(pos) {
		t.Error("stalemate must not also report as checkmate")
	}
}
