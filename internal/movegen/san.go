package movegen

import (
	"strings"

	"github.com/hailam/chessplay/internal/board"
)

// ToSAN converts a move to Standard Algebraic Notation relative to pos
// (the position the move is about to be played from).
func ToSAN(pos *board.Position, m board.Move) string {
	if m == board.NoMove {
		return "-"
	}

	from := m.From()
	to := m.To()
	piece := pos.PieceAt(from)
	if piece == board.NoPiece {
		return m.String()
	}

	if m.IsCastle() {
		if to.File() > from.File() {
			return sanSuffix(pos, m, "O-O")
		}
		return sanSuffix(pos, m, "O-O-O")
	}

	var sb strings.Builder
	pt := piece.Type()

	if pt != board.Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(disambiguation(pos, m, pt))
	}

	if m.IsCapture() {
		if pt == board.Pawn {
			sb.WriteByte('a' + byte(from.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(to.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion()])
	}

	return sanSuffix(pos, m, sb.String())
}

// sanSuffix appends the check/checkmate marker after simulating m.
func sanSuffix(pos *board.Position, m board.Move, s string) string {
	next := pos.Copy()
	next.Make(m)
	if IsCheckmate(next) {
		return s + "#"
	}
	if next.InCheck() {
		return s + "+"
	}
	return s
}

// disambiguation returns the minimal file/rank/both prefix needed to
// distinguish m from other legal moves of the same piece type landing
// on the same square.
func disambiguation(pos *board.Position, m board.Move, pt board.PieceType) string {
	from := m.From()
	to := m.To()
	us := pos.SideToMove
	sameTypeBB := pos.Pieces[board.NewPiece(pt, us)]

	var candidates []board.Square
	legal := Legal(pos)
	for i := 0; i < legal.Len(); i++ {
		other := legal.Get(i)
		if other.To() != to || other.From() == from {
			continue
		}
		if sameTypeBB.IsSet(other.From()) {
			candidates = append(candidates, other.From())
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == from.File() {
			sameFile = true
		}
		if sq.Rank() == from.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + from.File()))
	}
	if !sameRank {
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// ParseSAN parses a SAN string into the matching legal move in pos.
func ParseSAN(s string, pos *board.Position) (board.Move, error) {
	s = strings.TrimSpace(s)

	if s == "O-O" || s == "0-0" {
		return findCastle(pos, true)
	}
	if s == "O-O-O" || s == "0-0-0" {
		return findCastle(pos, false)
	}

	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSuffix(s, "#")

	promo := board.NoPieceType
	if idx := strings.Index(s, "="); idx >= 0 {
		switch s[idx+1] {
		case 'N':
			promo = board.Knight
		case 'B':
			promo = board.Bishop
		case 'R':
			promo = board.Rook
		case 'Q':
			promo = board.Queen
		}
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := board.Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = board.Knight
		case 'B':
			pt = board.Bishop
		case 'R':
			pt = board.Rook
		case 'Q':
			pt = board.Queen
		case 'K':
			pt = board.King
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return board.NoMove, nil
	}
	dest, err := board.ParseSquare(s[len(s)-2:])
	if err != nil {
		return board.NoMove, err
	}
	s = s[:len(s)-2]

	disambigFile, disambigRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			disambigFile = int(c - 'a')
		case c >= '1' && c <= '8':
			disambigRank = int(c - '1')
		}
	}

	legal := Legal(pos)
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.To() != dest {
			continue
		}
		from := m.From()
		if pos.PieceAt(from).Type() != pt {
			continue
		}
		if disambigFile >= 0 && from.File() != disambigFile {
			continue
		}
		if disambigRank >= 0 && from.Rank() != disambigRank {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if promo != board.NoPieceType && m.Promotion() != promo {
			continue
		}
		return m, nil
	}

	return board.NoMove, nil
}

func findCastle(pos *board.Position, kingSide bool) (board.Move, error) {
	legal := Legal(pos)
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if !m.IsCastle() {
			continue
		}
		isKingSide := m.To().File() > m.From().File()
		if isKingSide == kingSide {
			return m, nil
		}
	}
	return board.NoMove, nil
}

// MovesToSAN renders a sequence of moves, played in order from pos, as SAN.
func MovesToSAN(pos *board.Position, moves []board.Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()
	for i, m := range moves {
		result[i] = ToSAN(p, m)
		p.Make(m)
	}
	return result
}
