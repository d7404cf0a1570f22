package board

// castlingLoss[sq] is the set of castling rights forfeited the moment
// a king or rook leaves (or is captured on) sq. Applying it to both
// the origin and destination square of every move, unconditionally,
// correctly handles king moves, rook moves, and rook captures in one
// rule.
var castlingLoss [64]CastlingRights

func init() {
	castlingLoss[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castlingLoss[A1] = WhiteQueenSideCastle
	castlingLoss[H1] = WhiteKingSideCastle
	castlingLoss[E8] = BlackKingSideCastle | BlackQueenSideCastle
	castlingLoss[A8] = BlackQueenSideCastle
	castlingLoss[H8] = BlackKingSideCastle
}

// castleRookSquares returns the rook's from/to squares for a king move
// to `to` made by color us. Only valid when the move is a castle.
func castleRookSquares(us Color, to Square) (from, to2 Square) {
	if us == White {
		if to == G1 {
			return H1, F1
		}
		return A1, D1
	}
	if to == G8 {
		return H8, F8
	}
	return A8, D8
}

// enPassantCapturedSquare returns the square of the pawn captured by
// an en-passant move with destination `to` made by the pawn now
// sitting on `from`'s rank before the move (the captured pawn shares
// to's file and from's rank).
func enPassantCapturedSquare(from, to Square) Square {
	return NewSquare(to.File(), from.Rank())
}

// Make applies m, updating every field of §3's Board model and the
// Zobrist hash incrementally, and pushes onto the history stack
// exactly what Unmake needs to reverse it.
func (p *Position) Make(m Move) {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := m.Piece()
	captured := m.Captured()

	p.history = append(p.history, UndoInfo{
		CapturedPiece:  captured,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
	})

	hash := p.Hash
	pawnKey := p.PawnKey

	if m.IsEnPassant() {
		capSq := enPassantCapturedSquare(from, to)
		capturedPawn := p.removePiece(capSq)
		hash ^= ZobristPiece(capturedPawn, capSq)
		pawnKey ^= ZobristPiece(capturedPawn, capSq)
	} else if captured != NoPiece {
		p.removePiece(to)
		hash ^= ZobristPiece(captured, to)
		if captured.Type() == Pawn {
			pawnKey ^= ZobristPiece(captured, to)
		}
	}

	p.removePiece(from)
	hash ^= ZobristPiece(piece, from)
	if piece.Type() == Pawn {
		pawnKey ^= ZobristPiece(piece, from)
	}

	finalPiece := piece
	if m.IsPromotion() {
		finalPiece = NewPiece(m.Promotion(), us)
	}
	p.setPiece(finalPiece, to)
	hash ^= ZobristPiece(finalPiece, to)
	if finalPiece.Type() == Pawn {
		pawnKey ^= ZobristPiece(finalPiece, to)
	}

	if m.IsCastle() {
		rookFrom, rookTo := castleRookSquares(us, to)
		rook := p.removePiece(rookFrom)
		hash ^= ZobristPiece(rook, rookFrom)
		p.setPiece(rook, rookTo)
		hash ^= ZobristPiece(rook, rookTo)
	}

	newCR := p.CastlingRights &^ (castlingLoss[from] | castlingLoss[to])
	if newCR != p.CastlingRights {
		hash ^= ZobristCastling(p.CastlingRights)
		hash ^= ZobristCastling(newCR)
		p.CastlingRights = newCR
	}

	if p.EnPassant != NoSquare {
		hash ^= ZobristEnPassant(p.EnPassant.File())
	}
	if m.IsDoublePush() {
		ep := NewSquare(from.File(), (from.Rank()+to.Rank())/2)
		p.EnPassant = ep
		hash ^= ZobristEnPassant(ep.File())
	} else {
		p.EnPassant = NoSquare
	}

	p.SideToMove = them
	hash ^= ZobristSideToMove()

	if piece.Type() == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.Hash = hash
	p.PawnKey = pawnKey

	p.UpdateCheckers()
}

// Unmake reverses the most recent Make(m). Post-condition: the
// position is bit-for-bit equal to its pre-Make state.
func (p *Position) Unmake(m Move) {
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	from, to := m.From(), m.To()

	if m.IsCastle() {
		rookFrom, rookTo := castleRookSquares(us, to)
		p.movePiece(rookTo, rookFrom)
	}

	p.removePiece(to)
	p.setPiece(m.Piece(), from)

	if m.IsEnPassant() {
		capSq := enPassantCapturedSquare(from, to)
		p.setPiece(m.Captured(), capSq)
	} else if m.Captured() != NoPiece {
		p.setPiece(m.Captured(), to)
	}

	n := len(p.history) - 1
	undo := p.history[n]
	p.history = p.history[:n]

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey

	if us == Black {
		p.FullMoveNumber--
	}

	p.UpdateCheckers()
}
