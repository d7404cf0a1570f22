package board

// Polyglot Zobrist keys, distinct from our internal Zobrist keys, kept
// for compatibility with standard Polyglot opening books. Polyglot
// indexes squares and piece kinds with its own convention (a1=0,
// rank-major; black pawn=0..white king=11), independent of this
// package's A8=0 Square numbering and dense Piece encoding, so the
// conversion happens entirely in PolyglotHash rather than by reusing
// our own Square/Piece integer values.
var (
	polyglotPieces     [12][64]uint64 // [polyglot piece kind][polyglot square]
	polyglotCastling   [4]uint64      // [K, Q, k, q]
	polyglotEnPassant  [8]uint64      // [file]
	polyglotSideToMove uint64
)

func init() {
	initPolyglotKeys()
}

// polyglotPieceKind maps our (Color, PieceType) to Polyglot's piece kind index.
var polyglotPieceKind = [2][6]int{
	{6, 7, 8, 9, 10, 11}, // White: p,N,B,R,Q,K
	{0, 1, 2, 3, 4, 5},   // Black: p,N,B,R,Q,K
}

// PolyglotHash computes the Polyglot hash key for compatibility with opening books.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64

	for sq := A8; sq <= H1; sq++ {
		piece := p.PieceAt(sq)
		if piece == NoPiece {
			continue
		}
		kind := polyglotPieceKind[piece.Color()][piece.Type()]
		polyIdx := sq.Rank()*8 + sq.File()
		hash ^= polyglotPieces[kind][polyIdx]
	}

	if p.CastlingRights&WhiteKingSideCastle != 0 {
		hash ^= polyglotCastling[0]
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		hash ^= polyglotCastling[1]
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		hash ^= polyglotCastling[2]
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		hash ^= polyglotCastling[3]
	}

	if p.EnPassant != NoSquare {
		file := p.EnPassant.File()
		canCapture := false
		if p.SideToMove == White {
			if file > 0 && p.Pieces[WhitePawn]&SquareBB(NewSquare(file-1, 4)) != 0 {
				canCapture = true
			}
			if file < 7 && p.Pieces[WhitePawn]&SquareBB(NewSquare(file+1, 4)) != 0 {
				canCapture = true
			}
		} else {
			if file > 0 && p.Pieces[BlackPawn]&SquareBB(NewSquare(file-1, 3)) != 0 {
				canCapture = true
			}
			if file < 7 && p.Pieces[BlackPawn]&SquareBB(NewSquare(file+1, 3)) != 0 {
				canCapture = true
			}
		}
		if canCapture {
			hash ^= polyglotEnPassant[file]
		}
	}

	if p.SideToMove == White {
		hash ^= polyglotSideToMove
	}

	return hash
}

// initPolyglotKeys generates the 781 Polyglot random keys with the
// standard Polyglot PRNG seed.
func initPolyglotKeys() {
	var s uint64 = 0x37b4a4b3f0d1c0d0

	rng := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}

	for piece := 0; piece < 12; piece++ {
		for sq := 0; sq < 64; sq++ {
			polyglotPieces[piece][sq] = rng()
		}
	}
	for i := 0; i < 4; i++ {
		polyglotCastling[i] = rng()
	}
	for i := 0; i < 8; i++ {
		polyglotEnPassant[i] = rng()
	}
	polyglotSideToMove = rng()
}
