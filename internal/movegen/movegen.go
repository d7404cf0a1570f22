// Package movegen generates pseudo-legal and legal moves for a board.Position.
package movegen

import "github.com/hailam/chessplay/internal/board"

// pawnDeltas holds the from->to square deltas for a single pawn push
// and its two diagonal captures, for one color. Board.North is a
// negative index delta (A8=0 at the top), so white's deltas are
// negative and black's are positive.
type pawnDeltas struct {
	push, captureLeft, captureRight int
}

var pawnDeltasByColor = [2]pawnDeltas{
	board.White: {push: -8, captureLeft: -9, captureRight: -7},
	board.Black: {push: 8, captureLeft: 7, captureRight: 9},
}

// Pseudo generates every pseudo-legal move: it may leave the side to
// move's own king in check.
func Pseudo(pos *board.Position) *board.MoveList {
	ml := board.NewMoveList()
	genPawns(pos, ml, false)
	genKnights(pos, ml, false)
	genBishops(pos, ml, false)
	genRooks(pos, ml, false)
	genQueens(pos, ml, false)
	genKing(pos, ml, false)
	genCastles(pos, ml)
	return ml
}

// Captures generates tactical moves only: captures, en passant, and
// every promotion (including non-capturing push promotions). This is
// the move set quiescence search walks.
func Captures(pos *board.Position) *board.MoveList {
	ml := board.NewMoveList()
	genPawns(pos, ml, true)
	genKnights(pos, ml, true)
	genBishops(pos, ml, true)
	genRooks(pos, ml, true)
	genQueens(pos, ml, true)
	genKing(pos, ml, true)
	return ml
}

// Legal generates every legal move: Pseudo filtered through the
// pin-aware legality check.
func Legal(pos *board.Position) *board.MoveList {
	pseudo := Pseudo(pos)
	pinned := pos.ComputePinned()
	legal := board.NewMoveList()
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if isLegal(pos, pinned, m) {
			legal.Add(m)
		}
	}
	return legal
}

// LegalCaptures generates every legal tactical move: Captures filtered
// through the same pin-aware legality check as Legal. Quiescence search
// walks this instead of Captures so it never explores a move that
// leaves its own king in check.
func LegalCaptures(pos *board.Position) *board.MoveList {
	pseudo := Captures(pos)
	pinned := pos.ComputePinned()
	legal := board.NewMoveList()
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if isLegal(pos, pinned, m) {
			legal.Add(m)
		}
	}
	return legal
}

// isLegal checks one pseudo-legal move against the side to move's own
// king safety. Three tiers, cheapest first: king moves are checked
// directly against the vacated occupancy; moves of non-pinned pieces
// when not in check are legal unconditionally; a pinned piece (when
// not in check) is legal only if it stays on the line through its king;
// an en-passant capture or any move while in check is resolved by
// actually making the move and testing for check, since those cases
// are rare enough that simulating is cheaper than reasoning about them
// in closed form.
func isLegal(pos *board.Position, pinned board.Bitboard, m board.Move) bool {
	us := pos.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	if m.Piece().Type() == board.King {
		if m.IsCastle() {
			return true // squares already vetted during generation
		}
		occ := pos.Occupancies[board.Both] &^ board.SquareBB(from)
		return pos.AttackersByColor(to, them, occ) == 0
	}

	if m.IsEnPassant() || pos.InCheck() {
		return simulateLegal(pos, m)
	}

	if pinned.IsSet(from) {
		return board.Aligned(from, pos.KingSquare[us], to)
	}

	return true
}

func simulateLegal(pos *board.Position, m board.Move) bool {
	us := pos.SideToMove
	ksq := pos.KingSquare[us]
	pos.Make(m)
	safe := !pos.IsSquareAttacked(ksq, pos.SideToMove)
	pos.Unmake(m)
	return safe
}

func genPawns(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	us := pos.SideToMove
	them := us.Other()
	ownPawn := board.NewPiece(board.Pawn, us)
	pawns := pos.Pieces[ownPawn]
	occ := pos.Occupancies[board.Both]
	enemies := pos.Occupancies[them]
	d := pawnDeltasByColor[us]

	var promoRank, doublePushRank board.Bitboard
	var capL, capR board.Bitboard
	if us == board.White {
		promoRank = board.Rank8
		doublePushRank = board.Rank3
		capL = pawns.NorthWest() & enemies
		capR = pawns.NorthEast() & enemies
	} else {
		promoRank = board.Rank1
		doublePushRank = board.Rank6
		capL = pawns.SouthWest() & enemies
		capR = pawns.SouthEast() & enemies
	}

	if !capturesOnly {
		var push1 board.Bitboard
		if us == board.White {
			push1 = pawns.North() &^ occ
		} else {
			push1 = pawns.South() &^ occ
		}
		quietPush := push1 &^ promoRank
		for quietPush != 0 {
			to := quietPush.PopLSB()
			from := board.Square(int(to) - d.push)
			ml.Add(board.NewQuiet(from, to, ownPawn))
		}

		var push2 board.Bitboard
		if us == board.White {
			push2 = ((push1 & doublePushRank).North()) &^ occ
		} else {
			push2 = ((push1 & doublePushRank).South()) &^ occ
		}
		for push2 != 0 {
			to := push2.PopLSB()
			from := board.Square(int(to) - 2*d.push)
			ml.Add(board.NewDoublePush(from, to, ownPawn))
		}
	}

	quietCapL := capL &^ promoRank
	for quietCapL != 0 {
		to := quietCapL.PopLSB()
		from := board.Square(int(to) - d.captureLeft)
		ml.Add(board.NewCapture(from, to, ownPawn, pos.PieceAt(to)))
	}
	quietCapR := capR &^ promoRank
	for quietCapR != 0 {
		to := quietCapR.PopLSB()
		from := board.Square(int(to) - d.captureRight)
		ml.Add(board.NewCapture(from, to, ownPawn, pos.PieceAt(to)))
	}

	// Push promotions are tactical and generated regardless of capturesOnly.
	var push1ForPromo board.Bitboard
	if us == board.White {
		push1ForPromo = pawns.North() &^ occ
	} else {
		push1ForPromo = pawns.South() &^ occ
	}
	promoPush := push1ForPromo & promoRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := board.Square(int(to) - d.push)
		addPromotions(ml, from, to, ownPawn, board.NoPiece)
	}

	promoL := capL & promoRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := board.Square(int(to) - d.captureLeft)
		addPromotions(ml, from, to, ownPawn, pos.PieceAt(to))
	}
	promoR := capR & promoRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := board.Square(int(to) - d.captureRight)
		addPromotions(ml, from, to, ownPawn, pos.PieceAt(to))
	}

	if pos.EnPassant != board.NoSquare {
		epBB := board.SquareBB(pos.EnPassant)
		var attackers board.Bitboard
		if us == board.White {
			attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		capturedPawn := board.NewPiece(board.Pawn, them)
		for attackers != 0 {
			from := attackers.PopLSB()
			ml.Add(board.NewEnPassant(from, pos.EnPassant, ownPawn, capturedPawn))
		}
	}
}

func addPromotions(ml *board.MoveList, from, to board.Square, piece, captured board.Piece) {
	ml.Add(board.NewPromotion(from, to, piece, captured, board.Queen))
	ml.Add(board.NewPromotion(from, to, piece, captured, board.Rook))
	ml.Add(board.NewPromotion(from, to, piece, captured, board.Bishop))
	ml.Add(board.NewPromotion(from, to, piece, captured, board.Knight))
}

func genKnights(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	us := pos.SideToMove
	piece := board.NewPiece(board.Knight, us)
	knights := pos.Pieces[piece]
	target := targetMask(pos, capturesOnly)
	for knights != 0 {
		from := knights.PopLSB()
		attacks := board.KnightAttacks(from) & target
		addStepMoves(pos, ml, from, piece, attacks)
	}
}

func genKing(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	us := pos.SideToMove
	piece := board.NewPiece(board.King, us)
	from := pos.KingSquare[us]
	attacks := board.KingAttacks(from) & targetMask(pos, capturesOnly)
	addStepMoves(pos, ml, from, piece, attacks)
}

func genBishops(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	genSliders(pos, ml, board.Bishop, capturesOnly, board.BishopAttacks)
}

func genRooks(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	genSliders(pos, ml, board.Rook, capturesOnly, board.RookAttacks)
}

func genQueens(pos *board.Position, ml *board.MoveList, capturesOnly bool) {
	genSliders(pos, ml, board.Queen, capturesOnly, board.QueenAttacks)
}

func genSliders(pos *board.Position, ml *board.MoveList, pt board.PieceType, capturesOnly bool, attacksFn func(board.Square, board.Bitboard) board.Bitboard) {
	us := pos.SideToMove
	piece := board.NewPiece(pt, us)
	sliders := pos.Pieces[piece]
	occ := pos.Occupancies[board.Both]
	target := targetMask(pos, capturesOnly)
	for sliders != 0 {
		from := sliders.PopLSB()
		attacks := attacksFn(from, occ) & target
		addStepMoves(pos, ml, from, piece, attacks)
	}
}

// targetMask returns the squares a move may land on: enemy-occupied
// only for tactical generation, everything but our own pieces otherwise.
func targetMask(pos *board.Position, capturesOnly bool) board.Bitboard {
	us := pos.SideToMove
	if capturesOnly {
		return pos.Occupancies[us.Other()]
	}
	return ^pos.Occupancies[us]
}

func addStepMoves(pos *board.Position, ml *board.MoveList, from board.Square, piece board.Piece, targets board.Bitboard) {
	for targets != 0 {
		to := targets.PopLSB()
		captured := pos.PieceAt(to)
		if captured == board.NoPiece {
			ml.Add(board.NewQuiet(from, to, piece))
		} else {
			ml.Add(board.NewCapture(from, to, piece, captured))
		}
	}
}

func genCastles(pos *board.Position, ml *board.MoveList) {
	us := pos.SideToMove
	them := us.Other()
	occ := pos.Occupancies[board.Both]

	if us == board.White {
		if pos.CastlingRights&board.WhiteKingSideCastle != 0 &&
			occ&(board.SquareBB(board.F1)|board.SquareBB(board.G1)) == 0 &&
			!pos.IsSquareAttacked(board.E1, them) && !pos.IsSquareAttacked(board.F1, them) && !pos.IsSquareAttacked(board.G1, them) {
			ml.Add(board.NewCastle(board.E1, board.G1, board.WhiteKing))
		}
		if pos.CastlingRights&board.WhiteQueenSideCastle != 0 &&
			occ&(board.SquareBB(board.B1)|board.SquareBB(board.C1)|board.SquareBB(board.D1)) == 0 &&
			!pos.IsSquareAttacked(board.E1, them) && !pos.IsSquareAttacked(board.D1, them) && !pos.IsSquareAttacked(board.C1, them) {
			ml.Add(board.NewCastle(board.E1, board.C1, board.WhiteKing))
		}
		return
	}

	if pos.CastlingRights&board.BlackKingSideCastle != 0 &&
		occ&(board.SquareBB(board.F8)|board.SquareBB(board.G8)) == 0 &&
		!pos.IsSquareAttacked(board.E8, them) && !pos.IsSquareAttacked(board.F8, them) && !pos.IsSquareAttacked(board.G8, them) {
		ml.Add(board.NewCastle(board.E8, board.G8, board.BlackKing))
	}
	if pos.CastlingRights&board.BlackQueenSideCastle != 0 &&
		occ&(board.SquareBB(board.B8)|board.SquareBB(board.C8)|board.SquareBB(board.D8)) == 0 &&
		!pos.IsSquareAttacked(board.E8, them) && !pos.IsSquareAttacked(board.D8, them) && !pos.IsSquareAttacked(board.C8, them) {
		ml.Add(board.NewCastle(board.E8, board.C8, board.BlackKing))
	}
}

// HasLegalMoves reports whether the side to move has any legal move,
// short-circuiting on the first one found.
func HasLegalMoves(pos *board.Position) bool {
	pseudo := Pseudo(pos)
	pinned := pos.ComputePinned()
	for i := 0; i < pseudo.Len(); i++ {
		if isLegal(pos, pinned, pseudo.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is in check with no legal reply.
func IsCheckmate(pos *board.Position) bool {
	return pos.InCheck() && !HasLegalMoves(pos)
}

// IsStalemate reports whether the side to move is not in check but has no legal move.
func IsStalemate(pos *board.Position) bool {
	return !pos.InCheck() && !HasLegalMoves(pos)
}

// IsInsufficientMaterial reports whether neither side retains enough
// material to force checkmate (KvK, KNvK, KBvK).
func IsInsufficientMaterial(pos *board.Position) bool {
	if pos.Pieces[board.WhitePawn]|pos.Pieces[board.BlackPawn] != 0 {
		return false
	}
	if pos.Pieces[board.WhiteRook]|pos.Pieces[board.BlackRook] != 0 {
		return false
	}
	if pos.Pieces[board.WhiteQueen]|pos.Pieces[board.BlackQueen] != 0 {
		return false
	}

	wMinors := pos.Pieces[board.WhiteKnight].PopCount() + pos.Pieces[board.WhiteBishop].PopCount()
	bMinors := pos.Pieces[board.BlackKnight].PopCount() + pos.Pieces[board.BlackBishop].PopCount()

	if wMinors == 0 && bMinors == 0 {
		return true
	}
	if wMinors <= 1 && bMinors == 0 {
		return true
	}
	if bMinors <= 1 && wMinors == 0 {
		return true
	}
	return false
}

// IsDraw reports whether the position is drawn by stalemate, the
// fifty-move rule, or insufficient material. Threefold repetition is
// checked separately via Position.Repeats, since it requires the
// search's path rather than static position state.
func IsDraw(pos *board.Position) bool {
	if pos.HalfMoveClock >= 100 {
		return true
	}
	if IsInsufficientMaterial(pos) {
		return true
	}
	return IsStalemate(pos)
}
