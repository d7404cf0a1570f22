package board

import "fmt"

// Move encodes a chess move as a packed 32-bit integer:
//
//	bits 0-5:   from square (0-63)
//	bits 6-11:  to square (0-63)
//	bits 12-15: moving piece (dense Piece encoding, 0-11)
//	bits 16-19: captured piece, or NoPiece (12) if none
//	bits 20-23: promotion piece type, or NoPieceType (6) if none
//	bits 24-26: flags (bit0=double pawn push, bit1=en passant, bit2=castle)
type Move uint32

const (
	moveFromShift     = 0
	moveToShift       = 6
	movePieceShift    = 12
	moveCapturedShift = 16
	movePromoShift    = 20
	moveFlagsShift    = 24

	moveSquareMask = 0x3F
	movePieceMask  = 0xF
	movePromoMask  = 0xF
	moveFlagsMask  = 0x7
)

// Move flag bits. Several may never combine (castle is never a capture
// or a double push), but they are independent bits rather than an
// exclusive enum because a promotion-capture must be representable
// purely through the captured-piece field alongside the promo field.
const (
	FlagNone       uint8 = 0
	FlagDoublePush uint8 = 1 << 0
	FlagEnPassant  uint8 = 1 << 1
	FlagCastle     uint8 = 1 << 2
)

// NoMove represents an invalid or null move. A real move never has
// from==to==A8 with piece==WhitePawn, so the zero value is safe.
const NoMove Move = 0

// NewMove packs a move's full field set into the opaque integer.
func NewMove(from, to Square, piece, captured Piece, promo PieceType, flags uint8) Move {
	if captured == NoPiece {
		captured = 12
	}
	if promo == NoPieceType {
		promo = 6
	}
	return Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(piece)<<movePieceShift |
		Move(captured)<<moveCapturedShift |
		Move(promo)<<movePromoShift |
		Move(flags)<<moveFlagsShift
}

// NewQuiet builds a non-capturing, non-promoting move.
func NewQuiet(from, to Square, piece Piece) Move {
	return NewMove(from, to, piece, NoPiece, NoPieceType, FlagNone)
}

// NewCapture builds a capturing move.
func NewCapture(from, to Square, piece, captured Piece) Move {
	return NewMove(from, to, piece, captured, NoPieceType, FlagNone)
}

// NewDoublePush builds a two-square pawn push.
func NewDoublePush(from, to Square, piece Piece) Move {
	return NewMove(from, to, piece, NoPiece, NoPieceType, FlagDoublePush)
}

// NewPromotion builds a (possibly capturing) promotion move.
func NewPromotion(from, to Square, piece, captured Piece, promo PieceType) Move {
	return NewMove(from, to, piece, captured, promo, FlagNone)
}

// NewEnPassant builds an en-passant capture; captured is always the
// opposing pawn, never the piece sitting on the destination square.
func NewEnPassant(from, to Square, piece, capturedPawn Piece) Move {
	return NewMove(from, to, piece, capturedPawn, NoPieceType, FlagEnPassant)
}

// NewCastle builds a castling move (the king's from/to squares only;
// make/unmake relocates the rook separately).
func NewCastle(from, to Square, king Piece) Move {
	return NewMove(from, to, king, NoPiece, NoPieceType, FlagCastle)
}

func (m Move) From() Square { return Square((m >> moveFromShift) & moveSquareMask) }
func (m Move) To() Square   { return Square((m >> moveToShift) & moveSquareMask) }

// Piece returns the moving piece.
func (m Move) Piece() Piece { return Piece((m >> movePieceShift) & movePieceMask) }

// Captured returns the captured piece, or NoPiece if this move does not capture.
func (m Move) Captured() Piece {
	c := Piece((m >> moveCapturedShift) & movePieceMask)
	if c == 12 {
		return NoPiece
	}
	return c
}

// Promotion returns the promotion piece type, or NoPieceType if this move does not promote.
func (m Move) Promotion() PieceType {
	p := PieceType((m >> movePromoShift) & movePromoMask)
	if p == 6 {
		return NoPieceType
	}
	return p
}

func (m Move) flags() uint8 { return uint8((m >> moveFlagsShift) & moveFlagsMask) }

func (m Move) IsDoublePush() bool { return m.flags()&FlagDoublePush != 0 }
func (m Move) IsEnPassant() bool  { return m.flags()&FlagEnPassant != 0 }
func (m Move) IsCastle() bool     { return m.flags()&FlagCastle != 0 }
func (m Move) IsPromotion() bool  { return m.Promotion() != NoPieceType }
func (m Move) IsCapture() bool    { return m.Captured() != NoPiece }

// IsTactical returns true for captures and promotions — the subset
// quiescence search considers and the ordering scheme buckets above quiets.
func (m Move) IsTactical() bool { return m.IsCapture() || m.IsPromotion() }

// IsQuiet returns true for moves that neither capture nor promote.
func (m Move) IsQuiet() bool { return !m.IsTactical() }

// String returns the UCI long-algebraic form (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := map[PieceType]byte{Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q'}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a UCI long-algebraic move string against pos to
// recover the full packed encoding (piece/captured/flags are not part
// of the wire format and must be resolved from the position).
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()

	var promo PieceType = NoPieceType
	if len(s) >= 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastle(from, to, piece), nil
	}

	if pt == Pawn && to == pos.EnPassant && pos.IsEmpty(to) {
		capturedPawn := NewPiece(Pawn, pos.SideToMove.Other())
		return NewEnPassant(from, to, piece, capturedPawn), nil
	}

	captured := pos.PieceAt(to)
	if promo != NoPieceType {
		return NewPromotion(from, to, piece, captured, promo), nil
	}

	if pt == Pawn && abs(to.Rank()-from.Rank()) == 2 {
		return NewDoublePush(from, to, piece), nil
	}

	if captured != NoPiece {
		return NewCapture(from, to, piece, captured), nil
	}

	return NewQuiet(from, to, piece), nil
}

// MoveList is a bounded (move, score) sequence with a live count; it
// never allocates on the search hot path.
type MoveList struct {
	moves  [256]Move
	scores [256]int32
	count  int
}

func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move with an initial score of 0 (to be filled in by ordering).
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.scores[ml.count] = 0
	ml.count++
}

func (ml *MoveList) Len() int { return ml.count }

func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }

func (ml *MoveList) Score(i int) int32 { return ml.scores[i] }

func (ml *MoveList) SetScore(i int, s int32) { ml.scores[i] = s }

func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
	ml.scores[i], ml.scores[j] = ml.scores[j], ml.scores[i]
}

func (ml *MoveList) Clear() { ml.count = 0 }

func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// PickMove performs one incremental selection-sort step: it finds the
// highest-scored move in [from, count), swaps it into index from, and
// returns it. Most nodes only need the first 1-3 moves, so this beats
// a full sort in the common case.
func (ml *MoveList) PickMove(from int) Move {
	best := from
	for i := from + 1; i < ml.count; i++ {
		if ml.scores[i] > ml.scores[best] {
			best = i
		}
	}
	ml.Swap(from, best)
	return ml.moves[from]
}

// UndoInfo holds exactly what Unmake needs to reverse one Make: the
// prior castling mask, EP square, captured piece, halfmove counter,
// and zobrist/pawn keys. Piece placement is reversed by replaying the
// inverse of each incremental update Make performed, not by snapshot.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
}
