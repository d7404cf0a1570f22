package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Both indexes Position.Occupancies for the union of both colors.
const Both = NoColor

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'n', 'b', 'r', 'q', 'k', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

// PieceValue returns the material value of the piece type in centipawns.
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece combines PieceType and Color densely into 0..11 so that the
// low bit is the color. This lets code iterate one side's pieces by
// stepping by 2 through a [12]T array: pieces[Pawn*2+side],
// pieces[Knight*2+side], and so on.
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn)*2 + Piece(White)
	BlackPawn   Piece = Piece(Pawn)*2 + Piece(Black)
	WhiteKnight Piece = Piece(Knight)*2 + Piece(White)
	BlackKnight Piece = Piece(Knight)*2 + Piece(Black)
	WhiteBishop Piece = Piece(Bishop)*2 + Piece(White)
	BlackBishop Piece = Piece(Bishop)*2 + Piece(Black)
	WhiteRook   Piece = Piece(Rook)*2 + Piece(White)
	BlackRook   Piece = Piece(Rook)*2 + Piece(Black)
	WhiteQueen  Piece = Piece(Queen)*2 + Piece(White)
	BlackQueen  Piece = Piece(Queen)*2 + Piece(Black)
	WhiteKing   Piece = Piece(King)*2 + Piece(White)
	BlackKing   Piece = Piece(King)*2 + Piece(Black)
	NoPiece     Piece = 12
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt)*2 + Piece(c)
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p >> 1)
}

// Color returns the Color of the piece: the low bit.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p & 1)
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	chars := "PpNnBbRrQqKk"
	return string(chars[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'p':
		return BlackPawn
	case 'N':
		return WhiteKnight
	case 'n':
		return BlackKnight
	case 'B':
		return WhiteBishop
	case 'b':
		return BlackBishop
	case 'R':
		return WhiteRook
	case 'r':
		return BlackRook
	case 'Q':
		return WhiteQueen
	case 'q':
		return BlackQueen
	case 'K':
		return WhiteKing
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

// Value returns the material value of the piece in centipawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
