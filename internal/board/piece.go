package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Other returns the opponent.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

// PieceType is the kind of piece regardless of color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

const pieceLetters = "pnbrqk"

// Char is the lowercase FEN letter of the type, or '-' for NoPieceType.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return '-'
	}
	return pieceLetters[pt]
}

func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// PieceTypeFromChar maps a FEN letter of either case to its type.
func PieceTypeFromChar(c byte) PieceType {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	for i := 0; i < len(pieceLetters); i++ {
		if pieceLetters[i] == c {
			return PieceType(i)
		}
	}
	return NoPieceType
}

// PromotionTypes lists promotion choices in the order the generator emits them.
var PromotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}

// PieceValue is the nominal material value in centipawns, indexed by type.
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece packs a type and a color as type + 6*color.
type Piece uint8

// NoPiece marks an empty square.
const NoPiece Piece = 12

// NewPiece combines a type and a color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + 6*Piece(c)
}

// Type returns the piece's type.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the piece's color.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// Char is the FEN letter: uppercase for white, lowercase for black.
func (p Piece) Char() byte {
	if p >= NoPiece {
		return '.'
	}
	c := p.Type().Char()
	if p.Color() == White {
		c -= 'a' - 'A'
	}
	return c
}

func (p Piece) String() string { return string(p.Char()) }

// PieceFromChar parses a FEN letter, returning NoPiece for anything else.
func PieceFromChar(c byte) Piece {
	pt := PieceTypeFromChar(c)
	if pt == NoPieceType {
		return NoPiece
	}
	if c >= 'a' && c <= 'z' {
		return NewPiece(pt, Black)
	}
	return NewPiece(pt, White)
}
