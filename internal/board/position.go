package board

import (
	"fmt"
	"strings"
)

// CastlingRights holds the four castling flags.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castleSpec describes one castling option in standard chess geometry.
type castleSpec struct {
	right        CastlingRights
	king, kingTo Square
	rook, rookTo Square
	empty, safe  Bitboard
}

var castleSpecs = [2][2]castleSpec{
	White: {
		{WhiteKingSide, E1, G1, H1, F1, SquareBB(F1) | SquareBB(G1), SquareBB(E1) | SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSide, E1, C1, A1, D1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(E1) | SquareBB(D1) | SquareBB(C1)},
	},
	Black: {
		{BlackKingSide, E8, G8, H8, F8, SquareBB(F8) | SquareBB(G8), SquareBB(E8) | SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSide, E8, C8, A8, D8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(E8) | SquareBB(D8) | SquareBB(C8)},
	},
}

// castlingMask[sq] is cleared from the rights whenever a piece leaves or lands on sq.
var castlingMask [64]CastlingRights

func init() {
	for sq := range castlingMask {
		castlingMask[sq] = AllCastling
	}
	castlingMask[E1] &^= WhiteKingSide | WhiteQueenSide
	castlingMask[H1] &^= WhiteKingSide
	castlingMask[A1] &^= WhiteQueenSide
	castlingMask[E8] &^= BlackKingSide | BlackQueenSide
	castlingMask[H8] &^= BlackKingSide
	castlingMask[A8] &^= BlackQueenSide
}

// Position is a mutable rescue chess board. Cargo[sq] is the type carried by
// the piece on sq (owned by that piece's color) or NoPieceType; Carriers mirrors
// the non-empty cargo slots as a bitboard.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	Cargo    [64]PieceType
	Carriers Bitboard

	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash       uint64
	KingSquare [2]Square
	Checkers   Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// emptyPosition is a board with no pieces, white to move.
func emptyPosition() *Position {
	p := &Position{EnPassant: NoSquare, FullMoveNumber: 1}
	for i := range p.Cargo {
		p.Cargo[i] = NoPieceType
	}
	p.KingSquare = [2]Square{NoSquare, NoSquare}
	return p
}

// Copy returns an independent clone.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// Equal reports whether two positions are identical field by field.
func (p *Position) Equal(o *Position) bool { return *p == *o }

// PieceAt returns the piece on sq or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// CargoAt returns the type carried by the piece on sq, or NoPieceType.
func (p *Position) CargoAt(sq Square) PieceType { return p.Cargo[sq] }

// IsEmpty reports whether no piece stands on sq.
func (p *Position) IsEmpty(sq Square) bool { return p.AllOccupied&SquareBB(sq) == 0 }

func (p *Position) putPiece(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Hash ^= zobristPiece[c][pt][sq]
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) takePiece(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Hash ^= zobristPiece[c][pt][sq]
	if pt == King && p.KingSquare[c] == sq {
		p.KingSquare[c] = NoSquare
	}
}

func (p *Position) shiftPiece(c Color, pt PieceType, from, to Square) {
	if from == to {
		return
	}
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	p.Hash ^= zobristPiece[c][pt][from] ^ zobristPiece[c][pt][to]
	if pt == King {
		p.KingSquare[c] = to
	}
}

// setCargo loads held onto the c-colored piece on sq. The slot must be empty.
func (p *Position) setCargo(c Color, sq Square, held PieceType) {
	p.Cargo[sq] = held
	p.Carriers |= SquareBB(sq)
	p.Hash ^= zobristCargo[c][held][sq]
}

// clearCargo empties the slot on sq and returns what was in it.
func (p *Position) clearCargo(c Color, sq Square) PieceType {
	held := p.Cargo[sq]
	if held == NoPieceType {
		return NoPieceType
	}
	p.Cargo[sq] = NoPieceType
	p.Carriers &^= SquareBB(sq)
	p.Hash ^= zobristCargo[c][held][sq]
	return held
}

// shiftCargo moves whatever the piece on from carries along to to.
func (p *Position) shiftCargo(c Color, from, to Square) {
	if held := p.clearCargo(c, from); held != NoPieceType {
		p.setCargo(c, to, held)
	}
}

// Material sums nominal piece values for c, cargo included, kings excluded.
func (p *Position) Material(c Color) int {
	total := 0
	for pt := Pawn; pt < King; pt++ {
		total += p.Pieces[c][pt].PopCount() * PieceValue[pt]
	}
	for bb := p.Carriers & p.Occupied[c]; bb != 0; {
		total += PieceValue[p.Cargo[bb.PopLSB()]]
	}
	return total
}

// HasNonPawnMaterial reports whether the side to move has a piece besides
// pawns and the king, on the board or in cargo.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	if p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0 {
		return true
	}
	for bb := p.Carriers & p.Occupied[us]; bb != 0; {
		if p.Cargo[bb.PopLSB()] != Pawn {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants a parsed position must satisfy.
func (p *Position) Validate() error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrMalformedNotation, c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawn on first or last rank", ErrMalformedNotation)
	}
	for sq := A1; sq <= H8; sq++ {
		held := p.Cargo[sq]
		if held == NoPieceType {
			continue
		}
		if p.IsEmpty(sq) {
			return fmt.Errorf("%w: cargo on empty square %s", ErrMalformedNotation, sq)
		}
		if held >= King {
			return fmt.Errorf("%w: king carried on %s", ErrMalformedNotation, sq)
		}
	}
	if p.InCheckColor(p.SideToMove.Other()) {
		return fmt.Errorf("%w: side not to move is in check", ErrMalformedNotation)
	}
	return nil
}

// NullUndo restores a null move.
type NullUndo struct {
	EnPassant Square
	Hash      uint64
	Checkers  Bitboard
}

// MakeNullMove passes the turn. Used by null-move pruning.
func (p *Position) MakeNullMove() NullUndo {
	u := NullUndo{EnPassant: p.EnPassant, Hash: p.Hash, Checkers: p.Checkers}
	p.Hash ^= p.enPassantKey()
	p.EnPassant = NoSquare
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristBlack
	p.updateCheckers()
	return u
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove(u NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.EnPassant
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// String draws the board with rank 8 on top. Carriers show their cargo in brackets.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			pc := p.PieceAt(sq)
			sb.WriteByte(' ')
			sb.WriteByte(pc.Char())
			if held := p.Cargo[sq]; held != NoPieceType {
				sb.WriteByte('[')
				sb.WriteByte(NewPiece(held, pc.Color()).Char())
				sb.WriteByte(']')
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a   b   c   d   e   f   g   h\n")
	fmt.Fprintf(&sb, "fen: %s\n", p.FEN())
	fmt.Fprintf(&sb, "key: %016x\n", p.Hash)
	return sb.String()
}
