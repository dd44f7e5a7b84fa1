package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position. Rescue chess starts from the
// same layout with no cargo.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses an extended FEN string. A carried piece follows its holder
// as "x" plus its letter in the holder's case: "NxR" is a white knight holding
// a rook, "bxp" a black bishop holding a pawn. The halfmove and fullmove fields
// are optional.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fmt.Errorf("%w: need 4 to 6 FEN fields, got %d", ErrMalformedNotation, len(parts))
	}

	pos := emptyPosition()

	// Piece placement and cargo
	if err := parsePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Side to move
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: bad side to move %q", ErrMalformedNotation, parts[1])
	}

	// Castling rights
	if parts[2] != "-" {
		for i := 0; i < len(parts[2]); i++ {
			idx := strings.IndexByte("KQkq", parts[2][i])
			if idx < 0 {
				return nil, fmt.Errorf("%w: bad castling flag %q", ErrMalformedNotation, parts[2][i])
			}
			pos.Castling |= 1 << idx
		}
	}

	// En passant
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, err
		}
		want := 5
		if pos.SideToMove == Black {
			want = 2
		}
		if sq.Rank() != want {
			return nil, fmt.Errorf("%w: en passant square %s on wrong rank", ErrMalformedNotation, sq)
		}
		pos.EnPassant = sq
	}

	// Clocks
	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad halfmove clock %q", ErrMalformedNotation, parts[4])
		}
		pos.HalfMoveClock = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: bad fullmove number %q", ErrMalformedNotation, parts[5])
		}
		pos.FullMoveNumber = n
	}

	pos.Hash = pos.ComputeHash()
	pos.updateCheckers()
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	return pos, nil
}

func parsePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrMalformedNotation, len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				if file > 8 {
					return fmt.Errorf("%w: rank %d overflows", ErrMalformedNotation, rank+1)
				}
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece {
				return fmt.Errorf("%w: bad piece letter %q", ErrMalformedNotation, c)
			}
			if file > 7 {
				return fmt.Errorf("%w: rank %d overflows", ErrMalformedNotation, rank+1)
			}
			sq := NewSquare(file, rank)
			pos.putPiece(piece.Color(), piece.Type(), sq)
			file++

			if j+1 < len(row) && row[j+1] == 'x' {
				if j+2 >= len(row) {
					return fmt.Errorf("%w: cargo marker without piece on %s", ErrMalformedNotation, sq)
				}
				held := PieceFromChar(row[j+2])
				if held == NoPiece || held.Color() != piece.Color() {
					return fmt.Errorf("%w: bad cargo %q on %s", ErrMalformedNotation, row[j+2], sq)
				}
				pos.setCargo(piece.Color(), sq, held.Type())
				j += 2
			}
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrMalformedNotation, rank+1, file)
		}
	}
	return nil
}

// FEN serializes the position. Cargo uses the same "x" suffix ParseFEN reads,
// so positions without cargo come out as plain FEN.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Char())
			if held := p.Cargo[sq]; held != NoPieceType {
				sb.WriteByte('x')
				sb.WriteByte(NewPiece(held, piece.Color()).Char())
			}
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.Castling, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
