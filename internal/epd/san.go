package epd

import (
	"fmt"
	"strings"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// sanMove is the parsed shape of a SAN token.
type sanMove struct {
	castle    int // 0 none, 1 king side, 2 queen side
	piece     board.PieceType
	fromFile  int // -1 when not given
	fromRank  int
	to        board.Square
	promotion board.PieceType
}

func parseSAN(s string) (sanMove, error) {
	san := sanMove{piece: board.Pawn, fromFile: -1, fromRank: -1, promotion: board.NoPieceType}
	bad := fmt.Errorf("%w: bad SAN %q", board.ErrMalformedNotation, s)

	s = strings.TrimRight(strings.TrimSpace(s), "+#!?")
	switch s {
	case "O-O", "0-0":
		san.castle, san.piece = 1, board.King
		return san, nil
	case "O-O-O", "0-0-0":
		san.castle, san.piece = 2, board.King
		return san, nil
	}

	if i := strings.IndexByte(s, '='); i >= 0 {
		if i+2 != len(s) {
			return san, bad
		}
		san.promotion = board.PieceTypeFromChar(s[i+1])
		if san.promotion == board.NoPieceType || san.promotion == board.King || san.promotion == board.Pawn {
			return san, bad
		}
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "x", "")
	if s != "" && s[0] >= 'A' && s[0] <= 'Z' {
		san.piece = board.PieceTypeFromChar(s[0])
		if san.piece == board.NoPieceType || san.piece == board.Pawn {
			return san, bad
		}
		s = s[1:]
	}
	if len(s) < 2 {
		return san, bad
	}
	to, err := board.ParseSquare(s[len(s)-2:])
	if err != nil {
		return san, bad
	}
	san.to = to

	for _, c := range []byte(s[:len(s)-2]) {
		switch {
		case c >= 'a' && c <= 'h':
			san.fromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			san.fromRank = int(c - '1')
		default:
			return san, bad
		}
	}
	return san, nil
}

func (s sanMove) matches(m board.Move) bool {
	if s.castle != 0 {
		if m.Kind != board.KindCastle {
			return false
		}
		return (s.castle == 1) == (m.To.File() == 6)
	}
	if m.Kind == board.KindCastle || m.Piece != s.piece || m.To != s.to {
		return false
	}
	if s.fromFile >= 0 && m.From.File() != s.fromFile {
		return false
	}
	if s.fromRank >= 0 && m.From.Rank() != s.fromRank {
		return false
	}
	if m.IsDrop() {
		// The promotion of a dropped unit is not the mover's promotion.
		return s.promotion == board.NoPieceType
	}
	return m.Promotion == s.promotion
}

// MatchSAN reports whether m is the move written as san. Only the mover's
// part is compared, so a rescue or drop riding along with the named move
// still matches.
func MatchSAN(m board.Move, san string) (bool, error) {
	s, err := parseSAN(san)
	if err != nil {
		return false, err
	}
	return s.matches(m), nil
}

// ResolveSAN returns the legal moves of pos that san names. Plain chess
// notation can name several carry variants of the same move.
func ResolveSAN(pos *board.Position, san string, r board.Rules) ([]board.Move, error) {
	s, err := parseSAN(san)
	if err != nil {
		return nil, err
	}
	var out []board.Move
	for _, m := range pos.GenerateLegalMoves(r).Slice() {
		if s.matches(m) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", board.ErrIllegalMove, san)
	}
	return out, nil
}
