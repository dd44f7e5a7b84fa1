package board

import (
	"fmt"
	"strings"
)

// String renders m in coordinate notation extended for cargo: "e2e4",
// "e7e8q", "b1d2Sd1" (rescue from d1), "c3e4De5" (drop on e5), "b7c7Dc8q".
func (m Move) String() string {
	if m.Kind == KindNone {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteString(m.To.String())
	switch m.Kind {
	case KindPromotion, KindCapturePromotion:
		sb.WriteByte(m.Promotion.Char())
	case KindNormalAndRescue, KindCaptureAndRescue:
		sb.WriteByte('S')
		sb.WriteString(m.Target.String())
	case KindNormalAndDrop, KindCaptureAndDrop:
		sb.WriteByte('D')
		sb.WriteString(m.Target.String())
		if m.Promotion != NoPieceType {
			sb.WriteByte(m.Promotion.Char())
		}
	}
	return sb.String()
}

// ParseMove resolves move text against the legal moves of pos. Malformed text
// wraps ErrMalformedNotation; well-formed text naming no legal move wraps
// ErrIllegalMove.
func ParseMove(pos *Position, text string, r Rules) (Move, error) {
	canon, err := canonicalMoveText(text)
	if err != nil {
		return NoMove, err
	}
	for _, m := range pos.GenerateLegalMoves(r).Slice() {
		if m.String() == canon {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
}

// canonicalMoveText checks the syntax of text and normalises letter case.
func canonicalMoveText(text string) (string, error) {
	s := strings.TrimSpace(text)
	bad := fmt.Errorf("%w: bad move %q", ErrMalformedNotation, text)
	if len(s) < 4 {
		return "", bad
	}
	from, err := ParseSquare(strings.ToLower(s[0:2]))
	if err != nil {
		return "", bad
	}
	to, err := ParseSquare(strings.ToLower(s[2:4]))
	if err != nil {
		return "", bad
	}
	out := from.String() + to.String()
	rest := s[4:]

	if len(rest) > 0 && isPromotionLetter(rest[0]) {
		out += strings.ToLower(rest[:1])
		rest = rest[1:]
		if rest != "" {
			return "", bad
		}
		return out, nil
	}
	if rest == "" {
		return out, nil
	}

	marker := rest[0] &^ 0x20
	if (marker != 'S' && marker != 'D') || len(rest) < 3 {
		return "", bad
	}
	target, err := ParseSquare(strings.ToLower(rest[1:3]))
	if err != nil {
		return "", bad
	}
	out += string(marker) + target.String()
	rest = rest[3:]
	if marker == 'D' && len(rest) == 1 && isPromotionLetter(rest[0]) {
		out += strings.ToLower(rest)
		rest = ""
	}
	if rest != "" {
		return "", bad
	}
	return out, nil
}

func isPromotionLetter(c byte) bool {
	return strings.IndexByte("qrbnQRBN", c) >= 0
}
