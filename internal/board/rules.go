package board

import (
	"fmt"
	"strings"
)

// Variant selects between rescue chess and plain chess.
type Variant uint8

const (
	// VariantRescue enables rescue and drop moves.
	VariantRescue Variant = iota
	// VariantClassic is standard chess: no cargo moves are generated.
	VariantClassic
)

// Adjacency decides which squares around a move's destination are reachable
// for a rescue or a drop.
type Adjacency uint8

const (
	// AdjacencyOrthogonal allows the four edge-sharing squares.
	AdjacencyOrthogonal Adjacency = iota
	// AdjacencySurrounding allows all eight king-step squares.
	AdjacencySurrounding
)

// HoldPolicy decides which piece types a carrier may pick up.
type HoldPolicy uint8

const (
	// HoldAny lets any piece carry any non-king piece.
	HoldAny HoldPolicy = iota
	// HoldRanked only lets a piece carry types of equal or lesser rank:
	// pawns carry pawns, minor pieces carry pawns and minors, rooks add rooks,
	// queens and kings carry anything but a king.
	HoldRanked
)

// Rules bundles the variant knobs the move generator consults.
type Rules struct {
	Variant   Variant
	Adjacency Adjacency
	Holding   HoldPolicy
}

// DefaultRules is rescue chess with orthogonal reach and unrestricted holding.
func DefaultRules() Rules {
	return Rules{Variant: VariantRescue, Adjacency: AdjacencyOrthogonal, Holding: HoldAny}
}

// ClassicRules disables the carry mechanic.
func ClassicRules() Rules {
	r := DefaultRules()
	r.Variant = VariantClassic
	return r
}

// CarryEnabled reports whether rescue and drop moves exist under r.
func (r Rules) CarryEnabled() bool { return r.Variant == VariantRescue }

// Reach is the set of squares around dest that a rescue or drop can touch.
func (r Rules) Reach(dest Square) Bitboard {
	if r.Adjacency == AdjacencySurrounding {
		return kingAttacks[dest]
	}
	return orthoNeighbors[dest]
}

var rankedHolds = [6]uint8{
	Pawn:   1 << Pawn,
	Knight: 1<<Pawn | 1<<Knight | 1<<Bishop,
	Bishop: 1<<Pawn | 1<<Knight | 1<<Bishop,
	Rook:   1<<Pawn | 1<<Knight | 1<<Bishop | 1<<Rook,
	Queen:  1<<Pawn | 1<<Knight | 1<<Bishop | 1<<Rook | 1<<Queen,
	King:   1<<Pawn | 1<<Knight | 1<<Bishop | 1<<Rook | 1<<Queen,
}

// CanHold reports whether a carrier of type carrier may pick up a piece of type held.
// Kings are never held.
func (r Rules) CanHold(carrier, held PieceType) bool {
	if held >= King || carrier >= NoPieceType {
		return false
	}
	if r.Holding == HoldRanked {
		return rankedHolds[carrier]&(1<<held) != 0
	}
	return true
}

func (v Variant) String() string {
	if v == VariantClassic {
		return "classic"
	}
	return "rescue"
}

func (a Adjacency) String() string {
	if a == AdjacencySurrounding {
		return "surrounding"
	}
	return "orthogonal"
}

func (h HoldPolicy) String() string {
	if h == HoldRanked {
		return "ranked"
	}
	return "any"
}

func (r Rules) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Variant, r.Adjacency, r.Holding)
}

// ParseVariant accepts "rescue" or "classic".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rescue", "":
		return VariantRescue, nil
	case "classic", "standard":
		return VariantClassic, nil
	}
	return VariantRescue, fmt.Errorf("unknown variant %q", s)
}

// ParseAdjacency accepts "orthogonal" or "surrounding".
func ParseAdjacency(s string) (Adjacency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orthogonal", "":
		return AdjacencyOrthogonal, nil
	case "surrounding", "king":
		return AdjacencySurrounding, nil
	}
	return AdjacencyOrthogonal, fmt.Errorf("unknown adjacency %q", s)
}

// ParseHoldPolicy accepts "any" or "ranked".
func ParseHoldPolicy(s string) (HoldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "":
		return HoldAny, nil
	case "ranked":
		return HoldRanked, nil
	}
	return HoldAny, fmt.Errorf("unknown hold policy %q", s)
}

// ParseRules reads the form produced by Rules.String, e.g. "rescue/orthogonal/any".
// Missing trailing parts keep their defaults.
func ParseRules(s string) (Rules, error) {
	r := DefaultRules()
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return r, fmt.Errorf("too many rule fields in %q", s)
	}
	var err error
	if r.Variant, err = ParseVariant(parts[0]); err != nil {
		return r, err
	}
	if len(parts) > 1 {
		if r.Adjacency, err = ParseAdjacency(parts[1]); err != nil {
			return r, err
		}
	}
	if len(parts) > 2 {
		if r.Holding, err = ParseHoldPolicy(parts[2]); err != nil {
			return r, err
		}
	}
	return r, nil
}
