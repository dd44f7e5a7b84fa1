package board

// Step tables for the non-sliding pieces plus the two neighbourhoods that
// bound rescue and drop squares.
var (
	knightAttacks  [64]Bitboard
	kingAttacks    [64]Bitboard
	pawnAttacks    [2][64]Bitboard
	orthoNeighbors [64]Bitboard
)

var (
	knightSteps = [8]ray{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8]ray{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = stepTargets(sq, knightSteps[:])
		kingAttacks[sq] = stepTargets(sq, kingSteps[:])
		orthoNeighbors[sq] = stepTargets(sq, rookRays[:])
		pawnAttacks[White][sq] = stepTargets(sq, []ray{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = stepTargets(sq, []ray{{-1, -1}, {1, -1}})
	}
	initMagics()
}

func stepTargets(sq Square, steps []ray) Bitboard {
	var bb Bitboard
	for _, s := range steps {
		f, r := sq.File()+s.df, sq.Rank()+s.dr
		if onBoard(f, r) {
			bb |= SquareBB(NewSquare(f, r))
		}
	}
	return bb
}

// KnightAttacks is the set of squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks is the set of squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks is the set of squares a c-colored pawn on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

// OrthogonalNeighbors is the up-to-four squares sharing an edge with sq.
func OrthogonalNeighbors(sq Square) Bitboard { return orthoNeighbors[sq] }

// BishopAttacks looks up diagonal slider attacks through the magic tables.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return bishopAttackTable[bishopMagic[sq].index(occ)]
}

// RookAttacks looks up orthogonal slider attacks through the magic tables.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return rookAttackTable[rookMagic[sq].index(occ)]
}

// QueenAttacks is the union of the bishop and rook lookups.
func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ) | RookAttacks(sq, occ)
}

// Attacks answers the attack set of any piece type. Color only matters for pawns.
func Attacks(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	}
	return 0
}

// AttackersOf returns the pieces of color c that attack sq given occupancy occ.
// Cargo is off the board and never attacks.
func (p *Position) AttackersOf(sq Square, c Color, occ Bitboard) Bitboard {
	diag := p.Pieces[c][Bishop] | p.Pieces[c][Queen]
	orth := p.Pieces[c][Rook] | p.Pieces[c][Queen]
	return pawnAttacks[c.Other()][sq]&p.Pieces[c][Pawn] |
		knightAttacks[sq]&p.Pieces[c][Knight] |
		kingAttacks[sq]&p.Pieces[c][King] |
		BishopAttacks(sq, occ)&diag |
		RookAttacks(sq, occ)&orth
}

// IsSquareAttacked reports whether color by attacks sq in the current position.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.AttackersOf(sq, by, p.AllOccupied) != 0
}

// InCheckColor reports whether c's king is attacked.
func (p *Position) InCheckColor(c Color) bool {
	k := p.KingSquare[c]
	if k == NoSquare {
		return false
	}
	return p.IsSquareAttacked(k, c.Other())
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

func (p *Position) updateCheckers() {
	us := p.SideToMove
	if k := p.KingSquare[us]; k != NoSquare {
		p.Checkers = p.AttackersOf(k, us.Other(), p.AllOccupied)
	} else {
		p.Checkers = 0
	}
}
