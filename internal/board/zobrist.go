package board

// Zobrist keys. A carried unit hashes by holder color, held type and the
// holder's square, so the same pieces with and without cargo never collide.
var (
	zobristPiece     [2][6][64]uint64
	zobristCargo     [2][6][64]uint64
	zobristEnPassant [8]uint64
	zobristCastling  [16]uint64
	zobristBlack     uint64
)

// splitmix64 keeps key generation reproducible across runs and platforms.
type splitmix64 uint64

func (s *splitmix64) next() uint64 {
	*s += 0x9E3779B97F4A7C15
	z := uint64(*s)
	z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
	z = (z ^ z>>27) * 0x94D049BB133111EB
	return z ^ z>>31
}

func init() {
	rng := splitmix64(0x52455343554521)
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
				zobristCargo[c][pt][sq] = rng.next()
			}
		}
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristBlack = rng.next()
}

// ComputeHash rebuilds the Zobrist key from scratch. MakeMove maintains it
// incrementally; this is the reference it must agree with.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				h ^= zobristPiece[c][pt][sq]
				if held := p.Cargo[sq]; held != NoPieceType {
					h ^= zobristCargo[c][held][sq]
				}
			}
		}
	}
	h ^= p.enPassantKey()
	h ^= zobristCastling[p.Castling]
	if p.SideToMove == Black {
		h ^= zobristBlack
	}
	return h
}

// enPassantKey is the hash contribution of the en passant square. It counts
// only while a pawn of the side to move could take there, so a double push
// nobody can answer hashes like any other move.
func (p *Position) enPassantKey() uint64 {
	ep := p.EnPassant
	if ep == NoSquare {
		return 0
	}
	us := p.SideToMove
	if pawnAttacks[us.Other()][ep]&p.Pieces[us][Pawn] == 0 {
		return 0
	}
	return zobristEnPassant[ep.File()]
}
