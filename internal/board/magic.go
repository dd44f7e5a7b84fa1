package board

// magic locates the slice of a shared attack table that answers one square's
// slider lookups: the occupancy is masked, multiplied and shifted into an index.
type magic struct {
	mask   Bitboard
	mult   uint64
	shift  uint8
	offset uint32
}

func (m *magic) index(occ Bitboard) uint32 {
	return m.offset + uint32((uint64(occ&m.mask)*m.mult)>>m.shift)
}

var (
	bishopMagic [64]magic
	rookMagic   [64]magic

	bishopAttackTable [5248]Bitboard
	rookAttackTable   [102400]Bitboard
)

type ray struct{ df, dr int }

var (
	bishopRays = [4]ray{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookRays   = [4]ray{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

// Multipliers are collision free for the full relevant-bit shift of every square.
var bishopMultipliers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMultipliers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initMagics() {
	fillMagics(&bishopMagic, bishopAttackTable[:], &bishopMultipliers, bishopRays)
	fillMagics(&rookMagic, rookAttackTable[:], &rookMultipliers, rookRays)
}

// fillMagics walks every blocker subset of each square's relevant mask
// (Carry-Rippler enumeration) and stores the ray-cast attack set at its hashed slot.
func fillMagics(magics *[64]magic, table []Bitboard, mults *[64]uint64, rays [4]ray) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := relevantMask(sq, rays)
		n := mask.PopCount()
		m := &magics[sq]
		*m = magic{mask: mask, mult: mults[sq], shift: uint8(64 - n), offset: offset}

		var occ Bitboard
		for {
			table[m.index(occ)] = slideAttacks(sq, occ, rays)
			occ = (occ - mask) & mask
			if occ == 0 {
				break
			}
		}
		offset += 1 << n
	}
}

// relevantMask is the set of squares whose occupancy can change the attack set:
// every ray square except the last one before the edge.
func relevantMask(sq Square, rays [4]ray) Bitboard {
	var mask Bitboard
	for _, d := range rays {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f+d.df, r+d.dr) {
			mask |= SquareBB(NewSquare(f, r))
			f, r = f+d.df, r+d.dr
		}
	}
	return mask
}

// slideAttacks casts rays from sq, stopping on (and including) the first blocker.
func slideAttacks(sq Square, occ Bitboard, rays [4]ray) Bitboard {
	var attacks Bitboard
	for _, d := range rays {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f, r) {
			s := SquareBB(NewSquare(f, r))
			attacks |= s
			if occ&s != 0 {
				break
			}
			f, r = f+d.df, r+d.dr
		}
	}
	return attacks
}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}
