package engine

import (
	"github.com/abrenneke/rescue-chess/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Flag     TTFlag
}

// ttEntrySize is the in-memory size of a TTEntry, used to turn megabytes
// into a slot count.
const ttEntrySize = 24

// TranspositionTable is a depth-preferred hash table of search results.
// Each search worker owns one, so it takes no locks.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table of at most sizeMB megabytes, and at
// least one slot.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	n := uint64(sizeMB) * 1024 * 1024 / ttEntrySize
	n = roundDownToPowerOf2(n)
	if n == 0 {
		n = 1
	}
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position by its Zobrist key.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	e := tt.entries[hash&tt.mask]
	if e.Key == hash {
		tt.hits++
		return e, true
	}
	return TTEntry{}, false
}

// Store records a result. A deeper entry for the same key is only replaced by
// an exact score.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, best board.Move) {
	e := &tt.entries[hash&tt.mask]
	if e.Key == hash && int(e.Depth) > depth && flag != TTExact {
		return
	}
	if best == board.NoMove && e.Key == hash {
		best = e.BestMove
	}
	*e = TTEntry{
		Key:      hash,
		BestMove: best,
		Score:    int16(score),
		Depth:    int8(depth),
		Flag:     flag,
	}
}

// Clear empties the table and its counters.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits, tt.probes = 0, 0
}

// Hits returns the number of successful probes since the last Clear.
func (tt *TranspositionTable) Hits() uint64 { return tt.hits }

// HashFull samples the first thousand slots and returns the permille in use.
func (tt *TranspositionTable) HashFull() int {
	n := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < n; i++ {
		if tt.entries[i].Key != 0 {
			used++
		}
	}
	return used * 1000 / n
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// AdjustScoreFromTT converts a stored mate score back to distance from the root.
func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT stores mate scores as distance from the current node.
func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
