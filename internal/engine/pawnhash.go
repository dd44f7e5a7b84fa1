package engine

// pawnEntry caches the pawn structure score for one pawn skeleton.
type pawnEntry struct {
	key    uint64
	mg, eg int16
}

// PawnTable caches evaluatePawns results keyed by pawnKey. Pawn skeletons
// repeat far more often than whole positions, so even a small table hits well.
type PawnTable struct {
	entries []pawnEntry
	mask    uint64
}

// NewPawnTable creates a table of about sizeMB megabytes.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 12
	n := sizeMB * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{entries: make([]pawnEntry, size), mask: uint64(size - 1)}
}

// Probe returns the cached scores for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, ok bool) {
	e := &pt.entries[key&pt.mask]
	if e.key != key {
		return 0, 0, false
	}
	return int(e.mg), int(e.eg), true
}

// Store overwrites the slot for key.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	pt.entries[key&pt.mask] = pawnEntry{key: key, mg: int16(mg), eg: int16(eg)}
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
