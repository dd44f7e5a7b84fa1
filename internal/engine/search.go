package engine

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// maxDepth caps iterative deepening when no depth limit is given.
const maxDepth = 64

// pollInterval is how many nodes a worker searches between looks at the
// shared stop flag and node counter. Must be a power of two.
const pollInterval = 4096

// Pruning constants
const (
	aspirationWindow   = 50
	aspirationMinDepth = 4
	deltaMargin        = 200
	nullMoveMinDepth   = 3
	lmrMinDepth        = 3
	lmrMinMoves        = 4
)

var futilityMargin = [4]int{0, 200, 300, 500}

// ErrSearchInterrupted reports that a deadline, node budget, Stop call or
// cancelled context ended the search before its depth limit.
var ErrSearchInterrupted = errors.New("search interrupted")

// LMR reduction table, logarithmic in depth and move number.
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(0.75 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// line returns the variation starting at ply.
func (pv *PVTable) line(ply int) []board.Move {
	n := pv.length[ply] - ply
	if n <= 0 {
		return nil
	}
	out := make([]board.Move, n)
	copy(out, pv.moves[ply][ply:pv.length[ply]])
	return out
}

// update makes m followed by the child's line the variation at ply.
func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	for j := ply + 1; j < pv.length[ply+1]; j++ {
		pv.moves[ply][j] = pv.moves[ply+1][j]
	}
	pv.length[ply] = max(pv.length[ply+1], ply+1)
}

// searchShared is the state every worker of one search can see.
type searchShared struct {
	stop      atomic.Bool
	nodes     atomic.Uint64
	nodeLimit uint64
}

func (s *searchShared) addNodes(n uint64) {
	total := s.nodes.Add(n)
	if s.nodeLimit > 0 && total >= s.nodeLimit {
		s.stop.Store(true)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// isMateScore reports whether score encodes a forced mate for either side.
func isMateScore(score int) bool {
	return abs(score) > MateScore-MaxPly
}
