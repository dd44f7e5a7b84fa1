package engine

import (
	"github.com/abrenneke/rescue-chess/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Captures and promotions
	CargoMoveBase   = 950000   // Drops, then rescues
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	CounterScore    = 790000   // Reply that refuted the previous move before
)

const historyLimit = 400000

// MoveOrderer holds the per-worker ordering heuristics.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic (indexed by [from][to])
	history [64][64]int

	// Counter move heuristic (indexed by [piece type][to] of the previous move)
	counterMoves [6][64]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear forgets everything learned so far.
func (mo *MoveOrderer) Clear() {
	*mo = MoveOrderer{}
}

// ScoreMoves assigns ordering scores to every move in the list.
func (mo *MoveOrderer) ScoreMoves(moves *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, moves.Len())
	counter := mo.CounterMove(prevMove)
	for i, m := range moves.Slice() {
		s := mo.scoreMove(m, ply, ttMove)
		if m == counter && s < CounterScore {
			s = CounterScore
		}
		scores[i] = s
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}
	if m.IsCapture() || m.IsPromotion() {
		return GoodCaptureBase + captureGain(m)
	}
	if m.IsDrop() {
		return CargoMoveBase + 1000 + pieceValues[m.Promotion]
	}
	if m.IsRescue() {
		return CargoMoveBase
	}
	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}
	return mo.history[m.From][m.To]
}

// captureGain is an MVV-LVA style key: the victim together with the cargo it
// takes down, minus a tenth of the attacker, plus any promotion.
func captureGain(m board.Move) int {
	victim := m.Captured
	if m.Kind == board.KindEnPassant {
		victim = board.Pawn
	}
	gain := pieceValues[victim] + pieceValues[m.CapturedCargo] - pieceValues[m.Piece]/10
	if m.IsPromotion() {
		gain += pieceValues[m.Promotion]
	}
	return gain
}

// PickMove selects the best remaining move and moves it to position index.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff, or penalises one
// that was tried before it.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, good bool) {
	h := &mo.history[m.From][m.To]
	bonus := depth * depth
	if !good {
		*h = max(*h-bonus, -historyLimit)
		return
	}
	*h += bonus
	if *h > historyLimit {
		for i := range mo.history {
			for j := range mo.history[i] {
				mo.history[i][j] /= 2
			}
		}
	}
}

// UpdateCounterMove remembers reply as the answer to prev.
func (mo *MoveOrderer) UpdateCounterMove(prev, reply board.Move) {
	if prev == board.NoMove || prev.Piece >= board.NoPieceType {
		return
	}
	mo.counterMoves[prev.Piece][prev.To] = reply
}

// CounterMove returns the stored answer to prev.
func (mo *MoveOrderer) CounterMove(prev board.Move) board.Move {
	if prev == board.NoMove || prev.Piece >= board.NoPieceType {
		return board.NoMove
	}
	return mo.counterMoves[prev.Piece][prev.To]
}

// HistoryScore returns the history score for a move.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.From][m.To]
}
