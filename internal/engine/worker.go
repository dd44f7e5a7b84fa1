package engine

import (
	"github.com/abrenneke/rescue-chess/internal/board"
)

// Worker searches a share of the root moves on its own copy of the position.
// Everything it touches is private except the searchShared it reports to, so
// a worker's result depends only on the moves it was handed.
type Worker struct {
	id    int
	rules board.Rules

	pos     *board.Position
	eval    *Evaluator
	orderer *MoveOrderer
	tt      *TranspositionTable
	ttMB    int
	pv      PVTable

	// history holds the hashes of every position before the current node,
	// game moves first, then the search path.
	history []uint64

	nodes    uint64
	pending  uint64
	seldepth int
	aborted  bool

	// lastScore is this worker's best score from the previous iteration,
	// used to centre the aspiration window.
	lastScore int
	haveLast  bool

	shared *searchShared
}

// rootMove is a root move tagged with its place in the iteration's ordering.
type rootMove struct {
	move  board.Move
	index int
}

// workerResult is a worker's best line for one iteration.
type workerResult struct {
	move  board.Move
	index int
	score int
	pv    []board.Move
}

// NewWorker creates a worker with a transposition table of ttMB megabytes.
func NewWorker(id int, rules board.Rules, weights EvalWeights, ttMB int) *Worker {
	return &Worker{
		id:      id,
		rules:   rules,
		eval:    NewEvaluator(weights),
		orderer: NewMoveOrderer(),
		tt:      NewTranspositionTable(ttMB),
		ttMB:    ttMB,
	}
}

// ID returns the worker's index in the pool.
func (w *Worker) ID() int { return w.id }

// Nodes returns the number of nodes searched since the last reset.
func (w *Worker) Nodes() uint64 { return w.nodes }

// reset prepares the worker for a new search from pos.
func (w *Worker) reset(pos *board.Position, gameHistory []uint64, shared *searchShared) {
	w.pos = pos.Copy()
	w.history = append(w.history[:0], gameHistory...)
	w.tt.Clear()
	w.orderer.Clear()
	w.eval.pawns.Clear()
	w.nodes, w.pending, w.seldepth = 0, 0, 0
	w.aborted = false
	w.haveLast = false
	w.shared = shared
}

// tick counts a node and polls the shared stop flag every pollInterval nodes.
func (w *Worker) tick() bool {
	w.nodes++
	w.pending++
	if w.pending == pollInterval {
		w.shared.addNodes(w.pending)
		w.pending = 0
		if w.shared.stop.Load() {
			w.aborted = true
		}
	}
	return w.aborted
}

func (w *Worker) flushNodes() {
	if w.pending > 0 {
		w.shared.addNodes(w.pending)
		w.pending = 0
	}
}

// searchRoot searches moves to depth and returns the best of them. It fails
// with ErrSearchInterrupted if the stop flag was seen; the partial result is
// then worthless and discarded.
func (w *Worker) searchRoot(moves []rootMove, depth int) (workerResult, error) {
	defer w.flushNodes()

	best := workerResult{score: -Infinity - 1}
	alpha := -Infinity

	for i, rm := range moves {
		var score int
		switch {
		case i == 0 && w.haveLast && depth >= aspirationMinDepth:
			lo, hi := w.lastScore-aspirationWindow, w.lastScore+aspirationWindow
			score = w.searchRootMove(rm.move, depth, lo, hi)
			if !w.aborted && (score <= lo || score >= hi) {
				score = w.searchRootMove(rm.move, depth, -Infinity, Infinity)
			}
		case i == 0:
			score = w.searchRootMove(rm.move, depth, -Infinity, Infinity)
		default:
			score = w.searchRootMove(rm.move, depth, alpha, alpha+1)
			if !w.aborted && score > alpha {
				score = w.searchRootMove(rm.move, depth, alpha, Infinity)
			}
		}
		if w.aborted {
			return workerResult{}, ErrSearchInterrupted
		}
		if score > best.score {
			best = workerResult{
				move:  rm.move,
				index: rm.index,
				score: score,
				pv:    append([]board.Move{rm.move}, w.pv.line(1)...),
			}
			alpha = max(alpha, score)
		}
	}

	w.lastScore, w.haveLast = best.score, true
	return best, nil
}

// searchRootMove plays m and searches the reply with the window (alpha, beta)
// seen from the root.
func (w *Worker) searchRootMove(m board.Move, depth, alpha, beta int) int {
	w.history = append(w.history, w.pos.Hash)
	u := w.pos.MakeMove(m)
	score := -w.negamax(depth-1, 1, -beta, -alpha, m)
	w.pos.UnmakeMove(u)
	w.history = w.history[:len(w.history)-1]
	return score
}

// isDraw checks the fifty-move rule, dead positions and repetitions. Within
// the reversible stretch any earlier occurrence of the position counts.
func (w *Worker) isDraw() bool {
	if w.pos.HalfMoveClock >= 100 || w.pos.IsInsufficientMaterial() {
		return true
	}
	n := len(w.history)
	stop := max(0, n-w.pos.HalfMoveClock)
	for i := n - 2; i >= stop; i -= 2 {
		if w.history[i] == w.pos.Hash {
			return true
		}
	}
	return false
}

// negamax implements the negamax algorithm with alpha-beta pruning.
func (w *Worker) negamax(depth, ply, alpha, beta int, prevMove board.Move) int {
	if ply >= MaxPly-1 {
		return w.eval.Evaluate(w.pos)
	}
	if w.tick() {
		return 0
	}
	w.pv.length[ply] = ply

	if w.isDraw() {
		return 0
	}

	// Mate distance pruning
	alpha = max(alpha, -MateScore+ply)
	beta = min(beta, MateScore-ply-1)
	if alpha >= beta {
		return alpha
	}

	pvNode := beta-alpha > 1

	var ttMove board.Move
	if entry, ok := w.tt.Probe(w.pos.Hash); ok {
		ttMove = entry.BestMove
		if !pvNode && int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	inCheck := w.pos.InCheck()
	if inCheck {
		depth++
	}
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	staticEval := 0
	if !inCheck {
		staticEval = w.eval.Evaluate(w.pos)
	}

	// Reverse futility pruning
	if !pvNode && !inCheck && depth <= 6 && !isMateScore(beta) && staticEval-80*depth >= beta {
		return staticEval
	}

	// Null move pruning
	if !pvNode && !inCheck && depth >= nullMoveMinDepth && prevMove != board.NoMove &&
		staticEval >= beta && w.pos.HasNonPawnMaterial() {
		r := 2 + depth/4
		w.history = append(w.history, w.pos.Hash)
		nu := w.pos.MakeNullMove()
		score := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, board.NoMove)
		w.pos.UnmakeNullMove(nu)
		w.history = w.history[:len(w.history)-1]
		if w.aborted {
			return 0
		}
		if score >= beta && !isMateScore(score) {
			return beta
		}
	}

	moves := w.pos.GenerateLegalMoves(w.rules)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	pruneQuiet := !pvNode && !inCheck && depth < len(futilityMargin) &&
		staticEval+futilityMargin[depth] <= alpha

	scores := w.orderer.ScoreMoves(moves, ply, ttMove, prevMove)
	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	var triedQuiet []board.Move

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)
		quiet := m.IsQuiet()

		if pruneQuiet && quiet && i > 0 && m != ttMove {
			continue
		}

		w.history = append(w.history, w.pos.Hash)
		u := w.pos.MakeMove(m)
		givesCheck := w.pos.InCheck()

		var score int
		switch {
		case i == 0:
			score = -w.negamax(depth-1, ply+1, -beta, -alpha, m)
		default:
			reduction := 0
			if depth >= lmrMinDepth && i >= lmrMinMoves && quiet && !inCheck && !givesCheck {
				reduction = lmrReductions[min(depth, 63)][min(i, 63)]
				if pvNode {
					reduction--
				}
				reduction -= w.orderer.HistoryScore(m) / 8192
				reduction = max(0, min(reduction, depth-2))
			}
			score = -w.negamax(depth-1-reduction, ply+1, -alpha-1, -alpha, m)
			if score > alpha && reduction > 0 {
				score = -w.negamax(depth-1, ply+1, -alpha-1, -alpha, m)
			}
			if score > alpha && score < beta {
				score = -w.negamax(depth-1, ply+1, -beta, -alpha, m)
			}
		}

		w.pos.UnmakeMove(u)
		w.history = w.history[:len(w.history)-1]

		if w.aborted {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
			}
		}

		if score >= beta {
			if quiet {
				w.orderer.UpdateKillers(m, ply)
				w.orderer.UpdateHistory(m, depth, true)
				w.orderer.UpdateCounterMove(prevMove, m)
				for _, q := range triedQuiet {
					w.orderer.UpdateHistory(q, depth, false)
				}
			}
			w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, m)
			return score
		}
		if quiet {
			triedQuiet = append(triedQuiet, m)
		}
	}

	if bestMove == board.NoMove {
		// Every move was pruned; the static bound stands in.
		return alpha
	}

	flag := TTUpperBound
	if alpha > origAlpha {
		flag = TTExact
	}
	w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	return bestScore
}

// quiescence resolves captures and promotions so the static evaluation is
// only taken in quiet positions. In check every evasion is searched.
func (w *Worker) quiescence(ply, alpha, beta int) int {
	w.seldepth = max(w.seldepth, ply)
	if ply >= MaxPly-1 {
		return w.eval.Evaluate(w.pos)
	}
	if w.tick() {
		return 0
	}
	w.pv.length[ply] = ply

	inCheck := w.pos.InCheck()
	standPat := -Infinity
	var moves *board.MoveList

	if inCheck {
		moves = w.pos.GenerateLegalMoves(w.rules)
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		standPat = w.eval.Evaluate(w.pos)
		if standPat >= beta {
			return standPat
		}
		// Delta pruning
		if standPat+QueenValue+deltaMargin < alpha {
			return alpha
		}
		alpha = max(alpha, standPat)
		moves = w.pos.GenerateCaptures(w.rules)
	}

	best := standPat
	scores := w.orderer.ScoreMoves(moves, MaxPly, board.NoMove, board.NoMove)
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		if !inCheck && !m.IsPromotion() && standPat+captureGain(m)+deltaMargin < alpha {
			continue
		}

		w.history = append(w.history, w.pos.Hash)
		u := w.pos.MakeMove(m)
		score := -w.quiescence(ply+1, -beta, -alpha)
		w.pos.UnmakeMove(u)
		w.history = w.history[:len(w.history)-1]

		if w.aborted {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
			}
		}
		if score >= beta {
			break
		}
	}
	if best == -Infinity {
		return alpha
	}
	return best
}
