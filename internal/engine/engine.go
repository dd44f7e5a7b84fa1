package engine

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// SearchInfo describes one completed iteration.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
	TTHits   uint64
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Clock    ClockLimits   // Game clock, used when MoveTime is zero
	Infinite bool          // Search until stopped
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for d := Easy; d <= Hard; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 5, MoveTime: 2 * time.Second},
	Hard:   {Depth: 7, MoveTime: 5 * time.Second},
}

// Status says how a search ended.
type Status int

const (
	// StatusCompleted: the depth limit was reached or a forced mate was proven.
	StatusCompleted Status = iota
	// StatusInterrupted: a stop condition fired; the result is the last
	// completed iteration.
	StatusInterrupted
	// StatusCheckmate: the side to move is mated and there is no move.
	StatusCheckmate
	// StatusStalemate: the side to move has no legal move and is not in check.
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInterrupted:
		return "interrupted"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	}
	return "unknown"
}

// SearchResult is the outcome of Engine.Search.
type SearchResult struct {
	Move     board.Move
	Score    int
	Depth    int
	SelDepth int
	Nodes    uint64
	TTHits   uint64
	Elapsed  time.Duration
	PV       []board.Move
	Status   Status
}

// Err returns ErrSearchInterrupted for interrupted searches and nil otherwise.
func (r SearchResult) Err() error {
	if r.Status == StatusInterrupted {
		return ErrSearchInterrupted
	}
	return nil
}

// Engine is the rescue chess search engine. Configuration fields must not be
// changed while a search runs. Search calls are serialised; Stop may be
// called from any goroutine.
type Engine struct {
	Threads int
	HashMB  int
	Rules   board.Rules
	Weights EvalWeights

	// Callbacks
	OnInfo func(SearchInfo)

	Log logr.Logger

	searchMu   sync.Mutex
	current    atomic.Pointer[searchShared]
	workers    []*Worker
	history    []uint64
	difficulty Difficulty
}

// NewEngine creates an engine with hashMB megabytes of transposition table,
// split evenly between the workers.
func NewEngine(hashMB int) *Engine {
	return &Engine{
		Threads:    runtime.NumCPU(),
		HashMB:     hashMB,
		Rules:      board.DefaultRules(),
		Weights:    DefaultEvalWeights(),
		Log:        logr.Discard(),
		difficulty: Medium,
	}
}

// SetDifficulty selects the limits returned by Limits.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Limits returns the search limits for the current difficulty.
func (e *Engine) Limits() SearchLimits {
	return DifficultySettings[e.difficulty]
}

// SetHistory sets the hashes of the game positions before the one that will
// be searched, oldest first, so the search can see repetitions.
func (e *Engine) SetHistory(hashes []uint64) {
	e.history = slices.Clone(hashes)
}

// Stop interrupts the running search, if any.
func (e *Engine) Stop() {
	if s := e.current.Load(); s != nil {
		s.stop.Store(true)
	}
}

// Clear drops the workers and their tables; the next search rebuilds them.
func (e *Engine) Clear() {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	e.workers = nil
	e.history = nil
}

func (e *Engine) prepareWorkers(n int) []*Worker {
	ttMB := max(1, e.HashMB/n)
	if len(e.workers) != n || e.workers[0].rules != e.Rules || e.workers[0].eval.Weights != e.Weights ||
		e.workers[0].ttMB != ttMB {
		e.workers = make([]*Worker, n)
		for i := range e.workers {
			e.workers[i] = NewWorker(i, e.Rules, e.Weights, ttMB)
		}
	}
	return e.workers
}

// Search runs iterative deepening on pos within limits and returns the best
// move of the deepest completed iteration. pos is not modified.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits SearchLimits) SearchResult {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	start := time.Now()
	legal := pos.GenerateLegalMoves(e.Rules)
	if legal.Len() == 0 {
		if pos.InCheck() {
			return SearchResult{Move: board.NoMove, Score: -MateScore, Status: StatusCheckmate}
		}
		return SearchResult{Move: board.NoMove, Status: StatusStalemate}
	}

	shared := &searchShared{nodeLimit: limits.Nodes}
	e.current.Store(shared)
	defer e.current.Store(nil)

	stopOnCancel := context.AfterFunc(ctx, func() { shared.stop.Store(true) })
	defer stopOnCancel()

	var tm *TimeManager
	hardLimit := limits.MoveTime
	if hardLimit == 0 && !limits.Infinite && limits.Clock.Active(pos.SideToMove) {
		tm = NewTimeManager()
		ply := 2*(pos.FullMoveNumber-1) + int(pos.SideToMove)
		tm.Init(limits.Clock, pos.SideToMove, ply)
		hardLimit = tm.MaximumTime()
	}
	if hardLimit > 0 && !limits.Infinite {
		timer := time.AfterFunc(hardLimit, func() { shared.stop.Store(true) })
		defer timer.Stop()
	}

	depthLimit := maxDepth
	if limits.Depth > 0 {
		depthLimit = min(limits.Depth, maxDepth)
	}

	threads := max(1, min(e.Threads, legal.Len()))
	workers := e.prepareWorkers(threads)
	for _, w := range workers {
		w.reset(pos, e.history, shared)
	}

	root := orderRootMoves(legal)
	// Returned as is only if depth 1 never completes. The move is then the
	// first in static order, never searched, and Score is the static eval of
	// the root, not a search score.
	result := SearchResult{
		Move:   root[0].move,
		Score:  NewEvaluator(e.Weights).Evaluate(pos),
		PV:     []board.Move{root[0].move},
		Status: StatusInterrupted,
	}

	stability, changes := 0, 0
	for depth := 1; depth <= depthLimit; depth++ {
		if ctx.Err() != nil {
			break
		}
		best, err := e.iterate(workers, root, depth)
		if err != nil {
			break
		}

		if best.move == result.Move {
			stability++
		} else {
			stability = 0
			if depth > 1 {
				changes++
			}
		}
		result.Move, result.Score, result.PV = best.move, best.score, best.pv
		result.Depth = depth
		e.collectStats(&result, workers)
		result.Elapsed = time.Since(start)
		e.report(result, workers)

		root = promote(root, best.index)

		if depth == depthLimit || isMateScore(best.score) && MateScore-abs(best.score) <= depth {
			result.Status = StatusCompleted
			break
		}
		if tm != nil {
			tm.AdjustForStability(stability)
			tm.AdjustForInstability(changes)
			if tm.PastOptimum() {
				break
			}
		}
		if shared.stop.Load() {
			break
		}
	}

	e.collectStats(&result, workers)
	result.Elapsed = time.Since(start)
	e.Log.V(1).Info("search finished", "move", result.Move.String(), "score", result.Score,
		"depth", result.Depth, "nodes", result.Nodes, "status", result.Status.String(),
		"elapsed", result.Elapsed)
	return result
}

// iterate searches every root move to depth. Root moves are striped across
// the workers, index i going to worker i mod n, and the best worker result
// wins; equal scores go to the move earlier in the root order.
func (e *Engine) iterate(workers []*Worker, root []rootMove, depth int) (workerResult, error) {
	var (
		mu   sync.Mutex
		best = workerResult{score: -Infinity - 1, index: len(root)}
	)

	var g errgroup.Group
	g.SetLimit(len(workers))
	for i, w := range workers {
		w := w
		share := stripe(root, i, len(workers))
		if len(share) == 0 {
			continue
		}
		g.Go(func() error {
			r, err := w.searchRoot(share, depth)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if r.score > best.score || r.score == best.score && r.index < best.index {
				best = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return workerResult{}, err
	}
	return best, nil
}

func stripe(root []rootMove, worker, n int) []rootMove {
	var share []rootMove
	for i := worker; i < len(root); i += n {
		share = append(share, root[i])
	}
	return share
}

// orderRootMoves sorts the root moves once by the static ordering keys.
func orderRootMoves(legal *board.MoveList) []rootMove {
	scores := NewMoveOrderer().ScoreMoves(legal, 0, board.NoMove, board.NoMove)
	idx := make([]int, legal.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return scores[b] - scores[a] })
	root := make([]rootMove, len(idx))
	for i, j := range idx {
		root[i] = rootMove{move: legal.Get(j), index: i}
	}
	return root
}

// promote moves the root move at index to the front and renumbers the list.
func promote(root []rootMove, index int) []rootMove {
	out := make([]rootMove, 0, len(root))
	out = append(out, root[index])
	out = append(out, root[:index]...)
	out = append(out, root[index+1:]...)
	for i := range out {
		out[i].index = i
	}
	return out
}

func (e *Engine) collectStats(r *SearchResult, workers []*Worker) {
	r.Nodes, r.TTHits, r.SelDepth = 0, 0, r.Depth
	for _, w := range workers {
		r.Nodes += w.nodes
		r.TTHits += w.tt.Hits()
		r.SelDepth = max(r.SelDepth, w.seldepth)
	}
}

func (e *Engine) report(r SearchResult, workers []*Worker) {
	info := SearchInfo{
		Depth:    r.Depth,
		SelDepth: r.SelDepth,
		Score:    r.Score,
		Nodes:    r.Nodes,
		Time:     r.Elapsed,
		PV:       r.PV,
		HashFull: workers[0].tt.HashFull(),
		TTHits:   r.TTHits,
	}
	e.Log.V(1).Info("iteration", "depth", info.Depth, "score", info.Score, "nodes", info.Nodes, "pv", pvString(info.PV))
	if e.OnInfo != nil {
		e.OnInfo(info)
	}
}

func pvString(pv []board.Move) string {
	s := ""
	for i, m := range pv {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}

// Perft counts leaf nodes under the engine's rules.
func (e *Engine) Perft(pos *board.Position, depth int) int64 {
	return pos.Perft(depth, e.Rules)
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return NewEvaluator(e.Weights).Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		return fmt.Sprintf("Mate in %d", (MateScore-score+1)/2)
	}
	if score < -MateScore+MaxPly {
		return fmt.Sprintf("Mated in %d", (MateScore+score+1)/2)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}

// MateDistance returns the signed number of moves to mate encoded in score,
// or 0 when score is not a mate score.
func MateDistance(score int) int {
	switch {
	case score > MateScore-MaxPly:
		return (MateScore - score + 1) / 2
	case score < -MateScore+MaxPly:
		return -(MateScore + score + 1) / 2
	}
	return 0
}
