package engine

import (
	"time"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// ClockLimits describes a game clock: remaining time and increment per color.
type ClockLimits struct {
	Time      [2]time.Duration
	Inc       [2]time.Duration
	MovesToGo int // 0 = sudden death
}

// Active reports whether the side to move has a clock running.
func (c ClockLimits) Active(us board.Color) bool {
	return c.Time[us] > 0
}

// TimeManager turns a clock into a soft target and a hard limit for one move.
type TimeManager struct {
	baseTime    time.Duration
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init allocates time for a search starting now. ply is the game ply.
func (tm *TimeManager) Init(clock ClockLimits, us board.Color, ply int) {
	tm.startTime = time.Now()

	timeLeft := clock.Time[us]
	if timeLeft <= 0 {
		tm.baseTime = time.Hour
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		return
	}

	mtg := clock.MovesToGo
	if mtg == 0 {
		// Sudden death: guess the moves left from the game ply.
		mtg = min(max(55-ply/4, 12), 55)
	}

	base := timeLeft/time.Duration(mtg) + clock.Inc[us]*9/10
	tm.optimumTime = base
	if ply < 8 {
		tm.optimumTime = base * 85 / 100
	}

	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)
	tm.maximumTime = min(tm.maximumTime, timeLeft*95/100)

	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, 50*time.Millisecond)
	tm.baseTime = tm.optimumTime
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the hard limit for this move.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// PastOptimum reports whether starting another iteration would be wasteful.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}

// AdjustForStability shortens the target when the best move has held for
// several iterations. Adjustments are relative to the initial allocation, so
// calling it after every iteration does not compound.
func (tm *TimeManager) AdjustForStability(stability int) {
	switch {
	case stability >= 6:
		tm.optimumTime = tm.baseTime * 40 / 100
	case stability >= 4:
		tm.optimumTime = tm.baseTime * 60 / 100
	case stability >= 2:
		tm.optimumTime = tm.baseTime * 80 / 100
	default:
		tm.optimumTime = tm.baseTime
	}
}

// AdjustForInstability stretches the target, up to the hard limit, when the
// best move keeps changing.
func (tm *TimeManager) AdjustForInstability(changes int) {
	switch {
	case changes >= 4:
		tm.optimumTime = min(tm.baseTime*2, tm.maximumTime)
	case changes >= 2:
		tm.optimumTime = min(tm.baseTime*3/2, tm.maximumTime)
	}
}
