package engine

import (
	"testing"
	"time"

	"github.com/abrenneke/rescue-chess/internal/board"
)

func TestEvaluateStartIsTempo(t *testing.T) {
	pos := board.NewPosition()
	if got := Evaluate(pos); got != tempoBonus {
		t.Errorf("Evaluate(start) = %d, want %d", got, tempoBonus)
	}
}

func TestEvaluateMirrored(t *testing.T) {
	pairs := [][2]string{
		{"4k3/8/8/8/3N4/8/PP6/4K3 w - - 0 1", "4k3/pp6/8/3n4/8/8/8/4K3 b - - 0 1"},
		{"4k3/8/8/8/8/8/8/1NxR2K3 w - - 0 1", "1nxr2k3/8/8/8/8/8/8/4K3 b - - 0 1"},
	}
	for _, p := range pairs {
		a, b := mustParse(t, p[0]), mustParse(t, p[1])
		if ea, eb := Evaluate(a), Evaluate(b); ea != eb {
			t.Errorf("%s = %d but its mirror = %d", p[0], ea, eb)
		}
	}
}

func TestEvaluateCargo(t *testing.T) {
	held := Evaluate(mustParse(t, "4k3/8/8/8/8/8/8/4KxQ3 w - - 0 1"))
	onBoard := Evaluate(mustParse(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1"))
	bare := Evaluate(mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
	t.Logf("held %d, on board %d, bare %d", held, onBoard, bare)
	if held <= bare+QueenValue/2 {
		t.Errorf("a held queen is worth only %d", held-bare)
	}
	if held >= onBoard {
		t.Errorf("held queen (%d) scored at least the free queen (%d)", held, onBoard)
	}
}

func TestEvalWeightsOff(t *testing.T) {
	e := NewEvaluator(EvalWeights{})
	pos := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if got := e.Evaluate(pos); got != 0 {
		t.Errorf("all terms off scored %d", got)
	}
	w := EvalWeights{Material: 100}
	e = NewEvaluator(w)
	if got := e.Evaluate(mustParse(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")); got != QueenValue {
		t.Errorf("material only = %d, want %d", got, QueenValue)
	}
}

func TestPawnStructure(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want score
	}{
		{"isolated", "4k3/8/8/8/8/8/P7/4K3 w - - 0 1", score{isolatedPawnMg + passedPawnMg[1], isolatedPawnEg + passedPawnEg[1]}},
		{"doubled blocked", "4k3/p7/8/8/8/P7/P7/4K3 w - - 0 1", score{doubledPawnMg + 2*isolatedPawnMg - isolatedPawnMg, doubledPawnEg + 2*isolatedPawnEg - isolatedPawnEg}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := evaluatePawns(mustParse(t, tc.fen)); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1)
	pos := board.NewPosition()
	key := pawnKey(pos)

	if _, _, found := pt.Probe(key); found {
		t.Error("Expected cache miss on first probe")
	}
	pt.Store(key, -15, -20)
	mg, eg, found := pt.Probe(key)
	if !found || mg != -15 || eg != -20 {
		t.Errorf("probe = %d %d %v", mg, eg, found)
	}

	m, err := board.ParseMove(pos, "e2e4", board.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	if pawnKey(pos) == key {
		t.Error("pawn key did not change after a pawn move")
	}
	m, _ = board.ParseMove(pos, "g8f6", board.DefaultRules())
	before := pawnKey(pos)
	pos.MakeMove(m)
	if pawnKey(pos) != before {
		t.Error("pawn key changed after a knight move")
	}
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(1)
	m := board.Move{From: board.E2, To: board.E4, Kind: board.KindNormal, Piece: board.Pawn,
		Captured: board.NoPieceType, CapturedCargo: board.NoPieceType, Target: board.NoSquare, Promotion: board.NoPieceType}

	const key = 0xdeadbeefcafef00d
	if _, ok := tt.Probe(key); ok {
		t.Fatal("hit in an empty table")
	}
	tt.Store(key, 6, 42, TTExact, m)
	e, ok := tt.Probe(key)
	if !ok || e.BestMove != m || e.Score != 42 || e.Depth != 6 || e.Flag != TTExact {
		t.Errorf("probe = %+v %v", e, ok)
	}

	// A shallower bound does not replace a deeper entry.
	tt.Store(key, 2, -5, TTUpperBound, board.NoMove)
	if e, _ := tt.Probe(key); e.Depth != 6 {
		t.Errorf("deep entry replaced: %+v", e)
	}
	if tt.Hits() != 2 {
		t.Errorf("hits = %d", tt.Hits())
	}
	tt.Clear()
	if _, ok := tt.Probe(key); ok {
		t.Error("hit after Clear")
	}
}

func TestMateScoresThroughTT(t *testing.T) {
	for _, s := range []int{MateScore - 3, -MateScore + 7, 150} {
		for _, ply := range []int{0, 4, 11} {
			if got := AdjustScoreFromTT(AdjustScoreToTT(s, ply), ply); got != s {
				t.Errorf("score %d ply %d round trips to %d", s, ply, got)
			}
		}
	}
}

func TestMoveOrdering(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3q4/8/2NxB5/8/K7 w - - 0 1")
	moves := pos.GenerateLegalMoves(board.DefaultRules())
	mo := NewMoveOrderer()

	var killer board.Move
	for _, m := range moves.Slice() {
		if m.Kind == board.KindNormal && m.Piece == board.King {
			killer = m
			break
		}
	}
	mo.UpdateKillers(killer, 2)

	scores := mo.ScoreMoves(moves, 2, board.NoMove, board.NoMove)
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
	}

	first := moves.Get(0)
	if !first.IsCapture() || first.Captured != board.Queen {
		t.Errorf("first move %s, want the queen capture", first)
	}
	lastCargo, firstKiller, firstQuiet := -1, -1, -1
	for i, m := range moves.Slice() {
		switch {
		case m.IsDrop() && !m.IsCapture():
			lastCargo = i
		case m == killer:
			firstKiller = i
		case m.IsQuiet() && firstQuiet < 0:
			firstQuiet = i
		}
	}
	if lastCargo < 0 || firstKiller < lastCargo || firstQuiet < firstKiller {
		t.Errorf("order: last drop %d, killer %d, first other quiet %d", lastCargo, firstKiller, firstQuiet)
	}
}

func TestTimeManager(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(ClockLimits{Time: [2]time.Duration{60 * time.Second, 60 * time.Second}}, board.White, 20)
	if tm.OptimumTime() != 1200*time.Millisecond {
		t.Errorf("optimum = %v", tm.OptimumTime())
	}
	if tm.MaximumTime() != 6*time.Second {
		t.Errorf("maximum = %v", tm.MaximumTime())
	}
	tm.AdjustForStability(6)
	if tm.OptimumTime() != 480*time.Millisecond {
		t.Errorf("stable optimum = %v", tm.OptimumTime())
	}
	tm.AdjustForInstability(4)
	if tm.OptimumTime() != 2400*time.Millisecond {
		t.Errorf("unstable optimum = %v", tm.OptimumTime())
	}

	tm.Init(ClockLimits{}, board.Black, 0)
	if tm.MaximumTime() != time.Hour {
		t.Errorf("no clock should mean no limit, got %v", tm.MaximumTime())
	}
}
