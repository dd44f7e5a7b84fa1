package selfplay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/game"
	"github.com/abrenneke/rescue-chess/internal/storage"
)

func newGame() *game.Game {
	eng := engine.NewEngine(4)
	eng.Threads = 2
	return game.New(eng)
}

func TestPlay(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		score       string
		termination string
		plies       int
	}{
		{
			name:        "mate in one",
			cfg:         Config{StartFEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", Limits: engine.SearchLimits{Depth: 2}},
			score:       "1-0",
			termination: "checkmate",
			plies:       1,
		},
		{
			name:        "dead position",
			cfg:         Config{StartFEN: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", Limits: engine.SearchLimits{Depth: 2}},
			score:       "1/2-1/2",
			termination: "insufficient material",
			plies:       0,
		},
		{
			name:        "ply cap",
			cfg:         Config{MaxPlies: 4, Limits: engine.SearchLimits{Depth: 1}},
			score:       "1/2-1/2",
			termination: "move cap",
			plies:       4,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			tc.cfg.Out = &out
			res, err := Play(context.Background(), newGame(), tc.cfg)
			if err != nil {
				t.Fatal(err)
			}
			t.Log(out.String())
			if res.Score() != tc.score || res.Termination() != tc.termination || len(res.Moves) != tc.plies {
				t.Errorf("got %s %s after %d plies", res.Score(), res.Termination(), len(res.Moves))
			}
			if !strings.Contains(out.String(), tc.termination) {
				t.Error("result line missing from output")
			}
		})
	}
}

func TestPlayRecordsStats(t *testing.T) {
	store, err := storage.OpenInMemory(logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	g := newGame()
	res, err := Play(context.Background(), g, Config{
		StartFEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		Limits:   engine.SearchLimits{Depth: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	stats, err := store.RecordMatch(res.MatchResult(g.Rules()))
	if err != nil {
		t.Fatal(err)
	}
	if stats.WhiteWins != 1 || stats.ByTermination["checkmate"] != 1 || stats.LongestGame != 1 {
		t.Errorf("stats %+v", stats)
	}
	if got, _ := store.LoadStats(board.DefaultRules().String()); got.GamesPlayed != 1 {
		t.Errorf("stats stored under another key: %+v", got)
	}
}

func TestPlayBadFEN(t *testing.T) {
	if _, err := Play(context.Background(), newGame(), Config{StartFEN: "nonsense"}); err == nil {
		t.Error("bad start position accepted")
	}
}

func TestPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Play(ctx, newGame(), Config{Limits: engine.SearchLimits{Depth: 1}}); err == nil {
		t.Error("cancelled context ignored")
	}
}
