// Package selfplay lets the engine play both sides of a game.
package selfplay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/game"
	"github.com/abrenneke/rescue-chess/internal/storage"
)

// DefaultMaxPlies ends a game as a draw when nobody has won by then.
const DefaultMaxPlies = 300

// Config controls one self-play game.
type Config struct {
	StartFEN string // empty means the standard layout
	MaxPlies int    // zero means DefaultMaxPlies
	Limits   engine.SearchLimits

	// Out receives one line per move and the result; nil prints nothing.
	Out io.Writer
	Log logr.Logger
}

// Result is a finished game.
type Result struct {
	Status   game.Status
	Capped   bool        // stopped by the ply cap, not by the rules
	Winner   board.Color // NoColor for a draw
	Moves    []board.Move
	FinalFEN string
	Duration time.Duration
}

// Termination names how the game ended.
func (r Result) Termination() string {
	if r.Capped {
		return "move cap"
	}
	return r.Status.String()
}

// Score is the PGN-style result: "1-0", "0-1" or "1/2-1/2".
func (r Result) Score() string {
	switch r.Winner {
	case board.White:
		return "1-0"
	case board.Black:
		return "0-1"
	}
	return "1/2-1/2"
}

// MatchResult converts r for the statistics store.
func (r Result) MatchResult(rules board.Rules) storage.MatchResult {
	winner := ""
	if r.Winner != board.NoColor {
		winner = r.Winner.String()
	}
	return storage.MatchResult{
		Rules:       rules.String(),
		Winner:      winner,
		Termination: r.Termination(),
		Plies:       len(r.Moves),
		Duration:    r.Duration,
	}
}

// Play runs a game on g from cfg.StartFEN, asking the engine for a move on
// every turn until the game ends or the ply cap is hit. Each move is searched
// with cfg.Limits.
func Play(ctx context.Context, g *game.Game, cfg Config) (Result, error) {
	start := time.Now()
	if cfg.StartFEN != "" {
		if err := g.LoadFEN(cfg.StartFEN); err != nil {
			return Result{}, err
		}
	} else {
		g.Reset()
	}
	g.SetLimits(cfg.Limits)
	maxPlies := cfg.MaxPlies
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}

	res := Result{Winner: board.NoColor}
	for len(g.History()) < maxPlies {
		if res.Status = g.Status(); res.Status.Over() {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		mover := g.Position().SideToMove
		sr, err := g.PlayBest(ctx)
		if err != nil {
			return res, fmt.Errorf("ply %d: %w", len(g.History())+1, err)
		}
		ply := len(g.History())
		cfg.Log.V(1).Info("move", "ply", ply, "side", mover.String(), "move", sr.Move.String(),
			"score", sr.Score, "depth", sr.Depth, "nodes", sr.Nodes)
		if cfg.Out != nil {
			fmt.Fprintf(cfg.Out, "%3d. %-5s %-10s %8s  depth %d\n", (ply+1)/2, mover, sr.Move,
				engine.ScoreToString(sr.Score), sr.Depth)
		}
	}

	res.Status = g.Status()
	res.Capped = !res.Status.Over()
	if res.Status == game.Checkmate {
		res.Winner = g.Position().SideToMove.Other()
	}
	res.Moves = g.History()
	res.FinalFEN = g.PositionFEN()
	res.Duration = time.Since(start)

	cfg.Log.Info("game over", "result", res.Score(), "termination", res.Termination(), "plies", len(res.Moves))
	if cfg.Out != nil {
		fmt.Fprintf(cfg.Out, "%s (%s) after %d plies\n%s\n", res.Score(), res.Termination(), len(res.Moves), res.FinalFEN)
	}
	return res, nil
}
