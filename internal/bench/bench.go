// Package bench runs the engine over an EPD test suite and scores how many
// positions it solves.
package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/epd"
)

// Config controls a suite run.
type Config struct {
	Limits  engine.SearchLimits
	Jobs    int // positions searched at once
	Threads int // search threads per position
	HashMB  int // per job
	Rules   board.Rules
	Log     logr.Logger

	// Progress, if set, is called after each position with the number done.
	Progress func(done, total int)
}

// Outcome is the result for one suite position.
type Outcome struct {
	Record *epd.Record
	Result engine.SearchResult
	Solved bool
	Err    error
}

// Summary is a finished suite run.
type Summary struct {
	Fingerprint uint64
	Outcomes    []Outcome
	Solved      int
	Nodes       uint64
	Elapsed     time.Duration
}

// Fingerprint identifies a suite by its content, so runs over the same
// positions can be compared however the file is named.
func Fingerprint(records []*epd.Record) uint64 {
	d := xxhash.New()
	for _, r := range records {
		d.WriteString(r.String())
		d.WriteString("\n")
	}
	return d.Sum64()
}

// Score reports whether move answers the record: it must be one of the bm
// moves if any are given and none of the am moves.
func Score(rec *epd.Record, move board.Move) (bool, error) {
	bm, am := rec.BestMoves(), rec.AvoidMoves()
	if len(bm) == 0 && len(am) == 0 {
		return false, fmt.Errorf("%w: record has neither bm nor am", board.ErrMalformedNotation)
	}
	for _, san := range am {
		ok, err := epd.MatchSAN(move, san)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	if len(bm) == 0 {
		return true, nil
	}
	for _, san := range bm {
		ok, err := epd.MatchSAN(move, san)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Run searches every record, Jobs at a time. Each job owns an engine for the
// whole run. The outcomes keep the order of records.
func Run(ctx context.Context, records []*epd.Record, cfg Config) (*Summary, error) {
	jobs := max(1, cfg.Jobs)
	engines := make(chan *engine.Engine, jobs)
	for j := 0; j < jobs; j++ {
		eng := engine.NewEngine(max(1, cfg.HashMB))
		eng.Threads = max(1, cfg.Threads)
		eng.Rules = cfg.Rules
		engines <- eng
	}

	sum := &Summary{
		Fingerprint: Fingerprint(records),
		Outcomes:    make([]Outcome, len(records)),
	}
	start := time.Now()
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			eng := <-engines
			defer func() { engines <- eng }()

			res := eng.Search(ctx, rec.Position, cfg.Limits)
			out := Outcome{Record: rec, Result: res}
			if res.Move == board.NoMove {
				out.Err = fmt.Errorf("%w: %s", board.ErrNoLegalMoves, res.Status)
			} else {
				out.Solved, out.Err = Score(rec, res.Move)
			}
			sum.Outcomes[i] = out

			n := int(done.Add(1))
			cfg.Log.V(1).Info("position done", "line", rec.Line, "id", rec.ID(), "move", res.Move.String(),
				"solved", out.Solved, "nodes", res.Nodes)
			if cfg.Progress != nil {
				cfg.Progress(n, len(records))
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum.Elapsed = time.Since(start)
	for _, o := range sum.Outcomes {
		sum.Nodes += o.Result.Nodes
		if o.Solved {
			sum.Solved++
		}
	}
	return sum, nil
}

// SuccessRate is the solved share in percent.
func (s *Summary) SuccessRate() float64 {
	if len(s.Outcomes) == 0 {
		return 0
	}
	return float64(s.Solved) / float64(len(s.Outcomes)) * 100
}

// Report prints the totals and then every failed position.
func (s *Summary) Report(w io.Writer, verbose bool) {
	nps := 0.0
	if s.Elapsed > 0 {
		nps = float64(s.Nodes) / s.Elapsed.Seconds()
	}
	fmt.Fprintf(w, "Total positions tested: %d\n", len(s.Outcomes))
	fmt.Fprintf(w, "Successful positions: %d\n", s.Solved)
	fmt.Fprintf(w, "Success rate: %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(w, "Nodes: %s (%s)\n", humanize.Comma(int64(s.Nodes)), humanize.SIWithDigits(nps, 1, "nps"))
	fmt.Fprintf(w, "Total time: %.2fs\n", s.Elapsed.Seconds())

	if verbose {
		fmt.Fprintln(w, "\nAll Positions:")
	} else {
		fmt.Fprintln(w, "\nFailed Positions:")
	}
	for _, o := range s.Outcomes {
		if o.Solved && !verbose {
			continue
		}
		fmt.Fprintln(w)
		if o.Err != nil {
			fmt.Fprintf(w, "Position %d: Error - %v\n", o.Record.Line, o.Err)
			continue
		}
		if id := o.Record.ID(); id != "" {
			fmt.Fprintf(w, "Position ID: %s\n", id)
		}
		fmt.Fprintf(w, "Position %d\n", o.Record.Line)
		if bm := o.Record.BestMoves(); len(bm) > 0 {
			fmt.Fprintf(w, "Expected best move: %s\n", strings.Join(bm, " "))
		}
		if am := o.Record.AvoidMoves(); len(am) > 0 {
			fmt.Fprintf(w, "Avoid: %s\n", strings.Join(am, " "))
		}
		fmt.Fprintf(w, "Found best move: %s (%s, solved %v)\n", o.Result.Move, engine.ScoreToString(o.Result.Score), o.Solved)
		pv := make([]string, len(o.Result.PV))
		for i, m := range o.Result.PV {
			pv[i] = m.String()
		}
		fmt.Fprintf(w, "Principal variation: %s\n", strings.Join(pv, " "))
		fmt.Fprintf(w, "Nodes searched: %s\n", humanize.Comma(int64(o.Result.Nodes)))
		fmt.Fprintln(w, o.Record.Position.FEN())
	}
}
