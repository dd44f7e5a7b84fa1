// Command rescue-sts runs the engine over an EPD suite such as the Strategic
// Test Suite and reports how many positions it solves.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abrenneke/rescue-chess/internal/bench"
	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/cli"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/epd"
	"github.com/abrenneke/rescue-chess/internal/storage"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	jobs := flag.Int("jobs", runtime.NumCPU(), "positions searched at once")
	verbose := flag.Bool("verbose", false, "list every position, not only the failures")
	history := flag.Bool("history", false, "print earlier runs of this suite")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <suite.epd>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	// Suites are plain chess unless asked otherwise.
	if opts.Variant == "" {
		opts.Variant = board.VariantClassic.String()
	}
	if opts.Threads == 0 {
		opts.Threads = 1
	}

	env, err := opts.Setup("sts")
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	path := flag.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	records, err := epd.ReadAll(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	limits := engine.SearchLimits{Depth: opts.Depth, MoveTime: opts.MoveTime}
	if limits.Depth == 0 && limits.MoveTime == 0 {
		limits.Depth = 3
	}

	fmt.Printf("Running with %d worker threads\n", *jobs)
	fmt.Printf("Loaded %d positions (%s hash per job)\n", len(records),
		humanize.IBytes(uint64(env.Engine.HashMB)<<20))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var mu sync.Mutex
	last := time.Now()
	sum, err := bench.Run(ctx, records, bench.Config{
		Limits:  limits,
		Jobs:    *jobs,
		Threads: env.Engine.Threads,
		HashMB:  env.Engine.HashMB,
		Rules:   env.Engine.Rules,
		Log:     env.Log,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if done == total || time.Since(last) >= time.Second {
				last = time.Now()
				fmt.Printf("Progress: %d/%d (%.1f%%)\n", done, total, float64(done)/float64(total)*100)
			}
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nFinal Results:")
	sum.Report(os.Stdout, *verbose)

	if env.Store == nil {
		return
	}
	run := storage.BenchRun{
		Suite:       filepath.Base(path),
		Fingerprint: sum.Fingerprint,
		Rules:       env.Engine.Rules.String(),
		Depth:       limits.Depth,
		Positions:   len(sum.Outcomes),
		Solved:      sum.Solved,
		Nodes:       sum.Nodes,
		Elapsed:     sum.Elapsed,
	}
	if err := env.Store.AddBenchRun(run); err != nil {
		log.Fatal(err)
	}
	if *history {
		runs, err := env.Store.BenchHistory(sum.Fingerprint)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("\nHistory for %s (%016x):\n", run.Suite, run.Fingerprint)
		for _, r := range runs {
			fmt.Printf("  %s  depth %2d  %3d/%d solved  %s nodes  %s  (%s)\n", r.Started.Format(time.DateTime),
				r.Depth, r.Solved, r.Positions, humanize.Comma(int64(r.Nodes)), r.Elapsed.Round(time.Millisecond),
				humanize.Time(r.Started))
		}
	}
}
