// Package cli holds the flags and startup steps the binaries share: stored
// preferences, flag overrides, logging and profiling.
package cli

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/go-logr/logr"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/logging"
	"github.com/abrenneke/rescue-chess/internal/storage"
)

// Options are the common command-line settings. Zero values mean "not set"
// so stored preferences show through.
type Options struct {
	Threads    int
	HashMB     int
	Depth      int
	MoveTime   time.Duration
	Variant    string
	Adjacency  string
	Holding    string
	Difficulty string
	DataDir    string
	NoStore    bool
	Verbosity  int
	CPUProfile string
}

// Register adds the common flags to fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.IntVar(&o.Threads, "threads", 0, "search threads (default: stored value or one per CPU)")
	fs.IntVar(&o.HashMB, "hash", 0, "transposition table size in MB")
	fs.IntVar(&o.Depth, "depth", 0, "search depth in plies")
	fs.DurationVar(&o.MoveTime, "movetime", 0, "time per move")
	fs.StringVar(&o.Variant, "variant", "", "rescue or classic")
	fs.StringVar(&o.Adjacency, "adjacency", "", "orthogonal or surrounding")
	fs.StringVar(&o.Holding, "holding", "", "any or ranked")
	fs.StringVar(&o.Difficulty, "difficulty", "", "easy, medium or hard; sets depth and movetime unless given")
	fs.StringVar(&o.DataDir, "data-dir", "", "directory for the preferences database")
	fs.BoolVar(&o.NoStore, "no-store", false, "do not open the preferences database")
	fs.IntVar(&o.Verbosity, "v", 0, "log verbosity")
	fs.StringVar(&o.CPUProfile, "cpuprofile", "", "write cpu profile to file")
}

// Env is what a binary runs with once startup is done.
type Env struct {
	Log    logr.Logger
	Store  *storage.Storage // nil with -no-store
	Prefs  *storage.EnginePreferences
	Engine *engine.Engine
	Limits engine.SearchLimits

	stopProfile func()
}

// Setup opens the store, merges the flags over the stored preferences and
// builds an engine from the result.
func (o *Options) Setup(name string) (*Env, error) {
	env := &Env{Log: logging.New(name, o.Verbosity), Prefs: storage.DefaultPreferences()}

	if !o.NoStore {
		store, err := storage.Open(o.DataDir, env.Log)
		if err != nil {
			return nil, err
		}
		env.Store = store
		if env.Prefs, err = store.LoadPreferences(); err != nil {
			store.Close()
			return nil, err
		}
	}

	p := env.Prefs
	if o.Threads > 0 {
		p.Threads = o.Threads
	}
	if o.HashMB > 0 {
		p.HashMB = o.HashMB
	}
	if o.Difficulty != "" {
		p.Difficulty = o.Difficulty
	}
	if o.Depth > 0 {
		p.Depth = o.Depth
	}
	if o.MoveTime > 0 {
		p.MoveTime = o.MoveTime
	}
	rules, err := o.rules(p.Rules)
	if err != nil {
		env.Close()
		return nil, err
	}
	p.Rules = rules.String()

	eng := engine.NewEngine(max(1, p.HashMB))
	if p.Threads > 0 {
		eng.Threads = p.Threads
	}
	eng.Rules = rules
	eng.Log = env.Log.WithName("engine")
	if p.Difficulty != "" {
		d, err := engine.ParseDifficulty(p.Difficulty)
		if err != nil {
			env.Close()
			return nil, err
		}
		eng.SetDifficulty(d)
	}
	env.Engine = eng

	env.Limits = eng.Limits()
	if p.Depth > 0 {
		env.Limits.Depth = p.Depth
	}
	if p.MoveTime > 0 {
		env.Limits.MoveTime = p.MoveTime
	}

	if o.CPUProfile == "" {
		o.CPUProfile = os.Getenv("CPUPROFILE")
	}
	if o.CPUProfile != "" {
		f, err := os.Create(o.CPUProfile)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			env.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		env.stopProfile = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
		env.Log.Info("CPU profiling enabled", "path", o.CPUProfile)
	}

	env.Log.V(1).Info("engine ready", "threads", eng.Threads, "hashMB", eng.HashMB, "rules", rules.String(),
		"depth", env.Limits.Depth, "movetime", env.Limits.MoveTime)
	return env, nil
}

// rules starts from the stored rule string and applies any rule flags.
func (o *Options) rules(stored string) (board.Rules, error) {
	r, err := board.ParseRules(stored)
	if err != nil {
		r = board.DefaultRules()
	}
	if o.Variant != "" {
		if r.Variant, err = board.ParseVariant(o.Variant); err != nil {
			return r, err
		}
	}
	if o.Adjacency != "" {
		if r.Adjacency, err = board.ParseAdjacency(o.Adjacency); err != nil {
			return r, err
		}
	}
	if o.Holding != "" {
		if r.Holding, err = board.ParseHoldPolicy(o.Holding); err != nil {
			return r, err
		}
	}
	return r, nil
}

// SavePreferences writes the merged preferences back, if a store is open.
func (e *Env) SavePreferences() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.SavePreferences(e.Prefs)
}

// Close stops profiling and closes the store.
func (e *Env) Close() error {
	if e.stopProfile != nil {
		e.stopProfile()
		e.stopProfile = nil
	}
	if e.Store != nil {
		err := e.Store.Close()
		e.Store = nil
		return err
	}
	return nil
}
