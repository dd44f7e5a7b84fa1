package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
)

// Storage keys
const (
	keyPreferences  = "preferences"
	prefixStats     = "stats/"
	prefixBenchRuns = "bench/"
)

// EnginePreferences are the settings the binaries start from. Command-line
// flags override them; UCI setoption updates are written back.
type EnginePreferences struct {
	Threads    int           `json:"threads"`
	HashMB     int           `json:"hash_mb"`
	Rules      string        `json:"rules"`
	Difficulty string        `json:"difficulty"`
	Depth      int           `json:"depth"`
	MoveTime   time.Duration `json:"move_time"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DefaultPreferences returns the preferences used before anything is saved.
// Zero Threads means one per CPU.
func DefaultPreferences() *EnginePreferences {
	return &EnginePreferences{
		HashMB:     64,
		Rules:      "rescue/orthogonal/any",
		Difficulty: "medium",
	}
}

// MatchStats accumulates self-play results for one rule set.
type MatchStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByTermination map[string]int `json:"by_termination"`
	TotalPlies    int            `json:"total_plies"`
	LongestGame   int            `json:"longest_game"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewMatchStats returns empty statistics.
func NewMatchStats() *MatchStats {
	return &MatchStats{ByTermination: make(map[string]int)}
}

// MatchResult is the outcome of one finished self-play game. Winner is
// "white", "black" or "" for a draw.
type MatchResult struct {
	Rules       string
	Winner      string
	Termination string
	Plies       int
	Duration    time.Duration
}

// BenchRun is one pass over a test suite.
type BenchRun struct {
	Suite       string        `json:"suite"`
	Fingerprint uint64        `json:"fingerprint"`
	Rules       string        `json:"rules"`
	Depth       int           `json:"depth"`
	Positions   int           `json:"positions"`
	Solved      int           `json:"solved"`
	Nodes       uint64        `json:"nodes"`
	Elapsed     time.Duration `json:"elapsed"`
	Started     time.Time     `json:"started"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the database under dataDir. An empty dataDir means
// the platform default. Badger's own log lines go to log.
func Open(dataDir string, log logr.Logger) (*Storage, error) {
	dbDir, err := DatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("opening database", "dir", dbDir)
	return open(badger.DefaultOptions(dbDir), log)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(log logr.Logger) (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log logr.Logger) (*Storage, error) {
	opts = opts.WithLogger(badgerLogger{log.WithName("badger")})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value at key into v. A missing key leaves v untouched.
func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SavePreferences saves engine preferences
func (s *Storage) SavePreferences(prefs *EnginePreferences) error {
	prefs.UpdatedAt = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads engine preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*EnginePreferences, error) {
	prefs := DefaultPreferences()
	err := s.get(keyPreferences, prefs)
	return prefs, err
}

// LoadStats returns the self-play statistics for a rule set.
func (s *Storage) LoadStats(rules string) (*MatchStats, error) {
	stats := NewMatchStats()
	if err := s.get(prefixStats+rules, stats); err != nil {
		return nil, err
	}
	if stats.ByTermination == nil {
		stats.ByTermination = make(map[string]int)
	}
	return stats, nil
}

// RecordMatch adds a finished game to the statistics of its rule set.
func (s *Storage) RecordMatch(result MatchResult) (*MatchStats, error) {
	stats, err := s.LoadStats(result.Rules)
	if err != nil {
		return nil, err
	}

	stats.GamesPlayed++
	stats.TotalPlies += result.Plies
	stats.TotalPlayTime += result.Duration
	stats.LongestGame = max(stats.LongestGame, result.Plies)
	stats.ByTermination[result.Termination]++

	switch result.Winner {
	case "white":
		stats.WhiteWins++
	case "black":
		stats.BlackWins++
	default:
		stats.Draws++
	}

	return stats, s.put(prefixStats+result.Rules, stats)
}

// DecisiveRate returns the share of games that did not end drawn, as a
// percentage (0-100).
func (s *MatchStats) DecisiveRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.WhiteWins+s.BlackWins) / float64(s.GamesPlayed) * 100
}

// AverageLength returns the mean game length in plies.
func (s *MatchStats) AverageLength() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func benchPrefix(fingerprint uint64) string {
	return fmt.Sprintf("%s%016x/", prefixBenchRuns, fingerprint)
}

// AddBenchRun appends a run to the history of its suite.
func (s *Storage) AddBenchRun(run BenchRun) error {
	if run.Started.IsZero() {
		run.Started = time.Now()
	}
	key := fmt.Sprintf("%s%020d", benchPrefix(run.Fingerprint), run.Started.UnixNano())
	return s.put(key, run)
}

// BenchHistory returns the runs recorded for a suite fingerprint, oldest first.
func (s *Storage) BenchHistory(fingerprint uint64) ([]BenchRun, error) {
	var runs []BenchRun
	prefix := []byte(benchPrefix(fingerprint))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var run BenchRun
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

// badgerLogger routes badger's printf-style logging into logr. Badger is
// chatty at info level, so its info and debug lines are demoted.
type badgerLogger struct{ log logr.Logger }

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(nil, fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.V(1).Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.V(2).Info(fmt.Sprintf(format, args...))
}
