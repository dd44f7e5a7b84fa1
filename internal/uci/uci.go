package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/game"
	"github.com/abrenneke/rescue-chess/internal/storage"
)

// UCI implements the Universal Chess Interface protocol, extended with the
// rescue and drop move notation.
type UCI struct {
	engine *engine.Engine
	game   *game.Game

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // guards out

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc
	infinite   bool

	// Store, when set, receives Prefs after every setoption.
	Store *storage.Storage
	Prefs *storage.EnginePreferences

	Log logr.Logger
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine: eng,
		game:   game.New(eng),
		in:     in,
		out:    out,
		Prefs:  storage.DefaultPreferences(),
		Log:    logr.Discard(),
	}
}

func (u *UCI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// Run reads commands until quit or end of input. At end of input a running
// search is allowed to finish unless it is infinite; quit stops it.
func (u *UCI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		u.Log.V(2).Info("command", "line", line)

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.wait()
			u.printf("%s", u.game.Position().String())
		case "perft":
			u.handlePerft(args)
		case "eval":
			u.handleEval()
		default:
			u.printf("info string unknown command %s\n", cmd)
		}
	}
	u.wait()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	r := u.game.Rules()
	u.printf("id name RescueChess\n")
	u.printf("id author RescueChess Team\n\n")
	u.printf("option name Hash type spin default %d min 1 max 4096\n", u.engine.HashMB)
	u.printf("option name Threads type spin default %d min 1 max 256\n", u.engine.Threads)
	u.printf("option name Variant type combo default %s var rescue var classic\n", r.Variant)
	u.printf("option name Adjacency type combo default %s var orthogonal var surrounding\n", r.Adjacency)
	u.printf("option name Holding type combo default %s var any var ranked\n", r.Holding)
	u.printf("uciok\n")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.game.Reset()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4 b1d2Sd1
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.game.Reset()
	case "fen":
		if err := u.game.LoadFEN(strings.Join(args[1:movesAt], " ")); err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
	default:
		return
	}

	if movesAt+1 >= len(args) {
		return
	}
	for _, text := range args[movesAt+1:] {
		if _, err := u.game.MoveText(text); err != nil {
			u.printf("info string invalid move %s: %v\n", text, err)
			return
		}
	}
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()
	limits := parseGoOptions(args)

	u.engine.OnInfo = u.sendInfo
	u.game.SetLimits(limits)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.searchDone, u.cancel = done, cancel
	u.infinite = limits.Infinite

	go func() {
		defer close(done)
		res, err := u.game.BestMove(ctx)
		if err != nil {
			u.Log.Error(err, "search failed")
		}
		if err != nil || res.Move == board.NoMove {
			u.printf("bestmove 0000\n")
			return
		}
		u.printf("bestmove %s\n", res.Move)
	}()
}

// parseGoOptions converts "go" command arguments to search limits.
func parseGoOptions(args []string) engine.SearchLimits {
	var limits engine.SearchLimits
	ms := func(i int) time.Duration {
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "infinite":
			limits.Infinite = true
			continue
		case "depth", "nodes", "movetime", "wtime", "btime", "winc", "binc", "movestogo":
			if !hasValue {
				continue
			}
		default:
			continue
		}
		i++
		switch args[i-1] {
		case "depth":
			limits.Depth, _ = strconv.Atoi(args[i])
		case "nodes":
			limits.Nodes, _ = strconv.ParseUint(args[i], 10, 64)
		case "movetime":
			limits.MoveTime = ms(i)
		case "wtime":
			limits.Clock.Time[board.White] = ms(i)
		case "btime":
			limits.Clock.Time[board.Black] = ms(i)
		case "winc":
			limits.Clock.Inc[board.White] = ms(i)
		case "binc":
			limits.Clock.Inc[board.Black] = ms(i)
		case "movestogo":
			limits.Clock.MovesToGo, _ = strconv.Atoi(args[i])
		}
	}
	// A bare "go" searches until stopped.
	if limits.Depth == 0 && limits.Nodes == 0 && limits.MoveTime == 0 &&
		limits.Clock.Time == [2]time.Duration{} {
		limits.Infinite = true
	}
	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d seldepth %d", info.Depth, info.SelDepth)}

	if mate := engine.MateDistance(info.Score); mate != 0 {
		parts = append(parts, fmt.Sprintf("score mate %d", mate))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(info.Nodes)/info.Time.Seconds())))
	}
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancel()
	<-u.searchDone
	u.searchDone = nil
}

// wait lets a running search finish on its own. An infinite search never
// would, so it is stopped instead.
func (u *UCI) wait() {
	if u.searchDone == nil {
		return
	}
	if u.infinite {
		u.handleStop()
		return
	}
	<-u.searchDone
	u.cancel()
	u.searchDone = nil
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}
	u.wait()

	key, val := strings.ToLower(strings.Join(name, " ")), strings.Join(value, " ")
	rules := u.game.Rules()
	var err error

	switch key {
	case "hash":
		var mb int
		if mb, err = strconv.Atoi(val); err == nil && mb >= 1 {
			u.engine.HashMB = mb
			u.Prefs.HashMB = mb
		}
	case "threads":
		var n int
		if n, err = strconv.Atoi(val); err == nil && n >= 1 {
			u.engine.Threads = n
			u.Prefs.Threads = n
		}
	case "variant":
		rules.Variant, err = board.ParseVariant(val)
	case "adjacency":
		rules.Adjacency, err = board.ParseAdjacency(val)
	case "holding":
		rules.Holding, err = board.ParseHoldPolicy(val)
	default:
		u.printf("info string unknown option %s\n", strings.Join(name, " "))
		return
	}
	if err != nil {
		u.printf("info string bad value for %s: %v\n", key, err)
		return
	}

	if rules != u.game.Rules() {
		u.game.SetRules(rules)
		u.Prefs.Rules = rules.String()
	}
	if u.Store != nil {
		if err := u.Store.SavePreferences(u.Prefs); err != nil {
			u.Log.Error(err, "saving preferences")
		}
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	u.wait()
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(u.game.Position(), depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		u.printf("NPS: %s\n", humanize.Comma(int64(float64(nodes)/elapsed.Seconds())))
	}
}

// handleEval prints the static evaluation from the side to move's view.
func (u *UCI) handleEval() {
	u.wait()
	pos := u.game.Position()
	score := u.engine.Evaluate(pos)
	u.printf("info string eval %d (%s) %s to move\n", score, engine.ScoreToString(score), pos.SideToMove)
}
