// Package game is the front door to the engine: it owns the current position,
// the move history and a search engine, and serialises every call.
package game

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/engine"
)

// Status is the state of play in the current position.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	FiftyMove
	Repetition
	InsufficientMaterial
)

var statusNames = [...]string{
	Ongoing:              "ongoing",
	Checkmate:            "checkmate",
	Stalemate:            "stalemate",
	FiftyMove:            "fifty-move rule",
	Repetition:           "threefold repetition",
	InsufficientMaterial: "insufficient material",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Over reports whether the game has ended.
func (s Status) Over() bool { return s != Ongoing }

// Game holds one game in progress.
type Game struct {
	mu sync.Mutex

	pos    *board.Position
	eng    *engine.Engine
	limits engine.SearchLimits

	moves  []board.Move
	undos  []board.Undo
	hashes []uint64 // every position so far, current one last

	Log logr.Logger
}

// New starts a game from the standard layout. The engine's Rules decide
// which moves are legal.
func New(eng *engine.Engine) *Game {
	g := &Game{
		eng:    eng,
		limits: eng.Limits(),
		Log:    logr.Discard(),
	}
	g.resetTo(board.NewPosition())
	return g
}

func (g *Game) resetTo(pos *board.Position) {
	g.pos = pos
	g.moves = nil
	g.undos = nil
	g.hashes = []uint64{pos.Hash}
}

// Reset returns to the starting layout and forgets the history.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetTo(board.NewPosition())
	g.Log.V(1).Info("game reset")
}

// LoadFEN replaces the position. On error the game is unchanged.
func (g *Game) LoadFEN(fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetTo(pos)
	g.Log.V(1).Info("position loaded", "fen", fen)
	return nil
}

// PositionFEN returns the current position in extended FEN.
func (g *Game) PositionFEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.FEN()
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.Copy()
}

// Rules returns the rule set moves are generated under.
func (g *Game) Rules() board.Rules {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Rules
}

// SetRules switches the rule set. The position and history are kept.
func (g *Game) SetRules(r board.Rules) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eng.Rules = r
}

// SetLimits sets the limits BestMove searches with.
func (g *Game) SetLimits(l engine.SearchLimits) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits = l
}

// Limits returns the limits BestMove searches with.
func (g *Game) Limits() engine.SearchLimits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limits
}

// LegalMoves returns every legal move in the current position.
func (g *Game) LegalMoves() []board.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.pos.GenerateLegalMoves(g.eng.Rules).Slice())
}

// ValidMovesFrom returns the legal moves of the piece on sq, rescue and drop
// variants included. An empty or enemy square yields none.
func (g *Game) ValidMovesFrom(sq board.Square) []board.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []board.Move
	for _, m := range g.pos.GenerateLegalMoves(g.eng.Rules).Slice() {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}

// MovePiece plays m, which must be one of the current legal moves, and
// returns the new FEN.
func (g *Game) MovePiece(m board.Move) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	legal := g.pos.GenerateLegalMoves(g.eng.Rules)
	if legal.Len() == 0 {
		return "", fmt.Errorf("%w: game is over (%s)", board.ErrNoLegalMoves, g.status(legal.Len()))
	}
	if !legal.Contains(m) {
		return "", fmt.Errorf("%w: %s", board.ErrIllegalMove, m)
	}
	g.apply(m)
	return g.pos.FEN(), nil
}

// MoveText parses text in move notation and plays it.
func (g *Game) MoveText(text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.pos.HasLegalMoves(g.eng.Rules) {
		return "", fmt.Errorf("%w: game is over", board.ErrNoLegalMoves)
	}
	m, err := board.ParseMove(g.pos, text, g.eng.Rules)
	if err != nil {
		return "", err
	}
	g.apply(m)
	return g.pos.FEN(), nil
}

// MoveFromTo plays the first legal move from one square to another. When the
// same squares allow several moves (promotions, rescues, drops) the plain
// move, or the queen promotion, comes first.
func (g *Game) MoveFromTo(from, to board.Square) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	legal := g.pos.GenerateLegalMoves(g.eng.Rules)
	if legal.Len() == 0 {
		return "", fmt.Errorf("%w: game is over", board.ErrNoLegalMoves)
	}
	for _, m := range legal.Slice() {
		if m.From == from && m.To == to {
			g.apply(m)
			return g.pos.FEN(), nil
		}
	}
	return "", fmt.Errorf("%w: nothing moves from %s to %s", board.ErrIllegalMove, from, to)
}

func (g *Game) apply(m board.Move) {
	u := g.pos.MakeMove(m)
	g.moves = append(g.moves, m)
	g.undos = append(g.undos, u)
	g.hashes = append(g.hashes, g.pos.Hash)
	g.Log.V(2).Info("move", "move", m.String(), "fen", g.pos.FEN())
}

// Undo takes back the last move.
func (g *Game) Undo() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.undos)
	if n == 0 {
		return fmt.Errorf("%w: nothing to undo", board.ErrIllegalMove)
	}
	g.pos.UnmakeMove(g.undos[n-1])
	g.undos = g.undos[:n-1]
	g.moves = g.moves[:n-1]
	g.hashes = g.hashes[:len(g.hashes)-1]
	return nil
}

// History returns the moves played since the last reset or load.
func (g *Game) History() []board.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.moves)
}

// Status reports whether the game is still going and, if not, why.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status(g.pos.GenerateLegalMoves(g.eng.Rules).Len())
}

func (g *Game) status(legal int) Status {
	switch {
	case legal == 0 && g.pos.InCheck():
		return Checkmate
	case legal == 0:
		return Stalemate
	case g.pos.HalfMoveClock >= 100:
		return FiftyMove
	case g.repetitions() >= 3:
		return Repetition
	case g.pos.IsInsufficientMaterial():
		return InsufficientMaterial
	}
	return Ongoing
}

// repetitions counts how often the current position has occurred.
func (g *Game) repetitions() int {
	count := 0
	cur := g.pos.Hash
	for _, h := range g.hashes {
		if h == cur {
			count++
		}
	}
	return count
}

// BestMove searches the current position for the side to move. A finished
// game is not an error: the result carries NoMove and a Checkmate or
// Stalemate status.
func (g *Game) BestMove(ctx context.Context) (engine.SearchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.search(ctx, g.pos.Copy())
}

// SearchFor searches the current position as if c were to move. Searching
// for the side not on move is refused while the side on move is in check.
func (g *Game) SearchFor(ctx context.Context, c board.Color) (engine.SearchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos := g.pos.Copy()
	if c != pos.SideToMove {
		if pos.InCheck() {
			return engine.SearchResult{}, fmt.Errorf("%w: %s is in check", board.ErrIllegalMove, pos.SideToMove)
		}
		pos.MakeNullMove()
	}
	return g.search(ctx, pos)
}

func (g *Game) search(ctx context.Context, pos *board.Position) (engine.SearchResult, error) {
	if pos.Hash == g.pos.Hash {
		g.eng.SetHistory(g.hashes[:len(g.hashes)-1])
	} else {
		g.eng.SetHistory(nil)
	}
	res := g.eng.Search(ctx, pos, g.limits)
	g.Log.V(1).Info("search", "fen", pos.FEN(), "move", res.Move.String(), "score", res.Score,
		"depth", res.Depth, "nodes", res.Nodes, "status", res.Status.String())
	return res, nil
}

// PlayBest searches the current position and plays the result. It fails
// with ErrNoLegalMoves when the game is already over.
func (g *Game) PlayBest(ctx context.Context) (engine.SearchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, err := g.search(ctx, g.pos.Copy())
	if err != nil {
		return res, err
	}
	if res.Move == board.NoMove {
		return res, fmt.Errorf("%w: %s", board.ErrNoLegalMoves, res.Status)
	}
	g.apply(res.Move)
	return res, nil
}
