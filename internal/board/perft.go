package board

import "sort"

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int, r Rules) int64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves(r)
	if depth == 1 {
		return int64(moves.Len())
	}
	var nodes int64
	for _, m := range moves.Slice() {
		u := p.MakeMove(m)
		nodes += p.Perft(depth-1, r)
		p.UnmakeMove(u)
	}
	return nodes
}

// DivideEntry is one root move's share of a perft count.
type DivideEntry struct {
	Move  Move
	Nodes int64
}

// Divide splits Perft by root move, sorted by move text.
func (p *Position) Divide(depth int, r Rules) []DivideEntry {
	if depth < 1 {
		return nil
	}
	moves := p.GenerateLegalMoves(r)
	out := make([]DivideEntry, 0, moves.Len())
	for _, m := range moves.Slice() {
		u := p.MakeMove(m)
		out = append(out, DivideEntry{Move: m, Nodes: p.Perft(depth-1, r)})
		p.UnmakeMove(u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Move.String() < out[j].Move.String() })
	return out
}
