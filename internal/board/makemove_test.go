package board

import (
	"math/rand"
	"testing"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func movesFrom(pos *Position, r Rules, from Square) []Move {
	var out []Move
	for _, m := range pos.GenerateLegalMoves(r).Slice() {
		if m.From == from {
			out = append(out, m)
		}
	}
	return out
}

func TestPawnFromE2(t *testing.T) {
	pos := NewPosition()
	var normal, other []Move
	for _, m := range movesFrom(pos, DefaultRules(), E2) {
		if m.Kind == KindNormal {
			normal = append(normal, m)
		} else {
			other = append(other, m)
		}
	}
	if len(normal) != 2 {
		t.Fatalf("got %d normal moves from e2: %v", len(normal), normal)
	}
	for i, to := range []Square{E3, E4} {
		if normal[i].To != to {
			t.Errorf("move %d = %v, want e2%v", i, normal[i], to)
		}
	}
	// Besides the pushes the pawn may only pick up a neighbour in place.
	for _, m := range other {
		if m.Kind != KindNormalAndRescue || m.To != E2 {
			t.Errorf("unexpected move %v (%v)", m, m.Kind)
		}
	}
	if len(other) != 2 {
		t.Errorf("in-place rescues %v, want e2e2Sd2 and e2e2Sf2", other)
	}
}

func TestEnPassantLosesCargo(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3pxnP3/8/8/8/4K3 w - d6 0 1")
	before := pos.Copy()

	var ep Move
	for _, m := range movesFrom(pos, DefaultRules(), E5) {
		if m.Kind == KindEnPassant {
			ep = m
		}
	}
	if ep.Kind != KindEnPassant {
		t.Fatal("no en passant move generated")
	}
	if ep.Target != D5 || ep.CapturedCargo != Knight {
		t.Fatalf("en passant payload = target %v cargo %v", ep.Target, ep.CapturedCargo)
	}

	u := pos.MakeMove(ep)
	if !pos.IsEmpty(D5) || pos.CargoAt(D5) != NoPieceType || pos.Carriers != 0 {
		t.Error("captured pawn or its cargo is still on d5")
	}
	if pos.PieceAt(D6) != NewPiece(Pawn, White) || !pos.IsEmpty(E5) {
		t.Error("capturing pawn did not land on d6")
	}
	if pos.Material(Black) != 0 {
		t.Errorf("black material = %d after losing the carrier", pos.Material(Black))
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("hash drifted")
	}

	pos.UnmakeMove(u)
	if !pos.Equal(before) {
		t.Errorf("unmake mismatch:\n%v\nwant\n%v", pos, before)
	}
}

func TestKnightRescuesRook(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/1N1RK3 w - - 0 1")

	var plain, rescue Move
	for _, m := range movesFrom(pos, DefaultRules(), B1) {
		if m.To != D2 {
			continue
		}
		switch m.Kind {
		case KindNormal:
			plain = m
		case KindNormalAndRescue:
			rescue = m
		}
	}
	if plain.Kind != KindNormal {
		t.Fatal("plain b1d2 missing")
	}
	if rescue.Kind != KindNormalAndRescue || rescue.Target != D1 {
		t.Fatalf("rescue variant = %+v", rescue)
	}

	pos.MakeMove(rescue)
	if !pos.IsEmpty(D1) {
		t.Error("rook still on d1")
	}
	if pos.CargoAt(D2) != Rook {
		t.Errorf("knight cargo = %v, want rook", pos.CargoAt(D2))
	}
	if got := pos.FEN(); got != "4k3/8/8/8/8/8/3NxR4/4K3 b - - 1 1" {
		t.Errorf("FEN after rescue = %s", got)
	}
}

func TestDropPromotes(t *testing.T) {
	pos := mustParse(t, "8/1RxP6/8/7k/8/8/8/4K3 w - - 0 1")

	promos := map[PieceType]bool{}
	var queenDrop Move
	for _, m := range movesFrom(pos, DefaultRules(), B7) {
		if m.IsDrop() && m.Target == C8 {
			promos[m.Promotion] = true
			if m.Promotion == Queen && m.To == C7 {
				queenDrop = m
			}
		}
	}
	for _, pt := range PromotionTypes {
		if !promos[pt] {
			t.Errorf("no drop on c8 promoting to %v", pt)
		}
	}
	if promos[NoPieceType] {
		t.Error("unpromoted pawn drop on the last rank")
	}

	u := pos.MakeMove(queenDrop)
	if pos.PieceAt(C8) != NewPiece(Queen, White) {
		t.Errorf("c8 = %v, want a white queen", pos.PieceAt(C8))
	}
	if pos.CargoAt(C7) != NoPieceType {
		t.Error("rook still carries after the drop")
	}
	pos.UnmakeMove(u)
	if pos.CargoAt(B7) != Pawn || !pos.IsEmpty(C8) {
		t.Error("unmake did not restore the held pawn")
	}
}

func TestCargoInPlace(t *testing.T) {
	// The a1 knight is walled in by its own pawns but can still put its rook
	// down on a2 or b1.
	pos := mustParse(t, "4k3/8/8/8/8/1P6/2P5/NxR3K3 w - - 0 1")
	var drops []string
	for _, m := range movesFrom(pos, DefaultRules(), A1) {
		if m.From != m.To || m.Kind != KindNormalAndDrop {
			t.Errorf("unexpected move %v", m)
			continue
		}
		drops = append(drops, m.String())
	}
	if len(drops) != 2 || drops[0] != "a1a1Db1" || drops[1] != "a1a1Da2" {
		t.Fatalf("in-place drops %v, want a1a1Db1 a1a1Da2", drops)
	}
	if got := movesFrom(pos, ClassicRules(), A1); len(got) != 0 {
		t.Errorf("classic rules offered %v", got)
	}

	before := pos.Copy()
	m, err := ParseMove(pos, "a1a1Da2", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	u := pos.MakeMove(m)
	if pos.PieceAt(A1) != NewPiece(Knight, White) || pos.CargoAt(A1) != NoPieceType {
		t.Errorf("a1 = %v carrying %v, want an empty-handed knight", pos.PieceAt(A1), pos.CargoAt(A1))
	}
	if pos.PieceAt(A2) != NewPiece(Rook, White) {
		t.Errorf("a2 = %v, want the dropped rook", pos.PieceAt(A2))
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("hash drifted")
	}
	if got := pos.FEN(); got != "4k3/8/8/8/8/1P6/R1P5/N3K3 b - - 1 1" {
		t.Errorf("FEN after the drop = %s", got)
	}

	pos.UnmakeMove(u)
	if !pos.Equal(before) {
		t.Errorf("unmake mismatch:\n%v\nwant\n%v", pos, before)
	}
}

func TestRescueInPlace(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/1P6/R1P5/N5K1 w - - 0 1")
	m, err := ParseMove(pos, "a1a1Sa2", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != KindNormalAndRescue || m.Target != A2 || m.String() != "a1a1Sa2" {
		t.Fatalf("rescue in place = %+v", m)
	}
	pos.MakeMove(m)
	if got := pos.FEN(); got != "4k3/8/8/8/8/1P6/2P5/NxR5K1 b - - 1 1" {
		t.Errorf("FEN after the rescue = %s", got)
	}
}

func TestRescueInPlaceKeepsCastling(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/7P/4K2R w K - 0 1")
	m, err := ParseMove(pos, "h1h1Sh2", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	u := pos.MakeMove(m)
	if pos.Castling != WhiteKingSide {
		t.Errorf("rook never left h1 but rights are %v", pos.Castling)
	}
	if pos.PieceAt(H1) != NewPiece(Rook, White) || pos.CargoAt(H1) != Pawn || !pos.IsEmpty(H2) {
		t.Errorf("after h1h1Sh2:\n%v", pos)
	}
	if pos.HalfMoveClock != 1 {
		t.Errorf("half-move clock = %d", pos.HalfMoveClock)
	}
	pos.UnmakeMove(u)
	if pos.PieceAt(H2) != NewPiece(Pawn, White) || pos.CargoAt(H1) != NoPieceType {
		t.Error("unmake did not put the pawn back")
	}
}

func TestUnanswerableDoublePushHash(t *testing.T) {
	// No black pawn can take on e3, so the square does not split the hash.
	pos := NewPosition()
	m, err := ParseMove(pos, "e2e4", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	if pos.EnPassant != E3 {
		t.Fatalf("en passant square = %v", pos.EnPassant)
	}
	plain := mustParse(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if pos.Hash != plain.Hash || pos.Hash != pos.ComputeHash() {
		t.Error("unanswerable en passant square changed the hash")
	}

	// Here d4 can take on e3, so it must.
	pos = mustParse(t, "4k3/8/8/8/3p4/8/4P3/4K3 w - - 0 1")
	m, err = ParseMove(pos, "e2e4", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	plain = mustParse(t, "4k3/8/8/8/3pP3/8/8/4K3 b - - 0 1")
	if pos.Hash == plain.Hash || pos.Hash != pos.ComputeHash() {
		t.Error("capturable en passant square not hashed")
	}
}

func TestNoPawnDropOnOwnBackRank(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/1RxP6/4K3 w - - 0 1")
	for _, m := range movesFrom(pos, DefaultRules(), B2) {
		if m.IsDrop() && m.Target.Rank() == 0 {
			t.Errorf("pawn dropped on the first rank: %v", m)
		}
	}
}

func TestRankedHolding(t *testing.T) {
	r := DefaultRules()
	r.Holding = HoldRanked
	// A pawn next to a queen cannot pick it up; a queen can pick up a pawn.
	pos := mustParse(t, "4k3/8/8/8/8/3Q4/2P5/4K3 w - - 0 1")
	for _, m := range movesFrom(pos, r, C2) {
		if m.IsRescue() {
			t.Errorf("pawn rescued a queen: %v", m)
		}
	}
	found := false
	for _, m := range movesFrom(pos, r, D3) {
		if m.IsRescue() && m.Target == C2 {
			found = true
		}
	}
	if !found {
		t.Error("queen could not rescue the pawn")
	}
}

func TestClassicHasNoCargoMoves(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/1NxR1RK3 w - - 0 1")
	for _, m := range pos.GenerateLegalMoves(ClassicRules()).Slice() {
		if m.IsRescue() || m.IsDrop() {
			t.Errorf("cargo move under classic rules: %v", m)
		}
	}
}

func TestCastlingCarriesCargo(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4KxN2RxB w K - 0 1")
	m, err := ParseMove(pos, "e1g1", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != KindCastle {
		t.Fatalf("kind = %v", m.Kind)
	}
	u := pos.MakeMove(m)
	if pos.CargoAt(G1) != Knight || pos.CargoAt(F1) != Bishop {
		t.Errorf("cargo after castling: g1=%v f1=%v", pos.CargoAt(G1), pos.CargoAt(F1))
	}
	if pos.Castling != NoCastling {
		t.Errorf("castling rights = %v", pos.Castling)
	}
	pos.UnmakeMove(u)
	if pos.CargoAt(E1) != Knight || pos.CargoAt(H1) != Bishop {
		t.Error("unmake lost castling cargo")
	}
}

func TestRescueFromCornerDropsCastlingRight(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/5N2/8/4K2R w K - 0 1")
	m, err := ParseMove(pos, "f3g5", DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	if pos.Castling != WhiteKingSide {
		t.Fatalf("plain knight move changed rights: %v", pos.Castling)
	}

	pos = mustParse(t, "4k3/8/8/8/8/5N2/8/4K2R w K - 0 1")
	var rescue Move
	for _, mv := range movesFrom(pos, DefaultRules(), F3) {
		if mv.IsRescue() && mv.Target == H1 {
			rescue = mv
		}
	}
	if !rescue.IsRescue() {
		t.Fatal("knight could not rescue the h1 rook")
	}
	pos.MakeMove(rescue)
	if pos.Castling != NoCastling {
		t.Errorf("rook left h1 but rights are %v", pos.Castling)
	}
}

// TestRandomWalk plays random legal games and checks, at every node, that each
// legal move keeps the king safe, respects the cargo rules, and unmakes exactly.
func TestRandomWalk(t *testing.T) {
	surrounding := DefaultRules()
	surrounding.Adjacency = AdjacencySurrounding
	ranked := DefaultRules()
	ranked.Holding = HoldRanked

	games, plies := 12, 80
	if testing.Short() {
		games, plies = 3, 40
	}

	for _, r := range []Rules{DefaultRules(), surrounding, ranked} {
		t.Run(r.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			cargoMoves := 0
			for g := 0; g < games; g++ {
				pos := NewPosition()
				for ply := 0; ply < plies; ply++ {
					moves := pos.GenerateLegalMoves(r)
					if moves.Len() == 0 {
						break
					}
					for _, m := range moves.Slice() {
						checkMove(t, pos, r, m)
						if m.IsRescue() || m.IsDrop() {
							cargoMoves++
						}
					}
					roundTrip(t, pos)
					pos.MakeMove(moves.Get(rng.Intn(moves.Len())))
				}
			}
			t.Logf("%s: checked %d cargo moves", r, cargoMoves)
			if cargoMoves == 0 {
				t.Error("walk never met a rescue or drop")
			}
		})
	}
}

func checkMove(t *testing.T, pos *Position, r Rules, m Move) {
	t.Helper()
	us := pos.SideToMove
	before := pos.Copy()
	held := pos.CargoAt(m.From)

	if m.IsRescue() {
		if held != NoPieceType {
			t.Fatalf("%v: rescue by a loaded piece\n%v", m, pos)
		}
		if !r.Reach(m.To).Has(m.Target) || pos.PieceAt(m.Target).Color() != us || m.Target == m.From {
			t.Fatalf("%v: bad rescue target\n%v", m, pos)
		}
	}
	if m.IsDrop() {
		if held == NoPieceType || !pos.IsEmpty(m.Target) || !r.Reach(m.To).Has(m.Target) {
			t.Fatalf("%v: bad drop\n%v", m, pos)
		}
	}

	u := pos.MakeMove(m)
	if pos.InCheckColor(us) {
		t.Fatalf("%v leaves the king in check\n%v", m, before)
	}
	if m.IsDrop() && pos.CargoAt(m.To) != NoPieceType {
		t.Fatalf("%v: mover still loaded after the drop", m)
	}
	if m.IsRescue() && pos.CargoAt(m.To) == NoPieceType {
		t.Fatalf("%v: mover empty after the rescue", m)
	}
	if m.From == m.To && pos.PieceAt(m.To) != before.PieceAt(m.From) {
		t.Fatalf("%v: piece left its square on an in-place move\n%v", m, before)
	}
	if pos.Hash != pos.ComputeHash() {
		t.Fatalf("%v: incremental hash drifted\n%v", m, before)
	}
	pos.UnmakeMove(u)
	if !pos.Equal(before) {
		t.Fatalf("%v: unmake mismatch\n%v\nwant\n%v", m, pos, before)
	}
}

func roundTrip(t *testing.T, pos *Position) {
	t.Helper()
	again, err := ParseFEN(pos.FEN())
	if err != nil {
		t.Fatalf("reparse %s: %v", pos.FEN(), err)
	}
	if !again.Equal(pos) {
		t.Fatalf("round trip differs for %s", pos.FEN())
	}
}

func TestNullMove(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	before := pos.Copy()
	u := pos.MakeNullMove()
	if pos.SideToMove != Black || pos.EnPassant != NoSquare {
		t.Error("null move did not pass the turn")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("null move hash drifted")
	}
	pos.UnmakeNullMove(u)
	if !pos.Equal(before) {
		t.Error("unmake null mismatch")
	}
}
