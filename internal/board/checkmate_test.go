package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Back rank mate: white rook on a8, black king boxed in by its own pawns.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:")
	t.Log(pos)
	t.Log("InCheck:", pos.InCheck())

	for _, r := range []Rules{ClassicRules(), DefaultRules()} {
		blackMoves := pos.GenerateLegalMoves(r)
		t.Logf("%s: black legal moves: %d", r, blackMoves.Len())
		if !pos.IsCheckmate(r) {
			t.Errorf("%s: expected checkmate", r)
		}
		if pos.IsStalemate(r) {
			t.Errorf("%s: checkmate reported as stalemate", r)
		}
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can take the checking rook.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkers bitboard:", pos.Checkers)
	if pos.IsCheckmate(DefaultRules()) {
		t.Error("Expected NOT checkmate but got true")
	}
}

func TestStalemate(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.InCheck() {
		t.Fatal("black should not be in check")
	}
	if !pos.IsStalemate(DefaultRules()) {
		t.Error("expected stalemate")
	}
	if pos.IsCheckmate(DefaultRules()) {
		t.Error("stalemate reported as checkmate")
	}
}

// TestDropBlocksCheck: classic chess calls this mate, but the d5 knight
// carries a rook it can drop on the eighth rank between the a8 rook and h8 king.
func TestDropBlocksCheck(t *testing.T) {
	pos, err := ParseFEN("R6k/6pp/8/3nxr4/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.InCheck() {
		t.Fatal("black should be in check")
	}
	if !pos.IsCheckmate(ClassicRules()) {
		t.Error("classic rules: expected checkmate")
	}

	moves := pos.GenerateLegalMoves(DefaultRules())
	var got []string
	for _, m := range moves.Slice() {
		got = append(got, m.String())
	}
	want := map[string]bool{"d5c7Dc8": true, "d5e7De8": true}
	if len(got) != len(want) {
		t.Fatalf("legal moves %v, want the two blocking drops", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected move %s", s)
		}
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/2B1K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/2BNK3 w - - 0 1", false},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false},
		{"4k3/8/8/8/8/8/8/2BxPK4 w - - 0 1", false},
	}
	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.IsInsufficientMaterial(); got != tc.want {
				t.Errorf("IsInsufficientMaterial = %v, want %v", got, tc.want)
			}
		})
	}
}
