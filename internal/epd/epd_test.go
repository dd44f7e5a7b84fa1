package epd

import (
	"errors"
	"strings"
	"testing"

	"github.com/abrenneke/rescue-chess/internal/board"
)

const crafty = `r1bqk2r/p1pp1ppp/2p2n2/8/1b2P3/2N5/PPP2PPP/R1BQKB1R w KQkq - bm Bd3; id "Crafty Test Pos.28"; c0 "DB/GK Philadelphia 1996";`

func TestParse(t *testing.T) {
	rec, err := Parse(crafty)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.BestMoves(); len(got) != 1 || got[0] != "Bd3" {
		t.Errorf("bm = %v", got)
	}
	if rec.ID() != "Crafty Test Pos.28" {
		t.Errorf("id = %q", rec.ID())
	}
	if rec.Comment(0) != "DB/GK Philadelphia 1996" {
		t.Errorf("c0 = %q", rec.Comment(0))
	}
	if rec.Comment(1) != "" || len(rec.AvoidMoves()) != 0 {
		t.Error("unexpected operations")
	}
	if rec.Position.HalfMoveClock != 0 || rec.Position.FullMoveNumber != 1 {
		t.Errorf("clocks %d %d", rec.Position.HalfMoveClock, rec.Position.FullMoveNumber)
	}
}

func TestParseOperations(t *testing.T) {
	tests := []struct {
		name string
		line string
		op   string
		want []string
	}{
		{"several best moves", "4k3/8/8/8/8/8/8/4K2R w K - bm O-O Rh8+;", "bm", []string{"O-O", "Rh8+"}},
		{"semicolon in string", `4k3/8/8/8/8/8/8/4K3 w - - id "a;b";`, "id", []string{"a;b"}},
		{"move clocks", "4k3/8/8/8/8/8/8/4K3 b - - hmvc 12; fmvn 40;", "fmvn", []string{"40"}},
		{"no trailing semicolon", "4k3/8/8/8/8/8/8/4K3 w - - am Kd1", "am", []string{"Kd1"}},
		{"cargo in placement", "4k3/8/8/8/8/8/8/3KxR4 w - - bm Kd2;", "bm", []string{"Kd2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Parse(tc.line)
			if err != nil {
				t.Fatal(err)
			}
			got := rec.Ops[tc.op]
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("%s = %q, want %q", tc.op, got, tc.want)
			}
		})
	}

	rec, _ := Parse("4k3/8/8/8/8/8/8/4K3 b - - hmvc 12; fmvn 40;")
	if rec.Position.HalfMoveClock != 12 || rec.Position.FullMoveNumber != 40 {
		t.Errorf("clocks %d %d", rec.Position.HalfMoveClock, rec.Position.FullMoveNumber)
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"4k3/8/8/8 w -",
		"4k3/8/8/8/8/8/8/4K3 w - - id \"open",
		"4k3/8/8/8/8/8/8/4K3 w - - 9x 1;",
		"4k3/8/8/8/8/8/8/4K9 w - - bm Kd1;",
	} {
		if _, err := Parse(line); !errors.Is(err, board.ErrMalformedNotation) {
			t.Errorf("Parse(%q) err = %v", line, err)
		}
	}
}

func TestReadAll(t *testing.T) {
	src := "# suite\n\n" + crafty + "\n4k3/8/8/8/8/8/8/4K3 w - - id \"two\";\n"
	recs, err := ReadAll(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Line != 3 || recs[1].Line != 4 || recs[1].ID() != "two" {
		t.Fatalf("records %+v", recs)
	}

	_, err = ReadAll(strings.NewReader(crafty + "\nbroken\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	rec, err := Parse(crafty)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(rec.String())
	if err != nil {
		t.Fatal(err)
	}
	if again.String() != rec.String() || again.ID() != rec.ID() {
		t.Errorf("%s\n%s", rec.String(), again.String())
	}
}

func TestResolveSAN(t *testing.T) {
	tests := []struct {
		fen   string
		rules board.Rules
		san   string
		want  []string
	}{
		{board.StartFEN, board.ClassicRules(), "Nf3", []string{"g1f3"}},
		{board.StartFEN, board.ClassicRules(), "e4", []string{"e2e4"}},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", board.ClassicRules(), "O-O-O", []string{"e1c1"}},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", board.ClassicRules(), "Rxa8+", []string{"a1a8"}},
		{"4k3/1P6/8/8/8/8/8/4K3 w - - 0 1", board.ClassicRules(), "b8=N", []string{"b7b8n"}},
		{"4k3/8/8/8/8/8/8/R3K2R w - - 0 1", board.ClassicRules(), "Rad1", []string{"a1d1"}},
		{"4k3/8/8/8/8/8/8/R3K2R w - - 0 1", board.ClassicRules(), "Rhf1", []string{"h1f1"}},
		{"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", board.ClassicRules(), "exd5", []string{"e4d5"}},
	}
	for _, tc := range tests {
		t.Run(tc.san, func(t *testing.T) {
			pos, err := board.ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			moves, err := ResolveSAN(pos, tc.san, tc.rules)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, m := range moves {
				got = append(got, m.String())
			}
			if strings.Join(got, " ") != strings.Join(tc.want, " ") {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchSANWithCargo(t *testing.T) {
	// Under rescue rules the knight may pick up the rook on its way.
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/1N1RK3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves, err := ResolveSAN(pos, "Nd2", board.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) < 2 {
		t.Fatalf("only %v", moves)
	}
	for _, m := range moves {
		if ok, _ := MatchSAN(m, "Nd2"); !ok {
			t.Errorf("%s does not match Nd2", m)
		}
		if ok, _ := MatchSAN(m, "Nc3"); ok {
			t.Errorf("%s matches Nc3", m)
		}
	}
	if _, err := MatchSAN(moves[0], "Zz9"); !errors.Is(err, board.ErrMalformedNotation) {
		t.Errorf("err = %v", err)
	}
	if _, err := ResolveSAN(pos, "Nd4", board.DefaultRules()); !errors.Is(err, board.ErrIllegalMove) {
		t.Errorf("err = %v", err)
	}
}
