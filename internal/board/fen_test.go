package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"4k3/8/8/3pxnP3/8/8/8/4K3 w - d6 0 1",
		"1nbqkbnr/1ppppppp/8/8/8/8/1PPPPPPP/RNxRBQKBNR b Kk - 3 7",
		"4k3/1RxP6/8/8/8/8/8/4KxQ3 w - - 12 40",
		"rxbnxq2kxr3/8/8/8/8/8/8/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := pos.FEN(); got != fen {
				t.Errorf("FEN() = %q", got)
			}
			again, err := ParseFEN(pos.FEN())
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			if !again.Equal(pos) {
				t.Error("reparsed position differs")
			}
			if pos.Hash != pos.ComputeHash() {
				t.Error("hash mismatch")
			}
		})
	}
}

func TestFENCargo(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/RNxRBQKBN1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := pos.CargoAt(B1); got != Rook {
		t.Errorf("cargo on b1 = %v, want rook", got)
	}
	if pos.Carriers != SquareBB(B1) {
		t.Errorf("carriers = %016x", uint64(pos.Carriers))
	}
	if pos.PieceAt(C1) != NewPiece(Bishop, White) {
		t.Errorf("c1 = %v, want the bishop after the carrier", pos.PieceAt(C1))
	}
	if got, want := pos.Material(White), 2*500+320+2*330+900+320; got != want {
		t.Errorf("material = %d, want %d", got, want)
	}
}

func TestFENDefaults(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w -  -")
	if err != nil {
		t.Fatal(err)
	}
	if pos.HalfMoveClock != 0 || pos.FullMoveNumber != 1 {
		t.Errorf("clocks = %d %d, want 0 1", pos.HalfMoveClock, pos.FullMoveNumber)
	}
}

func TestFENMalformed(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 x - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w KX - 0 1",
		"4k3/8/8/8/8/8/8/4K2 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K4 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - e4 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - - -1 1",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 0",
		"4k3/8/8/8/8/8/8/4KxK3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4Kxp3 w - - 0 1",
		"4k3/8/8/8/8/8/8/3RKx w - - 0 1",
		"4k3/8/8/8/8/8/8/p3K3 b - - 0 1",
		"P3k3/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 1 extra",
		"4k2R/8/8/8/8/8/8/4K3 w - - 0 1",
	}
	for _, fen := range bad {
		t.Run(fen, func(t *testing.T) {
			_, err := ParseFEN(fen)
			if !errors.Is(err, ErrMalformedNotation) {
				t.Errorf("err = %v, want ErrMalformedNotation", err)
			}
		})
	}
}
