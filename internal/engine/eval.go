// Package engine implements the rescue chess search engine.
package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Held units cannot move, attack or be attacked until dropped, so they count
// for a little less than the same piece on the board.
const cargoPercent = 85

// A carrier that is attacked and undefended risks both units.
const exposedCarrierPercent = 25

// Passed pawn bonus by relative rank.
var passedPawnMg = [8]int{0, 5, 10, 20, 35, 60, 100, 0}
var passedPawnEg = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Mobility weights per piece type
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

const (
	bishopPairMg = 25
	bishopPairEg = 50

	doubledPawnMg  = -15
	doubledPawnEg  = -20
	isolatedPawnMg = -20
	isolatedPawnEg = -25

	shieldPawnBonus   = 10
	shieldPawnMissing = -15

	tempoBonus = 10
	maxPhase   = 24
)

var phaseWeight = [7]int{0, 1, 1, 2, 4, 0, 0}

// Piece-square tables, drawn with rank 8 on top as seen from White.
var (
	pawnPST = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightPST = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopPST = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookPST = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenPST = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingMgPST = [64]int{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEgPST = [64]int{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}

	pieceTables = [5]*[64]int{&pawnPST, &knightPST, &bishopPST, &rookPST, &queenPST}
)

// pstIndex maps a square to its row in the drawn tables for color c.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return int(sq.Mirror())
	}
	return int(sq)
}

// EvalWeights scales each evaluation term in percent. A zero weight switches
// the term off.
type EvalWeights struct {
	Material      int
	PieceSquare   int
	Cargo         int
	BishopPair    int
	PawnStructure int
	Mobility      int
	KingSafety    int
	Tempo         int
}

// DefaultEvalWeights returns every term at full strength.
func DefaultEvalWeights() EvalWeights {
	return EvalWeights{
		Material:      100,
		PieceSquare:   100,
		Cargo:         100,
		BishopPair:    100,
		PawnStructure: 100,
		Mobility:      100,
		KingSafety:    100,
		Tempo:         100,
	}
}

// Evaluator scores positions from the side to move's point of view. It keeps
// a pawn structure cache and must not be shared between goroutines.
type Evaluator struct {
	Weights EvalWeights
	pawns   *PawnTable
}

// NewEvaluator creates an evaluator with a small pawn cache.
func NewEvaluator(w EvalWeights) *Evaluator {
	return &Evaluator{Weights: w, pawns: NewPawnTable(1)}
}

// Evaluate scores pos with the default weights and no cache.
func Evaluate(pos *board.Position) int {
	e := Evaluator{Weights: DefaultEvalWeights()}
	return e.Evaluate(pos)
}

// score accumulates a tapered pair.
type score struct{ mg, eg int }

func (s *score) add(mg, eg, weight int) {
	s.mg += mg * weight / 100
	s.eg += eg * weight / 100
}

// Evaluate returns a centipawn score, positive when the side to move is better.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	w := e.Weights
	var total score
	phase := 0

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				idx := pstIndex(sq, c)
				if pt == board.King {
					total.add(sign*kingMgPST[idx], sign*kingEgPST[idx], w.PieceSquare)
					continue
				}
				total.add(sign*pieceValues[pt], sign*pieceValues[pt], w.Material)
				v := pieceTables[pt][idx]
				total.add(sign*v, sign*v, w.PieceSquare)
				phase += phaseWeight[pt]
			}
		}
		for bb := pos.Carriers & pos.Occupied[c]; bb != 0; {
			phase += phaseWeight[pos.Cargo[bb.PopLSB()]]
		}
	}

	cg := evaluateCargo(pos)
	total.add(cg, cg, w.Cargo)

	bp := evaluateBishopPair(pos)
	total.add(bp.mg, bp.eg, w.BishopPair)

	ps := e.pawnStructure(pos)
	total.add(ps.mg, ps.eg, w.PawnStructure)

	mob := evaluateMobility(pos)
	total.add(mob.mg, mob.eg, w.Mobility)

	ks := evaluateKingShield(pos)
	total.add(ks, 0, w.KingSafety)

	if phase > maxPhase {
		phase = maxPhase
	}
	result := (total.mg*phase + total.eg*(maxPhase-phase)) / maxPhase
	if pos.SideToMove == board.Black {
		result = -result
	}
	return result + tempoBonus*w.Tempo/100
}

// evaluateCargo values held units, less a share when the carrier hangs.
func evaluateCargo(pos *board.Position) int {
	total := 0
	for bb := pos.Carriers; bb != 0; {
		sq := bb.PopLSB()
		c := pos.PieceAt(sq).Color()
		v := pieceValues[pos.Cargo[sq]] * cargoPercent / 100
		if pos.IsSquareAttacked(sq, c.Other()) && !pos.IsSquareAttacked(sq, c) {
			v -= v * exposedCarrierPercent / 100
		}
		if c == board.Black {
			v = -v
		}
		total += v
	}
	return total
}

func evaluateBishopPair(pos *board.Position) score {
	var s score
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		bishops := pos.Pieces[c][board.Bishop]
		if bishops&board.LightSquares != 0 && bishops&board.DarkSquares != 0 {
			s.mg += sign * bishopPairMg
			s.eg += sign * bishopPairEg
		}
	}
	return s
}

// pawnKey fingerprints the pawn skeleton of both sides.
func pawnKey(pos *board.Position) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(pos.Pieces[board.White][board.Pawn]))
	binary.LittleEndian.PutUint64(buf[8:], uint64(pos.Pieces[board.Black][board.Pawn]))
	return xxhash.Sum64(buf[:])
}

func (e *Evaluator) pawnStructure(pos *board.Position) score {
	if e.pawns == nil {
		return evaluatePawns(pos)
	}
	key := pawnKey(pos)
	if mg, eg, ok := e.pawns.Probe(key); ok {
		return score{mg, eg}
	}
	s := evaluatePawns(pos)
	e.pawns.Store(key, s.mg, s.eg)
	return s
}

// evaluatePawns scores doubled, isolated and passed pawns. It depends only on
// the pawn bitboards so the result can be cached by pawnKey.
func evaluatePawns(pos *board.Position) score {
	var s score
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			file := sq.File()

			if onFile := own & board.FileMask[file]; onFile.PopCount() > 1 && sq == frontmost(onFile, c) {
				s.mg += sign * doubledPawnMg
				s.eg += sign * doubledPawnEg
			}
			if own&adjacentFiles(file) == 0 {
				s.mg += sign * isolatedPawnMg
				s.eg += sign * isolatedPawnEg
			}
			if enemy&passedSpan(sq, c) == 0 {
				rr := sq.RelativeRank(c)
				s.mg += sign * passedPawnMg[rr]
				s.eg += sign * passedPawnEg[rr]
			}
		}
	}
	return s
}

func frontmost(bb board.Bitboard, c board.Color) board.Square {
	if c == board.Black {
		return bb.LSB()
	}
	var last board.Square
	for bb != 0 {
		last = bb.PopLSB()
	}
	return last
}

func adjacentFiles(file int) board.Bitboard {
	var m board.Bitboard
	if file > 0 {
		m |= board.FileMask[file-1]
	}
	if file < 7 {
		m |= board.FileMask[file+1]
	}
	return m
}

// passedSpan is the set of squares ahead of a pawn on its own and adjacent
// files; no enemy pawn there means the pawn is passed.
func passedSpan(sq board.Square, c board.Color) board.Bitboard {
	files := board.FileMask[sq.File()] | adjacentFiles(sq.File())
	var ahead board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r < 8; r++ {
			ahead |= board.RankMask[r]
		}
	} else {
		for r := sq.Rank() - 1; r >= 0; r-- {
			ahead |= board.RankMask[r]
		}
	}
	return files & ahead
}

func evaluateMobility(pos *board.Position) score {
	var s score
	occ := pos.AllOccupied
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		enemyPawns := pos.Pieces[c.Other()][board.Pawn]
		var unsafe board.Bitboard
		if c == board.White {
			unsafe = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafe = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}
		blocked := unsafe | pos.Occupied[c]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				n := (board.Attacks(pt, c, sq, occ) &^ blocked).PopCount()
				s.mg += sign * mobilityMgWeight[pt] * n
				s.eg += sign * mobilityEgWeight[pt] * n
			}
		}
	}
	return s
}

// evaluateKingShield rewards pawns directly in front of a castled king.
// Middlegame only.
func evaluateKingShield(pos *board.Position) int {
	total := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ksq := pos.KingSquare[c]
		if ksq.RelativeRank(c) > 1 {
			continue
		}
		file := ksq.File()
		if file >= 3 && file <= 4 {
			continue
		}
		pawns := pos.Pieces[c][board.Pawn]
		front := board.SquareBB(ksq).Forward(c)
		zone := front | front.East() | front.West()
		zone |= zone.Forward(c)
		for f := file - 1; f <= file+1; f++ {
			if f < 0 || f > 7 {
				continue
			}
			if pawns&zone&board.FileMask[f] != 0 {
				total += sign * shieldPawnBonus
			} else {
				total += sign * shieldPawnMissing
			}
		}
	}
	return total
}

// EvaluateMaterial returns the material balance for the side to move, cargo
// counted at full value.
func EvaluateMaterial(pos *board.Position) int {
	us := pos.SideToMove
	return pos.Material(us) - pos.Material(us.Other())
}
