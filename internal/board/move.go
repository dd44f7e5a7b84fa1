package board

// MoveKind tags which of the move shapes a Move is. The set is closed; every
// switch over it in this module handles all ten kinds.
type MoveKind uint8

const (
	KindNone MoveKind = iota
	KindNormal
	KindCapture
	KindEnPassant
	KindCastle
	KindPromotion
	KindCapturePromotion
	KindNormalAndRescue
	KindCaptureAndRescue
	KindNormalAndDrop
	KindCaptureAndDrop
)

var kindNames = [...]string{
	KindNone:             "none",
	KindNormal:           "normal",
	KindCapture:          "capture",
	KindEnPassant:        "en-passant",
	KindCastle:           "castle",
	KindPromotion:        "promotion",
	KindCapturePromotion: "capture-promotion",
	KindNormalAndRescue:  "normal+rescue",
	KindCaptureAndRescue: "capture+rescue",
	KindNormalAndDrop:    "normal+drop",
	KindCaptureAndDrop:   "capture+drop",
}

func (k MoveKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Move is a fully described move. Which payload fields are meaningful depends on Kind:
//
//	Capture, CapturePromotion      Captured, CapturedCargo (+ Promotion)
//	EnPassant                      Target = captured pawn square, CapturedCargo
//	Castle                         From = king square, Target = rook square
//	Promotion                      Promotion = new type
//	NormalAndRescue                Target = rescued square
//	CaptureAndRescue               Captured, CapturedCargo, Target = rescued square
//	NormalAndDrop                  Target = drop square, Promotion of the dropped unit
//	CaptureAndDrop                 Captured, CapturedCargo, Target, Promotion
//
// Unused fields hold NoPieceType / NoSquare so that equal moves compare equal.
type Move struct {
	From, To      Square
	Kind          MoveKind
	Piece         PieceType
	Captured      PieceType
	CapturedCargo PieceType
	Target        Square
	Promotion     PieceType
}

// NoMove is the zero Move.
var NoMove Move

func baseMove(kind MoveKind, pt PieceType, from, to Square) Move {
	return Move{
		From:          from,
		To:            to,
		Kind:          kind,
		Piece:         pt,
		Captured:      NoPieceType,
		CapturedCargo: NoPieceType,
		Target:        NoSquare,
		Promotion:     NoPieceType,
	}
}

// IsCapture reports whether an enemy piece leaves the board.
func (m Move) IsCapture() bool {
	switch m.Kind {
	case KindCapture, KindEnPassant, KindCapturePromotion, KindCaptureAndRescue, KindCaptureAndDrop:
		return true
	}
	return false
}

// IsPromotion reports whether the moving pawn changes type.
func (m Move) IsPromotion() bool {
	return m.Kind == KindPromotion || m.Kind == KindCapturePromotion
}

// IsRescue reports whether the move picks up an allied piece.
func (m Move) IsRescue() bool {
	return m.Kind == KindNormalAndRescue || m.Kind == KindCaptureAndRescue
}

// IsDrop reports whether the move releases the mover's cargo.
func (m Move) IsDrop() bool {
	return m.Kind == KindNormalAndDrop || m.Kind == KindCaptureAndDrop
}

// IsQuiet is true for moves that neither capture, promote, rescue nor drop.
func (m Move) IsQuiet() bool {
	return m.Kind == KindNormal || m.Kind == KindCastle
}

// CapturedSquare is where the captured piece stood, or NoSquare.
func (m Move) CapturedSquare() Square {
	switch {
	case m.Kind == KindEnPassant:
		return m.Target
	case m.IsCapture():
		return m.To
	}
	return NoSquare
}

// MoveList is a growable list sized for typical rescue chess branching.
type MoveList struct {
	moves []Move
}

// NewMoveList returns an empty list with room for a crowded middlegame.
func NewMoveList() *MoveList {
	return &MoveList{moves: make([]Move, 0, 128)}
}

func (ml *MoveList) Add(m Move)        { ml.moves = append(ml.moves, m) }
func (ml *MoveList) Len() int          { return len(ml.moves) }
func (ml *MoveList) Get(i int) Move    { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Swap(i, j int)     { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Clear()            { ml.moves = ml.moves[:0] }
func (ml *MoveList) Slice() []Move     { return ml.moves }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for _, x := range ml.moves {
		if x == m {
			return true
		}
	}
	return false
}

// Undo carries what UnmakeMove needs beyond the move itself.
type Undo struct {
	Move          Move
	Castling      CastlingRights
	EnPassant     Square
	HalfMoveClock int
	FullMove      int
	Hash          uint64
	Checkers      Bitboard
	// CapturedCargo is read from the board at make time, so unmake restores the
	// exact cargo even if the Move was built by hand.
	CapturedCargo PieceType
}
