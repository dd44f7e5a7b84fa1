package board

import "errors"

var (
	// ErrMalformedNotation is returned when a FEN string, square or move text
	// cannot be parsed. The position being parsed into is left untouched.
	ErrMalformedNotation = errors.New("malformed notation")

	// ErrIllegalMove is returned when a requested move is not among the legal
	// moves of the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNoLegalMoves signals a terminal position: checkmate or stalemate.
	ErrNoLegalMoves = errors.New("no legal moves")
)
