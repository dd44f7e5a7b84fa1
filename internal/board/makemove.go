package board

// MakeMove plays m, which must be pseudo-legal for the side to move, and
// returns the token UnmakeMove needs to take it back.
func (p *Position) MakeMove(m Move) Undo {
	u := Undo{
		Move:          m,
		Castling:      p.Castling,
		EnPassant:     p.EnPassant,
		HalfMoveClock: p.HalfMoveClock,
		FullMove:      p.FullMoveNumber,
		Hash:          p.Hash,
		Checkers:      p.Checkers,
		CapturedCargo: NoPieceType,
	}
	us := p.SideToMove
	them := us.Other()

	p.Hash ^= p.enPassantKey()
	p.EnPassant = NoSquare
	p.HalfMoveClock++

	// Captured pieces leave with whatever they carry.
	if sq := m.CapturedSquare(); sq != NoSquare {
		u.CapturedCargo = p.clearCargo(them, sq)
		p.takePiece(them, m.Captured, sq)
		p.HalfMoveClock = 0
	}

	// A piece that rescues or drops in place has not moved.
	cr := p.Castling
	if m.From != m.To {
		cr &= castlingMask[m.From] & castlingMask[m.To]
	}
	if m.Target != NoSquare {
		cr &= castlingMask[m.Target]
	}
	if cr != p.Castling {
		p.Hash ^= zobristCastling[p.Castling] ^ zobristCastling[cr]
		p.Castling = cr
	}

	if m.Kind == KindCastle {
		rookTo := castleRookTo(m)
		p.shiftPiece(us, King, m.From, m.To)
		p.shiftCargo(us, m.From, m.To)
		p.shiftPiece(us, Rook, m.Target, rookTo)
		p.shiftCargo(us, m.Target, rookTo)
	} else {
		p.shiftPiece(us, m.Piece, m.From, m.To)
		p.shiftCargo(us, m.From, m.To)
	}

	switch m.Kind {
	case KindPromotion, KindCapturePromotion:
		p.takePiece(us, Pawn, m.To)
		p.putPiece(us, m.Promotion, m.To)
	case KindNormalAndRescue, KindCaptureAndRescue:
		held := p.PieceAt(m.Target).Type()
		p.takePiece(us, held, m.Target)
		p.setCargo(us, m.To, held)
	case KindNormalAndDrop, KindCaptureAndDrop:
		placed := p.clearCargo(us, m.To)
		if m.Promotion != NoPieceType {
			placed = m.Promotion
		}
		p.putPiece(us, placed, m.Target)
	}

	if m.Piece == Pawn && m.From != m.To {
		p.HalfMoveClock = 0
		if m.Kind != KindEnPassant && (m.To-m.From == 16 || m.From-m.To == 16) {
			if ep := (m.From + m.To) / 2; p.IsEmpty(ep) {
				p.EnPassant = ep
			}
		}
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= zobristBlack ^ p.enPassantKey()
	p.updateCheckers()
	return u
}

// UnmakeMove reverts the MakeMove that produced u. Moves must be unmade in
// reverse order.
func (p *Position) UnmakeMove(u Undo) {
	m := u.Move
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	them := us.Other()

	switch m.Kind {
	case KindPromotion, KindCapturePromotion:
		p.takePiece(us, m.Promotion, m.To)
		p.putPiece(us, Pawn, m.To)
	case KindNormalAndRescue, KindCaptureAndRescue:
		held := p.clearCargo(us, m.To)
		p.putPiece(us, held, m.Target)
	case KindNormalAndDrop, KindCaptureAndDrop:
		placed := p.PieceAt(m.Target).Type()
		p.takePiece(us, placed, m.Target)
		held := placed
		if m.Promotion != NoPieceType {
			held = Pawn
		}
		p.setCargo(us, m.To, held)
	}

	if m.Kind == KindCastle {
		rookTo := castleRookTo(m)
		p.shiftPiece(us, Rook, rookTo, m.Target)
		p.shiftCargo(us, rookTo, m.Target)
		p.shiftPiece(us, King, m.To, m.From)
		p.shiftCargo(us, m.To, m.From)
	} else {
		p.shiftPiece(us, m.Piece, m.To, m.From)
		p.shiftCargo(us, m.To, m.From)
	}

	if sq := m.CapturedSquare(); sq != NoSquare {
		p.putPiece(them, m.Captured, sq)
		if u.CapturedCargo != NoPieceType {
			p.setCargo(them, sq, u.CapturedCargo)
		}
	}

	p.Castling = u.Castling
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.FullMoveNumber = u.FullMove
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// castleRookTo is the square the rook lands on: next to the king, on the
// side it came from.
func castleRookTo(m Move) Square {
	if m.To > m.From {
		return m.To - 1
	}
	return m.To + 1
}
