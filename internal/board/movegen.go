package board

// GenerateLegalMoves returns every legal move for the side to move under r.
func (p *Position) GenerateLegalMoves(r Rules) *MoveList {
	ml := NewMoveList()
	p.generate(ml, r, false)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves returns moves that obey piece movement but may
// leave the mover's king attacked.
func (p *Position) GeneratePseudoLegalMoves(r Rules) *MoveList {
	ml := NewMoveList()
	p.generate(ml, r, false)
	return ml
}

// GenerateCaptures returns the legal captures and promotions, including
// captures that also rescue or drop. Quiescence search feeds on these.
func (p *Position) GenerateCaptures(r Rules) *MoveList {
	ml := NewMoveList()
	p.generate(ml, r, true)
	return p.filterLegalMoves(ml)
}

// IsLegal reports whether a pseudo-legal move keeps the mover's king safe.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	u := p.MakeMove(m)
	ok := !p.InCheckColor(us)
	p.UnmakeMove(u)
	return ok
}

func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	legal := NewMoveList()
	for _, m := range ml.Slice() {
		if p.IsLegal(m) {
			legal.Add(m)
		}
	}
	return legal
}

// generate appends pseudo-legal moves. With capturesOnly set, quiet moves
// other than promotions are skipped.
func (p *Position) generate(ml *MoveList, r Rules, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied

	targets := ^p.Occupied[us]
	if capturesOnly {
		targets = p.Occupied[them]
	}

	// Pawn moves
	p.generatePawnMoves(ml, r, capturesOnly)

	// Piece moves
	for pt := Knight; pt <= King; pt++ {
		for pieces := p.Pieces[us][pt]; pieces != 0; {
			from := pieces.PopLSB()
			for attacks := Attacks(pt, us, from, occupied) & targets; attacks != 0; {
				p.addWithCargo(ml, r, p.stepMove(pt, from, attacks.PopLSB()))
			}
		}
	}

	// Castling
	if !capturesOnly {
		p.generateCastlingMoves(ml)
	}

	// Rescues and drops without moving
	if !capturesOnly && r.CarryEnabled() {
		for pieces := p.Occupied[us]; pieces != 0; {
			sq := pieces.PopLSB()
			p.addCargoMoves(ml, r, baseMove(KindNormal, p.PieceAt(sq).Type(), sq, sq))
		}
	}
}

// stepMove builds the Normal or Capture move for pt going from -> to.
func (p *Position) stepMove(pt PieceType, from, to Square) Move {
	if !p.Occupied[p.SideToMove.Other()].Has(to) {
		return baseMove(KindNormal, pt, from, to)
	}
	m := baseMove(KindCapture, pt, from, to)
	m.Captured = p.PieceAt(to).Type()
	m.CapturedCargo = p.Cargo[to]
	return m
}

func (p *Position) generatePawnMoves(ml *MoveList, r Rules, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	empty := ^p.AllOccupied
	lastRank := Rank8
	doubleRank := Rank4
	if us == Black {
		lastRank = Rank1
		doubleRank = Rank5
	}

	for pawns := p.Pieces[us][Pawn]; pawns != 0; {
		from := pawns.PopLSB()
		one := SquareBB(from).Forward(us) & empty

		// Pushes
		if one != 0 {
			to := one.LSB()
			if one&lastRank != 0 {
				p.addPromotions(ml, from, to)
			} else if !capturesOnly {
				p.addWithCargo(ml, r, baseMove(KindNormal, Pawn, from, to))
				if two := one.Forward(us) & empty & doubleRank; two != 0 {
					p.addWithCargo(ml, r, baseMove(KindNormal, Pawn, from, two.LSB()))
				}
			}
		}

		// Captures
		for caps := pawnAttacks[us][from] & p.Occupied[them]; caps != 0; {
			to := caps.PopLSB()
			if SquareBB(to)&lastRank != 0 {
				p.addPromotions(ml, from, to)
			} else {
				p.addWithCargo(ml, r, p.stepMove(Pawn, from, to))
			}
		}
	}

	// En passant
	if ep := p.EnPassant; ep != NoSquare {
		victim := SquareBB(ep).Forward(them).LSB()
		if victim != NoSquare && p.Pieces[them][Pawn].Has(victim) && p.IsEmpty(ep) {
			for attackers := pawnAttacks[them][ep] & p.Pieces[us][Pawn]; attackers != 0; {
				m := baseMove(KindEnPassant, Pawn, attackers.PopLSB(), ep)
				m.Captured = Pawn
				m.CapturedCargo = p.Cargo[victim]
				m.Target = victim
				ml.Add(m)
			}
		}
	}
}

// addPromotions emits one move per promotion type. Promotions never carry a
// rescue or drop.
func (p *Position) addPromotions(ml *MoveList, from, to Square) {
	base := p.stepMove(Pawn, from, to)
	kind := KindPromotion
	if base.Kind == KindCapture {
		kind = KindCapturePromotion
	}
	for _, promo := range PromotionTypes {
		m := base
		m.Kind = kind
		m.Promotion = promo
		ml.Add(m)
	}
}

func (p *Position) generateCastlingMoves(ml *MoveList) {
	us := p.SideToMove
	if p.Checkers != 0 {
		return
	}
	for _, cs := range castleSpecs[us] {
		if p.Castling&cs.right == 0 {
			continue
		}
		if !p.Pieces[us][King].Has(cs.king) || !p.Pieces[us][Rook].Has(cs.rook) {
			continue
		}
		if p.AllOccupied&cs.empty != 0 {
			continue
		}
		safe := true
		for path := cs.safe; path != 0; {
			if p.IsSquareAttacked(path.PopLSB(), us.Other()) {
				safe = false
				break
			}
		}
		if !safe {
			continue
		}
		m := baseMove(KindCastle, King, cs.king, cs.kingTo)
		m.Target = cs.rook
		ml.Add(m)
	}
}

// addWithCargo adds base and, when carrying is enabled, every rescue or drop
// that can ride on it.
func (p *Position) addWithCargo(ml *MoveList, r Rules, base Move) {
	ml.Add(base)
	if r.CarryEnabled() {
		p.addCargoMoves(ml, r, base)
	}
}

// addCargoMoves adds the rescue or drop variants of base around base.To. A
// loaded mover may drop; an empty-handed mover may rescue. With From == To
// the piece stays put and only picks up or puts down.
func (p *Position) addCargoMoves(ml *MoveList, r Rules, base Move) {
	us := p.SideToMove
	reach := r.Reach(base.To)

	if held := p.Cargo[base.From]; held != NoPieceType {
		kind := KindNormalAndDrop
		if base.Kind == KindCapture {
			kind = KindCaptureAndDrop
		}
		for drops := reach &^ p.AllOccupied; drops != 0; {
			sq := drops.PopLSB()
			m := base
			m.Kind = kind
			m.Target = sq
			if held != Pawn {
				ml.Add(m)
				continue
			}
			switch sq.RelativeRank(us) {
			case 0:
				// never on its own back rank
			case 7:
				for _, promo := range PromotionTypes {
					m.Promotion = promo
					ml.Add(m)
				}
			default:
				ml.Add(m)
			}
		}
		return
	}

	kind := KindNormalAndRescue
	if base.Kind == KindCapture {
		kind = KindCaptureAndRescue
	}
	friends := reach & p.Occupied[us] &^ p.Pieces[us][King] &^ p.Carriers &^ SquareBB(base.From)
	for friends != 0 {
		sq := friends.PopLSB()
		if !r.CanHold(base.Piece, p.PieceAt(sq).Type()) {
			continue
		}
		m := base
		m.Kind = kind
		m.Target = sq
		ml.Add(m)
	}
}

// HasLegalMoves reports whether the side to move can move at all.
func (p *Position) HasLegalMoves(r Rules) bool {
	ml := NewMoveList()
	p.generate(ml, r, false)
	for _, m := range ml.Slice() {
		if p.IsLegal(m) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate(r Rules) bool {
	return p.InCheck() && !p.HasLegalMoves(r)
}

// IsStalemate reports whether the side to move has no moves but is not in check.
func (p *Position) IsStalemate(r Rules) bool {
	return !p.InCheck() && !p.HasLegalMoves(r)
}

// IsInsufficientMaterial reports whether neither side can mate: bare kings,
// or a single minor piece against a bare king. Any cargo counts as material.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Carriers != 0 {
		return false
	}
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	white := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).PopCount()
	black := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).PopCount()
	return white+black <= 1
}
