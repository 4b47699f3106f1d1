package game

// LandingKind describes what a movement resolved into, for the diceRolled
// broadcast.
type LandingKind string

const (
	LandingNone          LandingKind = "none"
	LandingPurchaseOffer LandingKind = "purchaseOffer"
	LandingOwnTag        LandingKind = "ownTag"
	LandingOthersTag     LandingKind = "othersTag"
	LandingQuestionMark  LandingKind = "questionMark"
	LandingBankruptcy    LandingKind = "bankruptcy"
)

// RollResult reports one resolved roll for broadcast alongside the snapshot.
type RollResult struct {
	Roll         DiceRoll          `json:"roll"`
	From         int               `json:"from"`
	To           int               `json:"to"`
	PassedStart  bool              `json:"passedStart"`
	WentToJail   bool              `json:"wentToJail"`
	LeftJail     bool              `json:"leftJail"`
	StayedInJail bool              `json:"stayedInJail"`
	RentPaid     int               `json:"rentPaid,omitempty"`
	Landing      LandingKind       `json:"landing"`
	Bankruptcy   *BankruptcyResult `json:"bankruptcy,omitempty"`
}

// RollDice resolves the current player's roll: movement, pass-start bonus,
// jail rules, triple-double redirect, and the landing dispatch.
func (g *Game) RollDice(playerID string) (*RollResult, error) {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseAwaitingRoll {
		return nil, ErrWrongPhase
	}

	d1, d2 := g.dice()
	roll := DiceRoll{Die1: d1, Die2: d2, Total: d1 + d2, IsDouble: d1 == d2}
	g.CurrentRoll = &roll
	res := &RollResult{Roll: roll, From: p.Position, Landing: LandingNone}

	if p.InJail {
		switch {
		case p.JailCards > 0:
			p.JailCards--
			p.InJail = false
			p.JailTurns = 0
			res.LeftJail = true
		case roll.IsDouble:
			p.InJail = false
			p.JailTurns = 0
			res.LeftJail = true
		default:
			p.JailTurns++
			if p.JailTurns >= 3 {
				p.InJail = false
				p.JailTurns = 0
			}
			res.StayedInJail = true
			res.To = p.Position
			g.doubles = 0
			g.Phase = PhaseAwaitingEndTurn
			g.touch()
			return res, nil
		}
		// A double rolled to leave jail does not grant a re-roll.
		g.doubles = 0
	} else {
		if roll.IsDouble {
			g.doubles++
		} else {
			g.doubles = 0
		}
		if g.doubles >= 3 {
			p.Position = JailSquare
			p.InJail = true
			p.JailTurns = 0
			g.doubles = 0
			res.To = JailSquare
			res.WentToJail = true
			g.Phase = PhaseAwaitingEndTurn
			g.touch()
			return res, nil
		}
	}

	// Passing is old+spaces reaching the wrap, evaluated before modulo.
	if p.Position+roll.Total >= BoardSize {
		p.Money += PassStartBonus
		res.PassedStart = true
	}
	p.Position = (p.Position + roll.Total) % BoardSize
	res.To = p.Position

	g.resolveLanding(p, res)
	g.touch()
	return res, nil
}

func (g *Game) resolveLanding(p *Player, res *RollResult) {
	sq := Board[p.Position]
	switch sq.Kind {
	case SquareStart, SquareFestival, SquareJail:
		g.Phase = PhaseAwaitingEndTurn

	case SquareJump:
		p.Position = JumpTarget
		res.To = JumpTarget
		g.Phase = PhaseAwaitingEndTurn

	case SquareQuestion:
		g.Pending = &PendingEvent{Kind: PendingLottery, PlayerID: p.ID, SquareID: sq.ID}
		g.Phase = PhaseAwaitingLottery
		res.Landing = LandingQuestionMark

	case SquareToll:
		g.resolveTollLanding(p, sq, res)
	}
}

func (g *Game) resolveTollLanding(p *Player, sq Square, res *RollResult) {
	prop := g.properties[sq.ID]
	switch {
	case prop.Owner == p.ID:
		// Own square: a tag-removal opportunity the player may take or skip.
		g.Pending = &PendingEvent{
			Kind: PendingOwnTag, PlayerID: p.ID,
			SquareID: sq.ID, OwnerCharacter: sq.OwnerCharacter,
		}
		g.Phase = PhaseAwaitingTagEvent
		res.Landing = LandingOwnTag

	case prop.Owner != "":
		owner, ok := g.PlayerByID(prop.Owner)
		if !ok || prop.Mortgaged {
			g.Phase = PhaseAwaitingEndTurn
			return
		}
		rent := g.computeRent(sq.ID)
		if p.Money < rent {
			// Cannot even cover the toll: base-rule bankruptcy with the
			// owner as creditor.
			res.Bankruptcy = g.resolveInsolvency(p, owner, rent)
			res.Landing = LandingBankruptcy
			if res.Bankruptcy.Paid {
				// Liquidation covered the debt; the debtor stays but the
				// turn is spent.
				res.RentPaid = rent
				g.Phase = PhaseAwaitingEndTurn
			}
			return
		}
		// Solvent: the lander chooses to help the owner shed a tag or to
		// decline and pay the toll.
		g.Pending = &PendingEvent{
			Kind: PendingOthersTag, PlayerID: p.ID,
			SquareID: sq.ID, OwnerCharacter: owner.Character, Toll: rent,
		}
		g.Phase = PhaseAwaitingTagEvent
		res.RentPaid = 0
		res.Landing = LandingOthersTag

	default:
		g.Phase = PhaseAwaitingPurchase
		res.Landing = LandingPurchaseOffer
	}
}

// EndTurn clears the roll and advances the turn, unless the last roll was a
// non-triple double, in which case the player retains the turn and may roll
// again. Landing effects that demand a choice must be resolved first.
func (g *Game) EndTurn(playerID string) (advanced bool, err error) {
	if _, err := g.requireTurn(playerID); err != nil {
		return false, err
	}
	switch g.Phase {
	case PhaseAwaitingEndTurn, PhaseAwaitingPurchase:
	case PhaseAwaitingTagEvent:
		// The own-square removal is optional; the others-square choice is not.
		if g.Pending == nil || g.Pending.Kind != PendingOwnTag {
			return false, ErrWrongPhase
		}
	default:
		return false, ErrWrongPhase
	}

	rolledDouble := g.CurrentRoll != nil && g.CurrentRoll.IsDouble && g.doubles > 0
	g.CurrentRoll = nil
	g.Pending = nil
	g.Phase = PhaseAwaitingRoll
	if rolledDouble {
		g.touch()
		return false, nil
	}
	g.doubles = 0
	if len(g.TurnOrder) > 0 {
		g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.TurnOrder)
	}
	g.touch()
	return true, nil
}
