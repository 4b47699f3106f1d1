package game

// RecoveryReward is the money grant for the tag-based bankruptcy recovery.
const RecoveryReward = 1500

// BankruptcyResult reports how an insolvency was resolved.
type BankruptcyResult struct {
	PlayerID    string `json:"playerId"`
	CreditorID  string `json:"creditorId,omitempty"`
	Debt        int    `json:"debt"`
	Liquidated  int    `json:"liquidated"`
	Paid        bool   `json:"paid"`
	Eliminated  bool   `json:"eliminated"`
	Transferred []int  `json:"transferred,omitempty"`
}

// resolveInsolvency is the base-rule path: liquidate buildings to the extent
// needed, pay if that covers the debt, otherwise hand everything to the
// creditor (or release to the pool) and remove the debtor from play.
func (g *Game) resolveInsolvency(debtor, creditor *Player, debt int) *BankruptcyResult {
	res := &BankruptcyResult{PlayerID: debtor.ID, Debt: debt}
	if creditor != nil {
		res.CreditorID = creditor.ID
	}

	for debtor.Money < debt && g.sellOneBuilding(debtor, res) {
	}

	if debtor.Money >= debt {
		debtor.Money -= debt
		if creditor != nil {
			creditor.Money += debt
		}
		res.Paid = true
		g.touch()
		return res
	}

	g.eliminate(debtor, creditor, res)
	return res
}

// resolvePenaltyInsolvency covers the decline-penalty deficit. The toll is
// already debited, so staying in play only requires climbing back above
// zero; a balance of exactly zero still counts as broke.
func (g *Game) resolvePenaltyInsolvency(debtor, creditor *Player) *BankruptcyResult {
	res := &BankruptcyResult{PlayerID: debtor.ID}
	if creditor != nil {
		res.CreditorID = creditor.ID
	}

	for debtor.Money <= 0 && g.sellOneBuilding(debtor, res) {
	}

	if debtor.Money > 0 {
		res.Paid = true
		g.touch()
		return res
	}

	g.eliminate(debtor, creditor, res)
	return res
}

// eliminate is the shared end of both insolvency paths: assets move to the
// creditor (or back to the pool), the debtor leaves the game.
func (g *Game) eliminate(debtor, creditor *Player, res *BankruptcyResult) {
	if creditor != nil {
		creditor.Money += debtor.Money
		for _, id := range debtor.Properties {
			g.properties[id].Owner = creditor.ID
			creditor.Properties = append(creditor.Properties, id)
			res.Transferred = append(res.Transferred, id)
		}
	} else {
		for _, id := range debtor.Properties {
			g.releaseProperty(id)
		}
	}
	debtor.Money = 0
	debtor.Properties = nil
	res.Eliminated = true
	g.RemovePlayer(debtor.ID)
}

// sellOneBuilding liquidates a single build unit (half refund) and returns
// whether anything was sold.
func (g *Game) sellOneBuilding(p *Player, res *BankruptcyResult) bool {
	for _, id := range p.Properties {
		prop := g.properties[id]
		sq := Board[id]
		if prop.Hotel {
			prop.Hotel = false
			g.hotelsAvail++
			refund := sq.HouseCost * 5 / 2
			p.Money += refund
			res.Liquidated += refund
			return true
		}
		if prop.Houses > 0 {
			prop.Houses--
			g.housesAvail++
			refund := sq.HouseCost / 2
			p.Money += refund
			res.Liquidated += refund
			return true
		}
	}
	return false
}

// triggerRecovery pauses turn progression for the tag-variant recovery: the
// player must pick three unused general tags before the turn can resume.
func (g *Game) triggerRecovery(p *Player) {
	g.Pending = &PendingEvent{Kind: PendingRecovery, PlayerID: p.ID}
	g.Phase = PhaseAwaitingBankruptcy
}

// canRecover reports whether at least three general tags remain that the
// player never held.
func (g *Game) canRecover(p *Player) bool {
	return len(g.unusedGeneralTags(p)) >= 3
}

func (g *Game) unusedGeneralTags(p *Player) []string {
	used := make(map[string]bool, len(p.Tags)+len(p.InitialGeneralTags))
	for _, id := range p.Tags {
		used[id] = true
	}
	for _, id := range p.InitialGeneralTags {
		used[id] = true
	}
	var out []string
	for _, t := range generalTags {
		if !used[t.ID] {
			out = append(out, t.ID)
		}
	}
	return out
}

// HandleBankruptcyTags resolves the recovery: the player takes on exactly
// three unused general tags in exchange for the fixed money grant.
func (g *Game) HandleBankruptcyTags(playerID string, selected []string) error {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return err
	}
	if g.Phase != PhaseAwaitingBankruptcy || g.Pending == nil ||
		g.Pending.Kind != PendingRecovery || g.Pending.PlayerID != playerID {
		return ErrWrongPhase
	}
	if len(selected) != 3 {
		return newErr(KindRuleViolation, "InvalidTagCount", "exactly 3 general tags must be selected")
	}
	seen := make(map[string]bool, 3)
	unused := make(map[string]bool)
	for _, id := range g.unusedGeneralTags(p) {
		unused[id] = true
	}
	for _, id := range selected {
		if !IsGeneralTag(id) || !KnownTag(id) {
			return newErr(KindRuleViolation, "InvalidTagCategory", "tag %q is not a general tag", id)
		}
		if seen[id] {
			return newErr(KindInvalidInput, "DuplicateTag", "tag %q selected twice", id)
		}
		if !unused[id] {
			return newErr(KindRuleViolation, "TagAlreadyUsed", "tag %q was already used", id)
		}
		seen[id] = true
	}
	for _, id := range selected {
		p.addTag(id)
	}
	p.Money += RecoveryReward
	g.Pending = nil
	g.Phase = PhaseAwaitingEndTurn
	g.touch()
	return nil
}
