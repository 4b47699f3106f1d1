package game

// Lobby tag-quiz flow: each player proves (or auto-assigns) their three
// country tags, then confirms to receive the final starting set.

// TagSelectionOptions returns the country pool the player picks from. The
// answer key itself never leaves the server.
func (g *Game) TagSelectionOptions(playerID string) ([]Tag, error) {
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !p.TagSelectionPending {
		return nil, newErr(KindPreconditionFailed, "TagsConfirmed", "tags already confirmed")
	}
	return CountryTags(p.Character), nil
}

// SubmitTagSelection verifies the player's three picks against the answer
// key and stages them for confirmation.
func (g *Game) SubmitTagSelection(playerID string, selected []string) error {
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.TagSelectionPending {
		return newErr(KindPreconditionFailed, "TagsConfirmed", "tags already confirmed")
	}
	if len(selected) != 3 {
		return newErr(KindRuleViolation, "InvalidTagCount", "exactly 3 country tags must be selected")
	}
	key := AnswerKey(p.Character)
	want := make(map[string]bool, len(key))
	for _, id := range key {
		want[id] = true
	}
	for _, id := range selected {
		if !want[id] {
			return newErr(KindRuleViolation, "WrongTagSelection", "selection does not match your nationality")
		}
		delete(want, id)
	}
	p.correctTagIDs = append([]string(nil), selected...)
	g.touch()
	return nil
}

// AutoAssignTags applies the answer key directly, skipping the quiz.
func (g *Game) AutoAssignTags(playerID string) error {
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.TagSelectionPending {
		return newErr(KindPreconditionFailed, "TagsConfirmed", "tags already confirmed")
	}
	p.correctTagIDs = AnswerKey(p.Character)
	g.touch()
	return nil
}

// ConfirmTags finalizes the staged selection into the starting tag set.
func (g *Game) ConfirmTags(playerID string) error {
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.TagSelectionPending {
		return newErr(KindPreconditionFailed, "TagsConfirmed", "tags already confirmed")
	}
	if len(p.correctTagIDs) != 3 {
		return newErr(KindPreconditionFailed, "SelectionIncomplete", "submit or auto-assign your tags first")
	}
	g.assignTags(p, p.correctTagIDs)
	g.touch()
	return nil
}

// requireTagEvent is the shared precondition of the landing tag flows.
func (g *Game) requireTagEvent(playerID string, kind PendingKind) (*Player, error) {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseAwaitingTagEvent || g.Pending == nil ||
		g.Pending.Kind != kind || g.Pending.PlayerID != playerID {
		return nil, ErrWrongPhase
	}
	return p, nil
}

// RemoveOwnTag discards one held tag for a point reward after landing on the
// player's own square. This is the ungated entry point; the quiz-gated
// variant resolves into the same primitive.
func (g *Game) RemoveOwnTag(playerID, tagID string, points int) error {
	p, err := g.requireTagEvent(playerID, PendingOwnTag)
	if err != nil {
		return err
	}
	if points <= 0 {
		return newErr(KindInvalidInput, "InvalidPoints", "points must be positive")
	}
	if !p.HasTag(tagID) {
		return ErrTagNotHeld
	}
	p.removeTag(tagID)
	p.Money += points
	g.Pending = nil
	g.Phase = PhaseAwaitingEndTurn
	g.touch()
	g.checkWin(p)
	return nil
}

// RemoveOwnTagWithQuestion is the quiz-gated variant: it applies only after
// the host has marked the current question correct, and consumes that
// verification. Returns whether the turn should auto-end.
func (g *Game) RemoveOwnTagWithQuestion(playerID, tagID string, points int, autoEnd bool) (bool, error) {
	p, err := g.requireTagEvent(playerID, PendingOwnTag)
	if err != nil {
		return false, err
	}
	if !g.Pending.Verified {
		return false, ErrQuestionNotVerified
	}
	if points <= 0 {
		return false, newErr(KindInvalidInput, "InvalidPoints", "points must be positive")
	}
	if !p.HasTag(tagID) {
		return false, ErrTagNotHeld
	}
	p.removeTag(tagID)
	p.Money += points
	g.Pending = nil
	g.Phase = PhaseAwaitingEndTurn
	g.touch()
	g.checkWin(p)
	return autoEnd && !g.Ended, nil
}

// OthersTagResult reports how a landing on another player's square resolved.
type OthersTagResult struct {
	Helped     bool   `json:"helped"`
	TagID      string `json:"tagId,omitempty"`
	OwnerID    string `json:"ownerId,omitempty"`
	Amount     int    `json:"amount"`
	ToFund     bool   `json:"toFund,omitempty"`
	Recovery   bool   `json:"recovery,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
	AutoEnd    bool   `json:"autoEnd,omitempty"`
}

// HandleOthersTag resolves the help-or-decline choice. Helping removes one
// of the owner's tags and rewards the helper with the toll; declining debits
// the toll, crediting the owner's nationality representative or the public
// fund. The owner is re-fetched here: they may have left since the landing.
func (g *Game) HandleOthersTag(playerID string, ownerCharacter Character, tagID string, help bool) (*OthersTagResult, error) {
	return g.handleOthersTag(playerID, ownerCharacter, tagID, help, false, false)
}

// HandleOthersTagWithQuestion is the quiz-gated variant with an auto-end flag
// threaded through from the client.
func (g *Game) HandleOthersTagWithQuestion(playerID string, ownerCharacter Character, tagID string, help, autoEnd bool) (*OthersTagResult, error) {
	return g.handleOthersTag(playerID, ownerCharacter, tagID, help, true, autoEnd)
}

func (g *Game) handleOthersTag(playerID string, ownerCharacter Character, tagID string, help, gated, autoEnd bool) (*OthersTagResult, error) {
	p, err := g.requireTagEvent(playerID, PendingOthersTag)
	if err != nil {
		return nil, err
	}
	if gated && !g.Pending.Verified {
		return nil, ErrQuestionNotVerified
	}
	if ownerCharacter != g.Pending.OwnerCharacter {
		return nil, newErr(KindInvalidInput, "WrongOwner", "owner character does not match the landing")
	}
	toll := g.Pending.Toll
	owner, ownerPresent := g.playerByCharacter(ownerCharacter)
	res := &OthersTagResult{Amount: toll, AutoEnd: autoEnd}
	if ownerPresent {
		res.OwnerID = owner.ID
	}

	if help {
		if !ownerPresent {
			return nil, newErr(KindPreconditionFailed, "OwnerGone", "the square's owner is no longer in the room")
		}
		if !owner.HasTag(tagID) {
			return nil, ErrTagNotHeld
		}
		owner.removeTag(tagID)
		p.Money += toll
		res.Helped = true
		res.TagID = tagID
		g.Pending = nil
		g.Phase = PhaseAwaitingEndTurn
		g.touch()
		g.checkWin(owner)
		res.AutoEnd = res.AutoEnd && !g.Ended
		return res, nil
	}

	// Decline: pay the toll.
	p.Money -= toll
	if ownerPresent {
		owner.Money += toll
	} else {
		g.PublicFund += toll
		res.ToFund = true
	}
	g.Pending = nil
	switch {
	case p.Money <= 0 && g.canRecover(p):
		g.triggerRecovery(p)
		res.Recovery = true
		res.AutoEnd = false
	case p.Money <= 0:
		var creditor *Player
		if ownerPresent {
			creditor = owner
		}
		if bres := g.resolvePenaltyInsolvency(p, creditor); bres.Eliminated {
			res.Eliminated = true
			res.AutoEnd = false
		} else {
			// Liquidation pulled the balance back above zero.
			g.Phase = PhaseAwaitingEndTurn
		}
	default:
		g.Phase = PhaseAwaitingEndTurn
	}
	g.touch()
	return res, nil
}

// Quiz gate: an image question shown to the room; only the host (observer
// included) judges it. A correct verdict unlocks exactly one subsequent
// removal carrying the original landing context.

// RequestShowQuestion attaches a random question to the pending tag event.
func (g *Game) RequestShowQuestion(playerID string) (Question, error) {
	if _, err := g.requireTurn(playerID); err != nil {
		return Question{}, err
	}
	if g.Phase != PhaseAwaitingTagEvent || g.Pending == nil {
		return Question{}, ErrWrongPhase
	}
	q := questionPool[g.rng.IntN(len(questionPool))]
	g.Pending.QuestionID = q.ID
	g.Pending.Verified = false
	g.touch()
	return q, nil
}

// QuestionAnswered records the arbiter's verdict. A correct verdict verifies
// the pending event; an incorrect one swaps in a replacement question.
func (g *Game) QuestionAnswered(judgeID string, correct bool) (*Question, error) {
	if judgeID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Phase != PhaseAwaitingTagEvent || g.Pending == nil || g.Pending.QuestionID == "" {
		return nil, ErrWrongPhase
	}
	if correct {
		g.Pending.Verified = true
		g.touch()
		return nil, nil
	}
	q := questionPool[g.rng.IntN(len(questionPool))]
	g.Pending.QuestionID = q.ID
	g.touch()
	return &q, nil
}

// Question-mark lottery.

// LotteryResult is the drawn outcome awaiting the player's confirmation.
type LotteryResult struct {
	Outcome string   `json:"outcome"` // "removeChoice" or "addTag"
	TagID   string   `json:"tagId,omitempty"`
	Options []string `json:"options,omitempty"`
}

// QuestionMarkLottery draws the mystery-square outcome: a 50/50 between a
// general-tag removal choice and a new random tag, with the add outcome
// forced when no general tags are held.
func (g *Game) QuestionMarkLottery(playerID string) (*LotteryResult, error) {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseAwaitingLottery || g.Pending == nil ||
		g.Pending.Kind != PendingLottery || g.Pending.PlayerID != playerID {
		return nil, ErrWrongPhase
	}
	if g.Pending.LotteryResolved || g.Pending.LotteryRemoveChoice {
		return nil, newErr(KindPreconditionFailed, "LotteryDrawn", "lottery already drawn")
	}

	var heldGeneral []string
	for _, id := range p.Tags {
		if IsGeneralTag(id) {
			heldGeneral = append(heldGeneral, id)
		}
	}
	if len(heldGeneral) > 0 && g.rng.IntN(2) == 0 {
		g.Pending.LotteryRemoveChoice = true
		g.touch()
		return &LotteryResult{Outcome: "removeChoice", Options: heldGeneral}, nil
	}

	added := g.randomNewTag(p)
	if added == "" {
		// Every catalog tag is already held; nothing to grant.
		g.Pending.LotteryResolved = true
		g.touch()
		return &LotteryResult{Outcome: "addTag"}, nil
	}
	p.addTag(added)
	g.Pending.LotteryAddedTag = added
	g.Pending.LotteryResolved = true
	g.touch()
	return &LotteryResult{Outcome: "addTag", TagID: added}, nil
}

// randomNewTag draws from the player's country pool plus the general pool,
// excluding tags already held.
func (g *Game) randomNewTag(p *Player) string {
	var pool []string
	for _, t := range CountryTags(p.Character) {
		if !p.HasTag(t.ID) {
			pool = append(pool, t.ID)
		}
	}
	for _, t := range generalTags {
		if !p.HasTag(t.ID) {
			pool = append(pool, t.ID)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[g.rng.IntN(len(pool))]
}

// QuestionMarkTagSelection resolves the removal-choice outcome with one of
// the player's held general tags.
func (g *Game) QuestionMarkTagSelection(playerID, tagID string) error {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return err
	}
	if g.Phase != PhaseAwaitingLottery || g.Pending == nil ||
		g.Pending.Kind != PendingLottery || !g.Pending.LotteryRemoveChoice ||
		g.Pending.LotteryResolved {
		return ErrWrongPhase
	}
	if !IsGeneralTag(tagID) {
		return newErr(KindRuleViolation, "InvalidTagCategory", "only general tags may be removed here")
	}
	if !p.HasTag(tagID) {
		return ErrTagNotHeld
	}
	p.removeTag(tagID)
	g.Pending.LotteryRemovedTag = tagID
	g.Pending.LotteryResolved = true
	g.touch()
	g.checkWin(p)
	return nil
}

// ConfirmQuestionMarkResult acknowledges the lottery outcome; only then does
// the turn proceed.
func (g *Game) ConfirmQuestionMarkResult(playerID string) error {
	if _, err := g.requireTurn(playerID); err != nil {
		return err
	}
	if g.Phase != PhaseAwaitingLottery || g.Pending == nil || g.Pending.Kind != PendingLottery {
		return ErrWrongPhase
	}
	if !g.Pending.LotteryResolved {
		return newErr(KindPreconditionFailed, "LotteryUnresolved", "draw the lottery first")
	}
	g.Pending = nil
	g.Phase = PhaseAwaitingEndTurn
	g.touch()
	return nil
}
