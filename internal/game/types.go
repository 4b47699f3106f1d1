package game

// Phase is the explicit turn state machine. Every intent is legal in exactly
// the phases it checks, so an illegal-intent-for-current-state is one
// comparison instead of scattered boolean flags.
type Phase string

const (
	PhaseLobby              Phase = "lobby"
	PhaseAwaitingRoll       Phase = "awaitingRoll"
	PhaseAwaitingPurchase   Phase = "awaitingPurchase"
	PhaseAwaitingTagEvent   Phase = "awaitingTagEvent"
	PhaseAwaitingLottery    Phase = "awaitingLottery"
	PhaseAwaitingBankruptcy Phase = "awaitingBankruptcy"
	PhaseAwaitingEndTurn    Phase = "awaitingEndTurn"
)

// DiceRoll is the ephemeral result of one roll, valid for the current turn.
type DiceRoll struct {
	Die1     int  `json:"die1"`
	Die2     int  `json:"die2"`
	Total    int  `json:"total"`
	IsDouble bool `json:"isDouble"`
}

// Player is one roster entry. The ID equals the transport connection id.
type Player struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Character           Character `json:"character"`
	Observer            bool      `json:"observer"`
	Position            int       `json:"position"`
	Money               int       `json:"money"`
	Properties          []int     `json:"properties"`
	InJail              bool      `json:"inJail"`
	JailTurns           int       `json:"jailTurns"`
	JailCards           int       `json:"jailCards"`
	Tags                []string  `json:"tags"`
	InitialCountryTags  []string  `json:"initialCountryTags"`
	InitialGeneralTags  []string  `json:"initialGeneralTags"`
	TagSelectionPending bool      `json:"tagSelectionPending"`

	// Staged lobby-quiz picks, verified against the answer key. Never
	// serialized: the key must not leak to clients.
	correctTagIDs []string
}

// HasTag reports current membership of a tag id.
func (p *Player) HasTag(id string) bool {
	for _, t := range p.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// addTag is idempotent: a tag id is never held twice.
func (p *Player) addTag(id string) bool {
	if p.HasTag(id) {
		return false
	}
	p.Tags = append(p.Tags, id)
	return true
}

func (p *Player) removeTag(id string) bool {
	for i, t := range p.Tags {
		if t == id {
			p.Tags = append(p.Tags[:i], p.Tags[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Player) ownsProperty(id int) bool {
	for _, pid := range p.Properties {
		if pid == id {
			return true
		}
	}
	return false
}

// Property is the mutable ownership state of one toll square.
type Property struct {
	ID        int    `json:"id"`
	Owner     string `json:"owner,omitempty"`
	Houses    int    `json:"houses"`
	Hotel     bool   `json:"hotel"`
	Mortgaged bool   `json:"mortgaged"`
}

// PropertyView merges static square data with runtime ownership for the
// snapshot contract.
type PropertyView struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Kind           SquareKind `json:"kind"`
	Group          string    `json:"group,omitempty"`
	OwnerCharacter Character `json:"ownerCharacter,omitempty"`
	Price          int       `json:"price,omitempty"`
	Toll           int       `json:"toll,omitempty"`
	Rents          [6]int    `json:"rents,omitempty"`
	HouseCost      int       `json:"houseCost,omitempty"`
	Owner          string    `json:"owner,omitempty"`
	Houses         int       `json:"houses"`
	Hotel          bool      `json:"hotel"`
	Mortgaged      bool      `json:"mortgaged"`
}

// PendingKind names the deferred landing effect the turn is blocked on.
type PendingKind string

const (
	PendingOwnTag    PendingKind = "ownTag"
	PendingOthersTag PendingKind = "othersTag"
	PendingLottery   PendingKind = "lottery"
	PendingRecovery  PendingKind = "recovery"
)

// PendingEvent carries the landing context a tag-flow intent must resolve.
// It is part of the snapshot so clients can re-render mid-flow after a
// reconnect.
type PendingEvent struct {
	Kind           PendingKind `json:"kind"`
	PlayerID       string      `json:"playerId"`
	SquareID       int         `json:"squareId"`
	OwnerCharacter Character   `json:"ownerCharacter,omitempty"`
	Toll           int         `json:"toll,omitempty"`

	// Lottery state: either a removal choice over held general tags, or an
	// already-added tag awaiting confirmation.
	LotteryRemoveChoice bool   `json:"lotteryRemoveChoice,omitempty"`
	LotteryAddedTag     string `json:"lotteryAddedTag,omitempty"`
	LotteryRemovedTag   string `json:"lotteryRemovedTag,omitempty"`
	LotteryResolved     bool   `json:"lotteryResolved,omitempty"`

	// Quiz-gate state. Verified is consumed by exactly one removal.
	QuestionID string `json:"questionId,omitempty"`
	Verified   bool   `json:"verified,omitempty"`
	AutoEnd    bool   `json:"autoEnd,omitempty"`
}

// Snapshot is the externally visible room state broadcast after every
// successful intent. It is complete: clients render from it alone.
type Snapshot struct {
	Players            []Player       `json:"players"`
	Properties         []PropertyView `json:"properties"`
	CurrentPlayer      string         `json:"currentPlayer,omitempty"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	GameStarted        bool           `json:"gameStarted"`
	CurrentRoll        *DiceRoll      `json:"currentRoll,omitempty"`
	PublicFund         int            `json:"publicFund"`
	HostID             string         `json:"hostId"`
	HostIsObserver     bool           `json:"hostIsObserver"`
	Version            uint64         `json:"version"`
	Phase              Phase          `json:"phase"`
	Pending            *PendingEvent  `json:"pending,omitempty"`
	Ended              bool           `json:"ended,omitempty"`
}

// Score is one player's final standing.
type Score struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name"`
	Character Character `json:"character"`
	Money     int       `json:"money"`
	TagsShed  int       `json:"tagsShed"`
	TagsHeld  int       `json:"tagsHeld"`
	Score     int       `json:"score"`
	Rank      int       `json:"rank"`
}
