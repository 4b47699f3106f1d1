// Package game implements the authoritative state machine for one room:
// roster and turn order, dice and movement, property and rent rules, the tag
// mini-game layered on top, and bankruptcy resolution. The engine is
// lock-free and deterministic given an injected dice source; callers
// serialize access per room.
package game

import (
	"math/rand/v2"
)

// DiceFunc produces one roll of two dice. Injected so tests can seed exact
// sequences.
type DiceFunc func() (int, int)

// Game is the authoritative in-memory state of one room.
type Game struct {
	HostID         string
	HostIsObserver bool
	Started        bool
	Ended          bool
	Winner         string
	EndReason      string

	// Players in join order. Once the game starts, join order of the
	// non-observers is the turn order.
	Players            []*Player
	TurnOrder          []string
	CurrentPlayerIndex int

	CurrentRoll *DiceRoll
	doubles     int

	PublicFund int
	Version    uint64
	Phase      Phase
	Pending    *PendingEvent

	properties  map[int]*Property
	housesAvail int
	hotelsAvail int

	dice DiceFunc
	rng  *rand.Rand
}

// Option configures a new game.
type Option func(*Game)

// WithDice replaces the dice source.
func WithDice(f DiceFunc) Option {
	return func(g *Game) { g.dice = f }
}

// WithRand replaces the randomness used for tag draws and the lottery.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// New creates a room's game with its creating player. An observer host is
// kept on the roster for control authority but excluded from turn order and
// all gameplay effects.
func New(hostID, name string, character Character, observer bool, opts ...Option) *Game {
	g := &Game{
		HostID:         hostID,
		HostIsObserver: observer,
		Phase:          PhaseLobby,
		properties:     make(map[int]*Property),
		housesAvail:    BankHouses,
		hotelsAvail:    BankHotels,
		rng:            rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	g.dice = func() (int, int) {
		return g.rng.IntN(6) + 1, g.rng.IntN(6) + 1
	}
	for _, sq := range Board {
		if sq.Kind == SquareToll {
			g.properties[sq.ID] = &Property{ID: sq.ID}
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	if !ValidCharacter(character) {
		character = CharacterOrder[0]
	}
	g.Players = append(g.Players, &Player{
		ID:                  hostID,
		Name:                name,
		Character:           character,
		Observer:            observer,
		Money:               StartingMoney,
		TagSelectionPending: !observer,
	})
	g.touch()
	return g
}

func (g *Game) touch() {
	g.Version++
}

// PlayerByID returns the roster entry for a connection id.
func (g *Game) PlayerByID(id string) (*Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// playerByCharacter returns the first non-observer holding the character.
func (g *Game) playerByCharacter(c Character) (*Player, bool) {
	for _, p := range g.Players {
		if !p.Observer && p.Character == c {
			return p, true
		}
	}
	return nil, false
}

func (g *Game) characterTaken(c Character) bool {
	for _, p := range g.Players {
		if p.Character == c {
			return true
		}
	}
	return false
}

// AvailableCharacters returns the characters not yet claimed, in scan order.
func (g *Game) AvailableCharacters() []Character {
	var free []Character
	for _, c := range CharacterOrder {
		if !g.characterTaken(c) {
			free = append(free, c)
		}
	}
	return free
}

// AddPlayer joins a player, reassigning the character to the next free slot
// if the requested one is taken.
func (g *Game) AddPlayer(id, name string, character Character) (Character, error) {
	if g.Started {
		return "", ErrGameAlreadyStarted
	}
	if len(g.Players) >= MaxPlayers {
		return "", ErrRoomFull
	}
	if _, exists := g.PlayerByID(id); exists {
		return "", newErr(KindPreconditionFailed, "AlreadyJoined", "connection already joined this room")
	}
	if !ValidCharacter(character) || g.characterTaken(character) {
		assigned := false
		for _, c := range CharacterOrder {
			if !g.characterTaken(c) {
				character = c
				assigned = true
				break
			}
		}
		if !assigned {
			return "", ErrRoomFull
		}
	}
	g.Players = append(g.Players, &Player{
		ID:                  id,
		Name:                name,
		Character:           character,
		Money:               StartingMoney,
		TagSelectionPending: true,
	})
	g.touch()
	return character, nil
}

// Start fixes the turn order as the current join order and begins play.
// Players who never finished the lobby tag quiz are auto-assigned.
func (g *Game) Start(requesterID string) error {
	if requesterID != g.HostID {
		return ErrNotHost
	}
	if g.Started {
		return ErrGameAlreadyStarted
	}
	var order []string
	for _, p := range g.Players {
		if p.Observer {
			continue
		}
		order = append(order, p.ID)
		if p.TagSelectionPending {
			g.assignTags(p, AnswerKey(p.Character))
		}
	}
	if len(order) < 2 {
		return ErrInsufficientPlayers
	}
	g.TurnOrder = order
	g.CurrentPlayerIndex = 0
	g.Started = true
	g.Phase = PhaseAwaitingRoll
	g.touch()
	return nil
}

// RemovePlayer handles a disconnect. Idempotent. Returns whether the roster
// is now empty (room should be deleted).
func (g *Game) RemovePlayer(id string) (removed, empty bool) {
	idx := -1
	for i, p := range g.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, len(g.Players) == 0
	}
	p := g.Players[idx]
	// Release holdings to the unowned pool; buildings go back to the bank.
	for _, propID := range p.Properties {
		g.releaseProperty(propID)
	}
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	heldTurn := false
	for i, pid := range g.TurnOrder {
		if pid == id {
			heldTurn = g.Started && i == g.CurrentPlayerIndex
			g.TurnOrder = append(g.TurnOrder[:i], g.TurnOrder[i+1:]...)
			if i < g.CurrentPlayerIndex {
				g.CurrentPlayerIndex--
			}
			break
		}
	}
	if len(g.TurnOrder) > 0 && g.CurrentPlayerIndex >= len(g.TurnOrder) {
		g.CurrentPlayerIndex = 0
	}
	if heldTurn {
		// Turn passes to the new occupant of the index, never further.
		g.CurrentRoll = nil
		g.doubles = 0
		g.Pending = nil
		if g.Started {
			g.Phase = PhaseAwaitingRoll
		}
	}
	if g.Pending != nil && g.Pending.PlayerID == id {
		g.Pending = nil
	}
	if len(g.Players) == 0 {
		g.Started = false
		g.TurnOrder = nil
		g.CurrentRoll = nil
		g.Pending = nil
	}
	g.touch()
	return true, len(g.Players) == 0
}

func (g *Game) releaseProperty(id int) {
	prop, ok := g.properties[id]
	if !ok {
		return
	}
	g.housesAvail += prop.Houses
	if prop.Hotel {
		g.hotelsAvail++
	}
	prop.Owner = ""
	prop.Houses = 0
	prop.Hotel = false
	prop.Mortgaged = false
}

func (g *Game) currentPlayer() (*Player, bool) {
	if !g.Started || len(g.TurnOrder) == 0 {
		return nil, false
	}
	return g.PlayerByID(g.TurnOrder[g.CurrentPlayerIndex])
}

// CurrentPlayerID returns the id of the player holding the turn, or "".
func (g *Game) CurrentPlayerID() string {
	if p, ok := g.currentPlayer(); ok {
		return p.ID
	}
	return ""
}

// requireTurn is the shared precondition for every turn-scoped intent.
func (g *Game) requireTurn(playerID string) (*Player, error) {
	if g.Ended {
		return nil, ErrGameOver
	}
	if !g.Started {
		return nil, ErrGameNotStarted
	}
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if cur, ok := g.currentPlayer(); !ok || cur.ID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// assignTags finalizes a player's starting set: the three country tags plus
// two random general tags, with the initial snapshots used for end-game
// scoring.
func (g *Game) assignTags(p *Player, country []string) {
	general := g.randomGeneralTags(2, nil)
	p.Tags = nil
	for _, id := range country {
		p.addTag(id)
	}
	for _, id := range general {
		p.addTag(id)
	}
	p.InitialCountryTags = append([]string(nil), country...)
	p.InitialGeneralTags = append([]string(nil), general...)
	p.TagSelectionPending = false
	p.correctTagIDs = nil
}

func (g *Game) randomGeneralTags(n int, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	var pool []string
	for _, t := range generalTags {
		if !excluded[t.ID] {
			pool = append(pool, t.ID)
		}
	}
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// checkWin ends the game if the player shed their last tag.
func (g *Game) checkWin(p *Player) bool {
	if !g.Started || g.Ended || len(p.Tags) != 0 {
		return false
	}
	g.Ended = true
	g.Winner = p.ID
	g.EndReason = "playerWin"
	g.touch()
	return true
}

// ForceEnd lets the host end the game and force scoring.
func (g *Game) ForceEnd(requesterID string) ([]Score, error) {
	if requesterID != g.HostID {
		return nil, ErrNotHost
	}
	if !g.Started {
		return nil, ErrGameNotStarted
	}
	if g.Ended {
		return nil, ErrGameOver
	}
	g.Ended = true
	g.EndReason = "hostEnded"
	g.touch()
	return g.Scores(), nil
}

// Snapshot produces the complete externally visible state.
func (g *Game) Snapshot() Snapshot {
	players := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		cp := *p
		cp.Properties = append([]int(nil), p.Properties...)
		cp.Tags = append([]string(nil), p.Tags...)
		players = append(players, cp)
	}
	props := make([]PropertyView, 0, len(Board))
	for _, sq := range Board {
		view := PropertyView{
			ID: sq.ID, Name: sq.Name, Kind: sq.Kind,
			Group: sq.Group, OwnerCharacter: sq.OwnerCharacter,
			Price: sq.Price, Toll: sq.Toll, Rents: sq.Rents, HouseCost: sq.HouseCost,
		}
		if prop, ok := g.properties[sq.ID]; ok {
			view.Owner = prop.Owner
			view.Houses = prop.Houses
			view.Hotel = prop.Hotel
			view.Mortgaged = prop.Mortgaged
		}
		props = append(props, view)
	}
	var pending *PendingEvent
	if g.Pending != nil {
		cp := *g.Pending
		pending = &cp
	}
	var roll *DiceRoll
	if g.CurrentRoll != nil {
		cp := *g.CurrentRoll
		roll = &cp
	}
	return Snapshot{
		Players:            players,
		Properties:         props,
		CurrentPlayer:      g.CurrentPlayerID(),
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		GameStarted:        g.Started,
		CurrentRoll:        roll,
		PublicFund:         g.PublicFund,
		HostID:             g.HostID,
		HostIsObserver:     g.HostIsObserver,
		Version:            g.Version,
		Phase:              g.Phase,
		Pending:            pending,
		Ended:              g.Ended,
	}
}

// Scores ranks all non-observer players: money plus a fixed bonus per shed
// initial tag, descending.
func (g *Game) Scores() []Score {
	const shedBonus = 100
	var scores []Score
	for _, p := range g.Players {
		if p.Observer {
			continue
		}
		shed := 0
		for _, id := range p.InitialCountryTags {
			if !p.HasTag(id) {
				shed++
			}
		}
		for _, id := range p.InitialGeneralTags {
			if !p.HasTag(id) {
				shed++
			}
		}
		scores = append(scores, Score{
			PlayerID:  p.ID,
			Name:      p.Name,
			Character: p.Character,
			Money:     p.Money,
			TagsShed:  shed,
			TagsHeld:  len(p.Tags),
			Score:     p.Money + shed*shedBonus,
		})
	}
	for i := 0; i < len(scores); i++ {
		for j := i + 1; j < len(scores); j++ {
			if scores[j].Score > scores[i].Score {
				scores[i], scores[j] = scores[j], scores[i]
			}
		}
	}
	for i := range scores {
		scores[i].Rank = i + 1
		if g.Winner != "" && scores[i].PlayerID == g.Winner {
			scores[i].Rank = 1
		}
	}
	return scores
}
