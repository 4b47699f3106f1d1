// Package room owns room lifecycle: code allocation, the live-room registry,
// the cancellable auto-end scheduler, and results recording at game end.
package room

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tagopoly/internal/game"
	"tagopoly/internal/storage"
)

// Room is one isolated game session. All intent handling for a room happens
// under its lock; rooms share nothing, so no global lock is needed.
type Room struct {
	Code string
	Game *game.Game

	// ResultRecorded guards against double-recording a finished game.
	// Guarded by the room lock.
	ResultRecorded bool

	mu sync.Mutex
}

// Lock and Unlock expose the per-room mutex to the dispatcher.
func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Info summarizes a room for the lobby listing.
type Info struct {
	Code        string `json:"code"`
	Players     int    `json:"players"`
	GameStarted bool   `json:"gameStarted"`
	Ended       bool   `json:"ended"`
}

// Registry holds all live rooms. Created once at process start and injected
// into the dispatcher; tests create fresh registries for isolation.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	store *storage.Store
	log   *zap.SugaredLogger
}

// NewRegistry creates an empty registry. store may be nil to disable results
// recording.
func NewRegistry(store *storage.Store, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		timers: make(map[string]*time.Timer),
		store:  store,
		log:    log,
	}
}

// Create allocates a fresh room code and creates the room with its first
// player.
func (reg *Registry) Create(creatorID, name string, character game.Character, observer bool, opts ...game.Option) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = newCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}
	r := &Room{
		Code: code,
		Game: game.New(creatorID, name, character, observer, opts...),
	}
	reg.rooms[code] = r
	reg.log.Infow("room created", "code", code, "host", creatorID, "observer", observer)
	return r
}

// Get returns a room by code.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// List returns lobby info for all live rooms.
func (reg *Registry) List() []Info {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	infos := make([]Info, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		r.Lock()
		infos = append(infos, Info{
			Code:        r.Code,
			Players:     len(r.Game.Players),
			GameStarted: r.Game.Started,
			Ended:       r.Game.Ended,
		})
		r.Unlock()
	}
	return infos
}

// Remove deletes a room and cancels any scheduled turn advance for it.
func (reg *Registry) Remove(code string) {
	reg.CancelAutoEnd(code)
	reg.mu.Lock()
	if _, ok := reg.rooms[code]; ok {
		delete(reg.rooms, code)
		reg.log.Infow("room removed", "code", code)
	}
	reg.mu.Unlock()
}

// ScheduleAutoEnd arms a cancellable timer that fires fn with the room after
// d, unless the room is removed or a superseding intent cancels it first.
// fn must re-fetch all state under the room lock.
func (reg *Registry) ScheduleAutoEnd(code string, d time.Duration, fn func(*Room)) {
	reg.timersMu.Lock()
	defer reg.timersMu.Unlock()
	if t, ok := reg.timers[code]; ok {
		t.Stop()
	}
	reg.timers[code] = time.AfterFunc(d, func() {
		reg.timersMu.Lock()
		delete(reg.timers, code)
		reg.timersMu.Unlock()

		r, ok := reg.Get(code)
		if !ok {
			return
		}
		fn(r)
	})
}

// CancelAutoEnd stops a pending scheduled turn advance, if any.
func (reg *Registry) CancelAutoEnd(code string) {
	reg.timersMu.Lock()
	defer reg.timersMu.Unlock()
	if t, ok := reg.timers[code]; ok {
		t.Stop()
		delete(reg.timers, code)
	}
}

// RecordResult writes a finished game to the results history. Caller holds
// the room lock.
func (reg *Registry) RecordResult(r *Room, reason, winnerID string, scores []game.Score) {
	if reg.store == nil {
		return
	}
	row := storage.GameRow{
		ID:       uuid.NewString(),
		RoomCode: r.Code,
		Reason:   reason,
		WinnerID: winnerID,
		EndedAt:  time.Now().UTC(),
	}
	rows := make([]storage.ScoreRow, 0, len(scores))
	for _, sc := range scores {
		rows = append(rows, storage.ScoreRow{
			GameID:    row.ID,
			PlayerID:  sc.PlayerID,
			Name:      sc.Name,
			Character: string(sc.Character),
			Money:     sc.Money,
			TagsShed:  sc.TagsShed,
			Rank:      sc.Rank,
		})
	}
	if err := reg.store.RecordGame(row, rows); err != nil {
		reg.log.Warnw("record result", "code", r.Code, "err", err)
	}
}

// Results returns the most recent recorded games.
func (reg *Registry) Results(limit int) ([]storage.GameRow, error) {
	if reg.store == nil {
		return nil, nil
	}
	return reg.store.ListGames(limit)
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newCode generates a 6-char room code. Ambiguous characters are excluded so
// codes survive being read aloud.
func newCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, 6)
	for i := range out {
		out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(out)
}
