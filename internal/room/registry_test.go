package room

import (
	"strings"
	"testing"
	"time"

	"tagopoly/internal/game"
	"tagopoly/internal/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewRegistry(store, nil)
}

func TestCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)
	if r.Code == "" {
		t.Fatal("expected a room code")
	}
	got, ok := reg.Get(r.Code)
	if !ok || got != r {
		t.Fatalf("room not retrievable by code %s", r.Code)
	}
	if _, ok := got.Game.PlayerByID("alice"); !ok {
		t.Fatal("creator not on roster")
	}
}

func TestCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := newCode()
		if len(code) != 6 {
			t.Fatalf("expected 6-char code, got %q", code)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains invalid character %q", code, ch)
			}
		}
	}
}

func TestGetUnknownCode(t *testing.T) {
	reg := newTestRegistry(t)
	if _, ok := reg.Get("NOSUCH"); ok {
		t.Fatal("expected miss for unknown code")
	}
}

func TestList(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Create("alice", "Alice", game.CharAmerican, false)
	r2 := reg.Create("bob", "Bob", game.CharFrench, false)

	infos := reg.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Players != 1 || info.GameStarted {
			t.Fatalf("bad info: %+v", info)
		}
	}

	reg.Remove(r2.Code)
	if infos = reg.List(); len(infos) != 1 {
		t.Fatalf("expected 1 room after removal, got %d", len(infos))
	}
}

func TestScheduleAutoEndFires(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)

	fired := make(chan *Room, 1)
	reg.ScheduleAutoEnd(r.Code, time.Millisecond, func(got *Room) {
		fired <- got
	})
	select {
	case got := <-fired:
		if got != r {
			t.Fatal("callback received the wrong room")
		}
	case <-time.After(time.Second):
		t.Fatal("auto-end timer never fired")
	}
}

func TestCancelAutoEnd(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)

	fired := make(chan struct{}, 1)
	reg.ScheduleAutoEnd(r.Code, 20*time.Millisecond, func(*Room) {
		fired <- struct{}{}
	})
	reg.CancelAutoEnd(r.Code)
	select {
	case <-fired:
		t.Fatal("cancelled timer fired anyway")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleReplacesPriorTimer(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)

	fired := make(chan string, 2)
	reg.ScheduleAutoEnd(r.Code, 20*time.Millisecond, func(*Room) { fired <- "first" })
	reg.ScheduleAutoEnd(r.Code, time.Millisecond, func(*Room) { fired <- "second" })

	select {
	case got := <-fired:
		if got != "second" {
			t.Fatalf("expected replacement timer, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	select {
	case got := <-fired:
		t.Fatalf("superseded timer fired: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRemoveCancelsTimer(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)

	fired := make(chan struct{}, 1)
	reg.ScheduleAutoEnd(r.Code, 20*time.Millisecond, func(*Room) {
		fired <- struct{}{}
	})
	reg.Remove(r.Code)
	select {
	case <-fired:
		t.Fatal("timer fired after room removal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRecordResultAndResults(t *testing.T) {
	reg := newTestRegistry(t)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)
	r.Game.AddPlayer("bob", "Bob", game.CharFrench)
	if err := r.Game.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	scores, err := r.Game.ForceEnd("alice")
	if err != nil {
		t.Fatalf("force end: %v", err)
	}

	r.Lock()
	reg.RecordResult(r, r.Game.EndReason, r.Game.Winner, scores)
	r.Unlock()

	rows, err := reg.Results(10)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 recorded game, got %d", len(rows))
	}
	if rows[0].RoomCode != r.Code || rows[0].Reason != "hostEnded" {
		t.Fatalf("bad row: %+v", rows[0])
	}
}

func TestNilStoreDisablesRecording(t *testing.T) {
	reg := NewRegistry(nil, nil)
	r := reg.Create("alice", "Alice", game.CharAmerican, false)
	r.Lock()
	reg.RecordResult(r, "hostEnded", "", nil)
	r.Unlock()
	rows, err := reg.Results(10)
	if err != nil || rows != nil {
		t.Fatalf("expected nil results with nil store, got %v / %v", rows, err)
	}
}
