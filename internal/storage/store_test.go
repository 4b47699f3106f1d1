package storage

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleGame(id string, endedAt time.Time) (GameRow, []ScoreRow) {
	row := GameRow{
		ID:       id,
		RoomCode: "ABC234",
		Reason:   "playerWin",
		WinnerID: "alice",
		EndedAt:  endedAt,
	}
	scores := []ScoreRow{
		{GameID: id, PlayerID: "alice", Name: "Alice", Character: "american", Money: 1800, TagsShed: 5, Rank: 1},
		{GameID: id, PlayerID: "bob", Name: "Bob", Character: "french", Money: 1200, TagsShed: 2, Rank: 2},
	}
	return row, scores
}

func TestRecordGame(t *testing.T) {
	s := newTestStore(t)
	row, scores := sampleGame("g-1", time.Now().UTC())
	if err := s.RecordGame(row, scores); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Duplicate id should error
	if err := s.RecordGame(row, scores); err == nil {
		t.Fatal("expected error on duplicate game id")
	}
}

func TestListGames(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()
	for i, id := range []string{"g-1", "g-2", "g-3"} {
		row, scores := sampleGame(id, base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordGame(row, scores); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	games, err := s.ListGames(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].ID != "g-3" {
		t.Fatalf("expected most recent first, got %s", games[0].ID)
	}
	if games[0].Reason != "playerWin" || games[0].WinnerID != "alice" {
		t.Fatalf("bad row: %+v", games[0])
	}
}

func TestGameScores(t *testing.T) {
	s := newTestStore(t)
	row, scores := sampleGame("g-1", time.Now().UTC())
	if err := s.RecordGame(row, scores); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.GameScores("g-1")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(got))
	}
	if got[0].PlayerID != "alice" || got[0].Rank != 1 {
		t.Fatalf("expected alice rank 1 first, got %+v", got[0])
	}
	if got[1].Money != 1200 || got[1].TagsShed != 2 {
		t.Fatalf("bad second row: %+v", got[1])
	}
}

func TestGameScoresEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GameScores("missing")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}
