// Package storage persists finished-game results. Live room state is never
// persisted: rooms die with the process.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// GameRow is one finished game.
type GameRow struct {
	ID       string
	RoomCode string
	Reason   string
	WinnerID string
	EndedAt  time.Time
}

// ScoreRow is one player's final standing in a finished game.
type ScoreRow struct {
	GameID    string
	PlayerID  string
	Name      string
	Character string
	Money     int
	TagsShed  int
	Rank      int
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id        TEXT PRIMARY KEY,
			room_code TEXT NOT NULL,
			reason    TEXT NOT NULL,
			winner_id TEXT NOT NULL DEFAULT '',
			ended_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS scores (
			game_id   TEXT NOT NULL REFERENCES games(id),
			player_id TEXT NOT NULL,
			name      TEXT NOT NULL,
			character TEXT NOT NULL,
			money     INTEGER NOT NULL,
			tags_shed INTEGER NOT NULL,
			rank      INTEGER NOT NULL,
			PRIMARY KEY (game_id, player_id)
		);
	`)
	return err
}

// RecordGame inserts a finished game and its per-player scores in one
// transaction.
func (s *Store) RecordGame(row GameRow, scores []ScoreRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO games (id, room_code, reason, winner_id, ended_at) VALUES (?, ?, ?, ?, ?)",
		row.ID, row.RoomCode, row.Reason, row.WinnerID, row.EndedAt,
	); err != nil {
		return err
	}
	for _, sc := range scores {
		if _, err := tx.Exec(
			"INSERT INTO scores (game_id, player_id, name, character, money, tags_shed, rank) VALUES (?, ?, ?, ?, ?, ?, ?)",
			row.ID, sc.PlayerID, sc.Name, sc.Character, sc.Money, sc.TagsShed, sc.Rank,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListGames returns the most recent finished games.
func (s *Store) ListGames(limit int) ([]GameRow, error) {
	rows, err := s.db.Query(
		"SELECT id, room_code, reason, winner_id, ended_at FROM games ORDER BY ended_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GameRow
	for rows.Next() {
		var gr GameRow
		if err := rows.Scan(&gr.ID, &gr.RoomCode, &gr.Reason, &gr.WinnerID, &gr.EndedAt); err != nil {
			return nil, err
		}
		result = append(result, gr)
	}
	return result, rows.Err()
}

// GameScores returns the recorded standings for one game, best rank first.
func (s *Store) GameScores(gameID string) ([]ScoreRow, error) {
	rows, err := s.db.Query(
		"SELECT game_id, player_id, name, character, money, tags_shed, rank FROM scores WHERE game_id = ? ORDER BY rank",
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ScoreRow
	for rows.Next() {
		var sc ScoreRow
		if err := rows.Scan(&sc.GameID, &sc.PlayerID, &sc.Name, &sc.Character, &sc.Money, &sc.TagsShed, &sc.Rank); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
