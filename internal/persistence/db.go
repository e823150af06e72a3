// Package persistence keeps a SQLite ledger of finished matches: outcome,
// final standings and the notable events of each match. It is not a
// save-game; matches in progress are never stored.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/conquest/internal/engine"
)

// ErrNotFound is returned when a match id is not in the ledger.
var ErrNotFound = errors.New("match not found")

// DB wraps a SQLite connection holding the match ledger.
type DB struct {
	conn *sqlx.DB
}

// MatchRecord is one finished match.
type MatchRecord struct {
	ID         string  `db:"id" json:"id"`
	Level      string  `db:"level" json:"level"`
	Name       string  `db:"name" json:"name"`
	Seed       int64   `db:"seed" json:"seed"`
	Winner     int     `db:"winner" json:"winner"`
	Elapsed    float64 `db:"elapsed" json:"elapsed"`
	FinishedAt int64   `db:"finished_at" json:"finished_at"` // unix seconds

	Players []PlayerRecord `db:"-" json:"players,omitempty"`
	Events  []EventRecord  `db:"-" json:"events,omitempty"`
}

// PlayerRecord is a player's final standing in a match.
type PlayerRecord struct {
	PlayerID int    `db:"player_id" json:"player_id"`
	Name     string `db:"name" json:"name"`
	IsAI     bool   `db:"is_ai" json:"is_ai"`
	Tier     string `db:"tier" json:"tier"`
	Cells    int    `db:"cells" json:"cells"`
	Troops   int    `db:"troops" json:"troops"`
	Defeated bool   `db:"defeated" json:"defeated"`
}

// EventRecord is a notable event of a match.
type EventRecord struct {
	At          float64 `db:"at" json:"at"`
	Category    string  `db:"category" json:"category"`
	Player      int     `db:"player" json:"player"`
	Description string  `db:"description" json:"description"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		level TEXT NOT NULL,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		winner INTEGER NOT NULL,
		elapsed REAL NOT NULL,
		finished_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id TEXT NOT NULL REFERENCES matches(id),
		player_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		is_ai INTEGER NOT NULL,
		tier TEXT NOT NULL,
		cells INTEGER NOT NULL,
		troops INTEGER NOT NULL,
		defeated INTEGER NOT NULL,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(id),
		at REAL NOT NULL,
		category TEXT NOT NULL,
		player INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_finished ON matches(finished_at);
	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordMatch writes a match with its standings and events in one
// transaction. A zero FinishedAt is stamped with the current time.
func (db *DB) RecordMatch(m MatchRecord) error {
	if m.FinishedAt == 0 {
		m.FinishedAt = time.Now().Unix()
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO matches
		(id, level, name, seed, winner, elapsed, finished_at)
		VALUES (:id, :level, :name, :seed, :winner, :elapsed, :finished_at)`, m)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}

	for _, p := range m.Players {
		_, err := tx.Exec(`INSERT INTO match_players
			(match_id, player_id, name, is_ai, tier, cells, troops, defeated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, p.PlayerID, p.Name, p.IsAI, p.Tier, p.Cells, p.Troops, p.Defeated,
		)
		if err != nil {
			return fmt.Errorf("insert player %d: %w", p.PlayerID, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO match_events
		(match_id, at, category, player, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range m.Events {
		if _, err := stmt.Exec(m.ID, e.At, e.Category, e.Player, e.Description); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO ledger_meta (key, value) VALUES ('last_match', ?)", m.ID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("match recorded", "match", m.ID, "winner", m.Winner, "players", len(m.Players), "events", len(m.Events))
	return nil
}

// RecordGame records a finished game.
func (db *DB) RecordGame(g *engine.Game) error {
	if !g.Over() {
		return fmt.Errorf("record match %s: still in play", g.MatchID)
	}
	m := MatchRecord{
		ID:      g.MatchID,
		Level:   g.LevelID,
		Name:    g.Name,
		Seed:    g.Seed,
		Winner:  int(g.Winner()),
		Elapsed: g.Elapsed,
	}
	for _, s := range g.Standings() {
		m.Players = append(m.Players, PlayerRecord{
			PlayerID: int(s.Player),
			Name:     s.Name,
			IsAI:     s.IsAI,
			Tier:     s.Tier,
			Cells:    s.Cells,
			Troops:   s.Troops,
			Defeated: s.Defeated,
		})
	}
	for _, e := range g.Journal.Entries() {
		m.Events = append(m.Events, EventRecord{
			At:          e.At,
			Category:    e.Category,
			Player:      int(e.Player),
			Description: e.Description,
		})
	}
	return db.RecordMatch(m)
}

// LastMatch returns the id of the most recently recorded match.
func (db *DB) LastMatch() (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM ledger_meta WHERE key = 'last_match'")
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// RecentMatches returns the most recent N matches with their standings,
// newest first.
func (db *DB) RecentMatches(limit int) ([]MatchRecord, error) {
	var matches []MatchRecord
	err := db.conn.Select(&matches,
		"SELECT id, level, name, seed, winner, elapsed, finished_at FROM matches ORDER BY finished_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].Players, err = db.matchPlayers(matches[i].ID); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

// Match returns one match with its standings and events.
func (db *DB) Match(id string) (*MatchRecord, error) {
	var m MatchRecord
	err := db.conn.Get(&m,
		"SELECT id, level, name, seed, winner, elapsed, finished_at FROM matches WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.Players, err = db.matchPlayers(id); err != nil {
		return nil, err
	}
	if m.Events, err = db.MatchEvents(id); err != nil {
		return nil, err
	}
	return &m, nil
}

// MatchEvents returns the events of a match in the order they happened.
func (db *DB) MatchEvents(id string) ([]EventRecord, error) {
	var events []EventRecord
	err := db.conn.Select(&events,
		"SELECT at, category, player, description FROM match_events WHERE match_id = ? ORDER BY id",
		id,
	)
	return events, err
}

func (db *DB) matchPlayers(id string) ([]PlayerRecord, error) {
	var ps []PlayerRecord
	err := db.conn.Select(&ps,
		"SELECT player_id, name, is_ai, tier, cells, troops, defeated FROM match_players WHERE match_id = ? ORDER BY rowid",
		id,
	)
	return ps, err
}
