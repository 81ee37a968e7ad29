package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go driver

	"battlecar/game"
)

var ErrInvalidLimit = errors.New("limit must be positive")

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	room       TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL,
	winner     TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	ticks      INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_ended_at ON matches(ended_at);
`

// Match is one finished match as persisted.
type Match struct {
	ID        string    `json:"id"`
	Room      string    `json:"room,omitempty"`
	Mode      game.Mode `json:"mode"`
	Winner    game.Role `json:"winner"`
	Seed      uint64    `json:"seed"`
	Ticks     int       `json:"ticks"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// NewMatch stamps a result with a fresh ID. The start time is derived from
// the simulated duration.
func NewMatch(room string, res game.Result, ended time.Time) Match {
	return Match{
		ID:        uuid.NewString(),
		Room:      room,
		Mode:      res.Mode,
		Winner:    res.Winner,
		Seed:      res.Seed,
		Ticks:     res.Ticks,
		StartedAt: ended.Add(-res.Duration),
		EndedAt:   ended,
	}
}

// Stat counts wins for one side in one mode.
type Stat struct {
	Mode   game.Mode `json:"mode"`
	Winner game.Role `json:"winner"`
	Count  int       `json:"count"`
}

type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the match history database at path.
func Open(path string, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists a finished match.
func (s *Store) Record(ctx context.Context, m Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (id, room, mode, winner, seed, ticks, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Room, string(m.Mode), string(m.Winner), int64(m.Seed), m.Ticks,
		m.StartedAt.UnixMilli(), m.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: record %s: %w", m.ID, err)
	}
	return nil
}

// Recent returns up to limit matches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room, mode, winner, seed, ticks, started_at, ended_at
		 FROM matches ORDER BY ended_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	out := make([]Match, 0, limit)
	for rows.Next() {
		var (
			m              Match
			mode, winner   string
			seed           int64
			started, ended int64
		)
		if err := rows.Scan(&m.ID, &m.Room, &mode, &winner, &seed, &m.Ticks, &started, &ended); err != nil {
			return nil, fmt.Errorf("store: scan match: %w", err)
		}
		m.Mode = game.Mode(mode)
		m.Winner = game.Role(winner)
		m.Seed = uint64(seed)
		m.StartedAt = time.UnixMilli(started).UTC()
		m.EndedAt = time.UnixMilli(ended).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Stats counts wins grouped by mode and winning side.
func (s *Store) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mode, winner, COUNT(*) FROM matches GROUP BY mode, winner ORDER BY mode, winner`)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()

	var out []Stat
	for rows.Next() {
		var (
			st           Stat
			mode, winner string
		)
		if err := rows.Scan(&mode, &winner, &st.Count); err != nil {
			return nil, fmt.Errorf("store: scan stat: %w", err)
		}
		st.Mode = game.Mode(mode)
		st.Winner = game.Role(winner)
		out = append(out, st)
	}
	return out, rows.Err()
}
