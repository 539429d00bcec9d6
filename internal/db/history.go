// Package db keeps an append-only sqlite history of target-acquisition
// attempts, one row per resolution, for inspection and tuning.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Strategy names the detection path that produced a resolution.
type Strategy string

const (
	// StrategyCache resolved from the persisted target store.
	StrategyCache Strategy = "cache"
	// StrategyTemplate resolved via template matching.
	StrategyTemplate Strategy = "template"
	// StrategyVision resolved via the inference service.
	StrategyVision Strategy = "vision"
)

// History wraps the sqlite connection.
type History struct {
	db *sql.DB
}

// Attempt is one recorded acquisition attempt.
type Attempt struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	ScreenID  string    `json:"screenId"`
	Target    string    `json:"target"`
	Strategy  Strategy  `json:"strategy"`
	Found     bool      `json:"found"`
	CanvasX   float64   `json:"canvasX"`
	CanvasY   float64   `json:"canvasY"`
	Score     float64   `json:"score"`
	Duration  int64     `json:"durationMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// Open creates the history database and initializes the schema.
func Open(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &History{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		screen_id TEXT NOT NULL,
		target TEXT NOT NULL,
		strategy TEXT NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		canvas_x REAL DEFAULT 0,
		canvas_y REAL DEFAULT 0,
		score REAL DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_attempts_screen_target ON attempts(screen_id, target);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Record inserts one acquisition attempt.
func (h *History) Record(a Attempt) error {
	query := `
		INSERT INTO attempts (session_id, screen_id, target, strategy, found, canvas_x, canvas_y, score, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := h.db.Exec(query,
		a.SessionID, a.ScreenID, a.Target, string(a.Strategy),
		a.Found, a.CanvasX, a.CanvasY, a.Score, a.Duration, createdAt,
	)
	return err
}

// Recent returns the most recent attempts, newest first.
func (h *History) Recent(limit int) ([]Attempt, error) {
	query := `
		SELECT id, session_id, screen_id, target, strategy, found, canvas_x, canvas_y, score, duration_ms, created_at
		FROM attempts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var strategy string
		if err := rows.Scan(
			&a.ID, &a.SessionID, &a.ScreenID, &a.Target, &strategy,
			&a.Found, &a.CanvasX, &a.CanvasY, &a.Score, &a.Duration, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Strategy = Strategy(strategy)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// HitRate returns found/total counts for one screen/target pair.
func (h *History) HitRate(screenID, target string) (found, total int, err error) {
	query := `
		SELECT COALESCE(SUM(found), 0), COUNT(*)
		FROM attempts
		WHERE screen_id = ? AND target = ?
	`
	err = h.db.QueryRow(query, screenID, target).Scan(&found, &total)
	return found, total, err
}
