// Package index maintains a SQLite mirror of the run tree for fast
// querying. The JSON files on disk remain the source of truth; the index
// is a cache that can be dropped and rebuilt from them at any time.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/linuxgamebench/lgb-core/pkg/settings"
	"github.com/linuxgamebench/lgb-core/pkg/store"
)

// DB wraps the SQLite index connection.
type DB struct {
	conn *sql.DB
}

// Row is one indexed run summary.
type Row struct {
	ID             int64
	Game           string
	SystemID       string
	Resolution     string
	RunNumber      int
	CapturedAt     time.Time
	AverageFPS     float64
	Low1FPS        float64
	Low01FPS       float64
	StutterPercent float64
	StutterTier    string
	SettingsJSON   string
}

// Open opens or creates the index database and initializes the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	// WAL allows multiple readers while one writer is active
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// If the index is locked, retry for up to 5 seconds before failing
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the index connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Insert records one committed run. Re-inserting the same run replaces its
// row, so indexing is idempotent.
func (db *DB) Insert(run *store.Run) error {
	settingsJSON, err := json.Marshal(run.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	folder := settings.ResolutionFolder(run.Resolution)
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO runs
			(game, system_id, resolution, run_number, captured_at,
			 average_fps, low_1_fps, low_0_1_fps, stutter_percent, stutter_tier, settings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Game, run.SystemID, folder, run.RunNumber,
		run.Timestamp.UTC().Format(time.RFC3339),
		run.Metrics.AverageFPS, run.Metrics.Low1FPS, run.Metrics.Low01FPS,
		run.Metrics.StutterPercent, string(run.Metrics.StutterTier),
		string(settingsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}
	return nil
}

// ListGame returns the indexed summaries for a game, newest first.
func (db *DB) ListGame(game string) ([]*Row, error) {
	rows, err := db.conn.Query(`
		SELECT id, game, system_id, resolution, run_number, captured_at,
		       average_fps, low_1_fps, low_0_1_fps, stutter_percent, stutter_tier, settings
		FROM runs WHERE game = ? ORDER BY captured_at DESC`, game,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed runs: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Games returns the distinct game identifiers present in the index.
func (db *DB) Games() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT game FROM runs ORDER BY game`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed games: %w", err)
	}
	defer rows.Close()

	var games []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Rebuild drops every indexed row and re-indexes the whole run tree. The
// run files are authoritative, so a rebuild always converges on them.
func (db *DB) Rebuild(s *store.Store) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin rebuild: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs`); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}

	games, err := s.Games()
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, game := range games {
		runs, err := s.List(game, store.Filter{})
		if err != nil {
			return indexed, err
		}
		for _, run := range runs {
			if err := db.Insert(run); err != nil {
				return indexed, err
			}
			indexed++
		}
	}
	return indexed, nil
}

func scanRows(rows *sql.Rows) ([]*Row, error) {
	var out []*Row
	for rows.Next() {
		var r Row
		var capturedAt string

		err := rows.Scan(
			&r.ID, &r.Game, &r.SystemID, &r.Resolution, &r.RunNumber, &capturedAt,
			&r.AverageFPS, &r.Low1FPS, &r.Low01FPS, &r.StutterPercent, &r.StutterTier,
			&r.SettingsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indexed run: %w", err)
		}

		r.CapturedAt, _ = time.Parse(time.RFC3339, capturedAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}
