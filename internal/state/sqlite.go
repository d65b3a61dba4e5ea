package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the journal at path. ":memory:" keeps it in memory.
func NewSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite gives each connection its own in-memory database.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			app_version TEXT NOT NULL DEFAULT '',
			start_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			level_id INTEGER NOT NULL,
			reason TEXT NOT NULL DEFAULT 'enter',
			start_ts TEXT NOT NULL,
			solved_ts TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			gestures INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);`,
		`CREATE TABLE IF NOT EXISTS gestures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			verdict TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL,
			FOREIGN KEY(attempt_id) REFERENCES attempts(id)
		);`,
		`CREATE TABLE IF NOT EXISTS hint_purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			cost INTEGER NOT NULL,
			ts TEXT NOT NULL,
			FOREIGN KEY(attempt_id) REFERENCES attempts(id)
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS attempts_level_idx ON attempts(level_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartSession(ctx context.Context, session Session) error {
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id, app_version, start_ts) VALUES(?,?,?)`,
		id,
		session.AppVersion,
		orNow(session.StartTS).Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) StartAttempt(ctx context.Context, attempt Attempt) (int64, error) {
	reason := attempt.Reason
	if reason == "" {
		reason = ReasonEnter
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(session_id, level_id, reason, start_ts) VALUES(?,?,?,?)`,
		attempt.SessionID,
		attempt.LevelID,
		string(reason),
		orNow(attempt.StartTS).Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) RecordGesture(ctx context.Context, attemptID int64, g GestureRecord) error {
	if attemptID <= 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO gestures(attempt_id, kind, asset_id, x, y, verdict, ts) VALUES(?,?,?,?,?,?,?)`,
		attemptID, g.Kind, g.AssetID, g.X, g.Y, g.Verdict, orNow(g.TS).Format(timeLayout),
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE attempts SET gestures = gestures + 1 WHERE id = ?`, attemptID)
	return err
}

func (s *SQLiteStore) RecordHint(ctx context.Context, attemptID int64, h HintRecord) error {
	if attemptID <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hint_purchases(attempt_id, kind, cost, ts) VALUES(?,?,?,?)`,
		attemptID, string(h.Kind), max(0, h.Cost), orNow(h.TS).Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) MarkSolved(ctx context.Context, attemptID int64, at time.Time) error {
	if attemptID <= 0 {
		return nil
	}
	var startRaw string
	if err := s.db.QueryRowContext(ctx, `SELECT start_ts FROM attempts WHERE id = ?`, attemptID).Scan(&startRaw); err != nil {
		return err
	}
	at = orNow(at)
	var duration int64
	if start, err := time.Parse(timeLayout, startRaw); err == nil {
		duration = max64(0, at.Sub(start).Milliseconds())
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET solved_ts = ?, duration_ms = ? WHERE id = ? AND solved_ts = ''`,
		at.Format(timeLayout), duration, attemptID,
	)
	return err
}

func (s *SQLiteStore) MarkSkipped(ctx context.Context, attemptID int64) error {
	if attemptID <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE attempts SET skipped = 1 WHERE id = ?`, attemptID)
	return err
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM attempts),
			(SELECT COUNT(*) FROM attempts WHERE solved_ts <> ''),
			(SELECT COUNT(*) FROM gestures),
			(SELECT COUNT(*) FROM hint_purchases WHERE kind = 'hint'),
			(SELECT COUNT(*) FROM hint_purchases WHERE kind = 'oracle'),
			(SELECT COUNT(*) FROM attempts WHERE reason = 'restart'),
			(SELECT COUNT(*) FROM attempts WHERE skipped = 1)
	`)
	if err := row.Scan(&out.Sessions, &out.Attempts, &out.Solves, &out.Gestures, &out.Hints, &out.Oracles, &out.Restarts, &out.Skips); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLevelStats(ctx context.Context) (map[int]LevelStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			level_id,
			COUNT(*),
			COALESCE(SUM(CASE WHEN solved_ts <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(MIN(CASE WHEN solved_ts <> '' AND duration_ms > 0 THEN duration_ms END), 0)
		FROM attempts
		GROUP BY level_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]LevelStats{}
	for rows.Next() {
		var ls LevelStats
		if err := rows.Scan(&ls.LevelID, &ls.Attempts, &ls.Solves, &ls.BestTimeMS); err != nil {
			return nil, err
		}
		out[ls.LevelID] = ls
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
