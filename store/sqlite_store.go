// Package store keeps the history of evaluated layouts in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airflow/model"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// Run is one stored evaluation. Payload is the full JSON result; the other
// columns are kept for listing without decoding it.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FanName    string    `json:"fan_name"`
	FanCount   int       `json:"fan_count"`
	FansPlaced int       `json:"fans_placed"`
	ACH        float64   `json:"ach"`
	Compliant  bool      `json:"compliant"`
	Payload    []byte    `json:"-"`
}

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path, or a private in-memory database when path is empty.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == "" {
		// 每个连接各有一份内存库
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithField("path", dsn).Debug("运行记录库已打开")
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL,
  fan_name TEXT NOT NULL,
  fan_count INTEGER NOT NULL,
  fans_placed INTEGER NOT NULL,
  ach REAL NOT NULL,
  compliant INTEGER NOT NULL,
  payload TEXT NOT NULL DEFAULT '{}'
);
`
	if _, err := s.db.Exec(createTable); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`); err != nil {
		return err
	}
	return nil
}

// SaveRun inserts r, assigning an id and timestamp when they are unset.
func (s *SQLiteStore) SaveRun(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	payload := string(r.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, created_at, fan_name, fan_count, fans_placed, ach, compliant, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		r.ID, r.CreatedAt.UnixNano(), r.FanName, r.FanCount, r.FansPlaced, r.ACH, r.Compliant, payload,
	)
	if err != nil {
		return Run{}, model.Wrap(model.CodeInternal, err, "save run %s", r.ID)
	}
	return r, nil
}

// ListRuns returns the newest runs first, without payloads.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, fan_name, fan_count, fans_placed, ach, compliant
FROM runs
ORDER BY created_at DESC, id
LIMIT ?
`, limit)
	if err != nil {
		return nil, model.Wrap(model.CodeInternal, err, "list runs")
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.FanName, &r.FanCount, &r.FansPlaced, &r.ACH, &r.Compliant); err != nil {
			return nil, model.Wrap(model.CodeInternal, err, "scan run")
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Wrap(model.CodeInternal, err, "list runs")
	}
	return out, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	var created int64
	var payload string
	err := s.db.QueryRowContext(ctx, `
SELECT id, created_at, fan_name, fan_count, fans_placed, ach, compliant, payload
FROM runs WHERE id = ?
`, id).Scan(&r.ID, &created, &r.FanName, &r.FanCount, &r.FansPlaced, &r.ACH, &r.Compliant, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, model.NotFound("run %q not found", id)
	}
	if err != nil {
		return Run{}, model.Wrap(model.CodeInternal, err, "get run %s", id)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Payload = []byte(payload)
	return r, nil
}

func (s *SQLiteStore) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
