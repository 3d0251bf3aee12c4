package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"EquityDesk/internal/model"
)

// SQLiteRecorder persists task records to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger arbor.ILogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL mode so polls can read while tasks are being archived.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_reports (
			task_id        TEXT PRIMARY KEY,
			ticker         TEXT NOT NULL,
			status         TEXT NOT NULL,
			error          TEXT,
			confidence     TEXT,
			revision_count INTEGER,
			report         TEXT,
			created_at     INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_reports_ticker ON task_reports(ticker, updated_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordTask upserts rec by task id.
func (r *SQLiteRecorder) RecordTask(rec *model.TaskRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		report     sql.NullString
		confidence sql.NullString
		revisions  sql.NullInt64
	)
	if rec.Result != nil {
		b, err := json.Marshal(rec.Result.DraftReport)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		report = sql.NullString{String: string(b), Valid: true}
		revisions = sql.NullInt64{Int64: int64(rec.Result.RevisionCount), Valid: true}
		if rec.Result.DraftReport != nil {
			confidence = sql.NullString{String: string(rec.Result.DraftReport.Confidence), Valid: true}
		}
	}

	_, err := r.db.Exec(`INSERT INTO task_reports
		(task_id, ticker, status, error, confidence, revision_count, report, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(task_id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			confidence = excluded.confidence,
			revision_count = excluded.revision_count,
			report = excluded.report,
			updated_at = excluded.updated_at`,
		rec.TaskID, rec.Ticker, string(rec.Status), rec.Error, confidence, revisions, report,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	return err
}

// LoadTask returns the archived record or ErrNotFound.
func (r *SQLiteRecorder) LoadTask(id string) (*model.TaskRecord, error) {
	var (
		rec       model.TaskRecord
		status    string
		errText   sql.NullString
		revisions sql.NullInt64
		report    sql.NullString
		created   int64
		updated   int64
	)
	err := r.db.QueryRow(`SELECT task_id, ticker, status, error, revision_count, report, created_at, updated_at
		FROM task_reports WHERE task_id = ?`, id).
		Scan(&rec.TaskID, &rec.Ticker, &status, &errText, &revisions, &report, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Status = model.TaskStatus(status)
	rec.Error = errText.String
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	if report.Valid {
		var d model.DraftReport
		if err := json.Unmarshal([]byte(report.String), &d); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", id, err)
		}
		rec.Result = &model.TaskResult{DraftReport: &d, RevisionCount: int(revisions.Int64)}
	}
	return &rec, nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
