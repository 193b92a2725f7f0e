package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pod_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_name TEXT NOT NULL,
	pod_name TEXT NOT NULL,
	status TEXT NOT NULL,
	error_kind TEXT,
	error TEXT,
	driver TEXT,
	program TEXT,
	found JSON,
	missing JSON,
	substitutions JSON,
	diagnostics JSON,
	checked_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_case_pod ON pod_reports(case_name, pod_name);
`

// SQLiteWriter appends pod reports to a SQLite database. Rows are written
// in a single transaction committed by Close.
type SQLiteWriter struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	mu   sync.Mutex
}

// NewSQLiteWriter opens (or creates) the database at dbPath.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if w.tx, err = db.Begin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	w.stmt, err = w.tx.Prepare(`
		INSERT INTO pod_reports (case_name, pod_name, status, error_kind, error,
			driver, program, found, missing, substitutions, diagnostics, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return w, nil
}

// Add writes one report.
func (w *SQLiteWriter) Add(r PodReport) error {
	found, err := json.Marshal(nonNil(r.FoundFiles))
	if err != nil {
		return err
	}
	missing, err := json.Marshal(nonNil(r.MissingFiles))
	if err != nil {
		return err
	}
	var subs, diags []byte
	if len(r.Substitutions) > 0 {
		if subs, err = json.Marshal(r.Substitutions); err != nil {
			return err
		}
	}
	if len(r.Diagnostics) > 0 {
		if diags, err = json.Marshal(r.Diagnostics); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.stmt.Exec(
		r.Case, r.Pod, string(r.Status), nullable(r.ErrorKind), nullable(r.Error),
		nullable(r.Driver), nullable(r.Program),
		string(found), string(missing), nullableBytes(subs), nullableBytes(diags),
		r.CheckedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert report %s/%s: %w", r.Case, r.Pod, err)
	}
	return nil
}

// Close commits the pending rows and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit reports: %w", err)
	}
	return w.db.Close()
}

// ReadReports returns every report stored in dbPath, oldest first.
func ReadReports(dbPath string) ([]PodReport, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`
		SELECT case_name, pod_name, status, error_kind, error, driver, program,
			found, missing, substitutions, diagnostics, checked_at
		FROM pod_reports ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PodReport
	for rows.Next() {
		var (
			r                           PodReport
			status                      string
			kind, msg, driver, program  sql.NullString
			found, missing, subs, diags sql.NullString
			checked                     int64
		)
		if err := rows.Scan(&r.Case, &r.Pod, &status, &kind, &msg, &driver, &program,
			&found, &missing, &subs, &diags, &checked); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Status = Status(status)
		r.ErrorKind, r.Error = kind.String, msg.String
		r.Driver, r.Program = driver.String, program.String
		r.CheckedAt = time.Unix(0, checked)
		if err := unmarshalColumn(found, &r.FoundFiles); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(missing, &r.MissingFiles); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(subs, &r.Substitutions); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(diags, &r.Diagnostics); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func unmarshalColumn(col sql.NullString, dst any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return fmt.Errorf("decode report column: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
