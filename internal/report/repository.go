package report

import (
	"database/sql"
	"fmt"
	"time"

	"time_tracker/internal/timelog"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

// Total is the time logged under one key (a task name or a day).
type Total struct {
	Key      string
	Duration time.Duration
	Sessions int
}

// Repository aggregates finalized entries in an in-memory sqlite database.
// Nothing is persisted; the log file stays the source of truth.
type Repository struct {
	db *sql.DB
}

func Open() (*Repository, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	repo := &Repository{db: db}
	if err := repo.init(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day TEXT NOT NULL,
		task TEXT NOT NULL,
		duration INTEGER NOT NULL,
		line INTEGER NOT NULL
	)
	`
	_, err := r.db.Exec(query)
	return err
}

// Load inserts the finalized entries. Tentative entries are skipped since
// they have no duration yet.
func (r *Repository) Load(entries []timelog.Entry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO sessions (day, task, duration, line) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Kind != timelog.KindFinalized {
			continue
		}
		if _, err := stmt.Exec(e.Start.UTC().Format(dayLayout), e.Task, int64(e.Duration/time.Second), e.Line); err != nil {
			return fmt.Errorf("insert line %d: %w", e.Line, err)
		}
	}
	return tx.Commit()
}

// TotalsByTask sums durations per task, largest first. A zero since means
// all time.
func (r *Repository) TotalsByTask(since time.Time) ([]Total, error) {
	return r.totals(
		`SELECT task, SUM(duration), COUNT(*) FROM sessions
		 WHERE day >= ?
		 GROUP BY task
		 ORDER BY SUM(duration) DESC, task`,
		sinceDay(since),
	)
}

// TotalsByDay sums durations per calendar day in date order.
func (r *Repository) TotalsByDay(since time.Time) ([]Total, error) {
	return r.totals(
		`SELECT day, SUM(duration), COUNT(*) FROM sessions
		 WHERE day >= ?
		 GROUP BY day
		 ORDER BY day`,
		sinceDay(since),
	)
}

func (r *Repository) totals(query string, args ...any) ([]Total, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []Total
	for rows.Next() {
		var t Total
		var seconds int64
		if err := rows.Scan(&t.Key, &seconds, &t.Sessions); err != nil {
			return nil, err
		}
		t.Duration = time.Duration(seconds) * time.Second
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func sinceDay(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return since.UTC().Format(dayLayout)
}

// ParseSince reads a YYYY-MM-DD date. An empty string means all time.
func ParseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
