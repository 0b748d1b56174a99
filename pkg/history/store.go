// Package history keeps analyzed results in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sushida/pkg/score"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout sorts lexically; RFC3339Nano does not because it trims zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for analyzed results.
type Store struct {
	db *sql.DB
}

// Entry is one stored result.
type Entry struct {
	ID         int64
	AnalyzedAt time.Time
	File       string
	Valid      bool
	Text       string
	score.Result
}

// Filter narrows List and Summary. Zero values match everything.
type Filter struct {
	Course score.Course
	Since  *time.Time
	Last   int // only the most recent N entries
}

// CourseSummary aggregates the entries of one course.
type CourseSummary struct {
	Course   score.Course
	Count    int
	TotalNet int
	BestNet  int
	AvgTPS   float64
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			analyzed_at TEXT NOT NULL,
			file TEXT NOT NULL,
			course TEXT NOT NULL,
			net INTEGER NOT NULL,
			paid INTEGER NOT NULL,
			gain INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			miss INTEGER NOT NULL,
			avg_tps REAL NOT NULL,
			valid INTEGER NOT NULL,
			raw_text TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_analyzed_at ON results(analyzed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_course ON results(course);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Insert stores e and returns its id. A zero AnalyzedAt is set to now.
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	if e.AnalyzedAt.IsZero() {
		e.AnalyzedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO results (analyzed_at, file, course, net, paid, gain, correct, miss, avg_tps, valid, raw_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AnalyzedAt.UTC().Format(timeLayout),
		e.File,
		string(e.Course),
		e.Net,
		e.Detail.Paid,
		e.Detail.Gain,
		e.Typing.Correct,
		e.Typing.Miss,
		e.Typing.AverageTPS,
		e.Valid,
		e.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return res.LastInsertId()
}

// filtered returns a CTE selecting the rows matching f, plus its arguments.
func filtered(f Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Course != "" {
		clauses = append(clauses, "course = ?")
		args = append(args, string(f.Course))
	}
	if f.Since != nil {
		clauses = append(clauses, "analyzed_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	limit := ""
	if f.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, f.Last)
	}
	cte := fmt.Sprintf(`WITH picked AS (
		SELECT * FROM results
		WHERE %s
		ORDER BY analyzed_at DESC, id DESC
		%s
	)`, strings.Join(clauses, " AND "), limit)
	return cte, args
}

// List returns the matching entries, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	cte, args := filtered(f)
	query := cte + `
	SELECT id, analyzed_at, file, course, net, paid, gain, correct, miss, avg_tps, valid, raw_text
	FROM picked
	ORDER BY analyzed_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at, course string
		if err := rows.Scan(&e.ID, &at, &e.File, &course, &e.Net, &e.Detail.Paid, &e.Detail.Gain,
			&e.Typing.Correct, &e.Typing.Miss, &e.Typing.AverageTPS, &e.Valid, &e.Text); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, err
		}
		e.AnalyzedAt = parsed
		e.Course = score.Course(course)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary aggregates the matching entries per course, in price order.
func (s *Store) Summary(ctx context.Context, f Filter) ([]CourseSummary, error) {
	cte, args := filtered(f)
	query := cte + `
	SELECT course, COUNT(*), SUM(net), MAX(net), AVG(avg_tps)
	FROM picked
	GROUP BY course`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	defer rows.Close()

	byCourse := map[score.Course]CourseSummary{}
	var unknown []CourseSummary
	for rows.Next() {
		var cs CourseSummary
		var course string
		if err := rows.Scan(&course, &cs.Count, &cs.TotalNet, &cs.BestNet, &cs.AvgTPS); err != nil {
			return nil, err
		}
		cs.Course = score.Course(course)
		if cs.Course.Known() {
			byCourse[cs.Course] = cs
		} else {
			unknown = append(unknown, cs)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []CourseSummary
	for _, c := range score.Courses {
		if cs, ok := byCourse[c]; ok {
			out = append(out, cs)
		}
	}
	return append(out, unknown...), nil
}
