// Package report summarizes a user's recorded scores for one month.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sushida/pkg/score"
)

// ErrUserNotFound is returned when the username has no account.
var ErrUserNotFound = errors.New("user not found")

// Line aggregates one course.
type Line struct {
	Course   string
	Count    int64
	TotalNet int64
	BestNet  int64
	AvgTPS   float64
}

// Row is one recorded score.
type Row struct {
	ID       int64
	FileName string
	Course   string
	Net      int
	Valid    bool
	PlayedAt time.Time
}

// Report is a month-bounded summary for one user.
type Report struct {
	Username string
	Month    string
	Lines    []Line
	Rows     []Row
}

// Open connects through the pgx database/sql driver.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// MonthBounds parses YYYY-MM into a half-open UTC range.
func MonthBounds(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// Monthly loads the report. Rows are only fetched when list is set.
func Monthly(ctx context.Context, db *sql.DB, username, month string, list bool) (Report, error) {
	start, end, err := MonthBounds(month)
	if err != nil {
		return Report{}, err
	}
	var userID int64
	err = db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return Report{}, fmt.Errorf("query user: %w", err)
	}

	rep := Report{Username: username, Month: month}
	rows, err := db.QueryContext(ctx, `SELECT course, COUNT(*), COALESCE(SUM(net),0), COALESCE(MAX(net),0), COALESCE(AVG(average_tps),0)
		FROM scores WHERE user_id = $1 AND played_at >= $2 AND played_at < $3
		GROUP BY course`, userID, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Course, &l.Count, &l.TotalNet, &l.BestNet, &l.AvgTPS); err != nil {
			return Report{}, fmt.Errorf("scan: %w", err)
		}
		rep.Lines = append(rep.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return Report{}, fmt.Errorf("rows err: %w", err)
	}
	sortLines(rep.Lines)

	if !list {
		return rep, nil
	}
	detail, err := db.QueryContext(ctx, `SELECT id, file_name, course, net, valid, played_at
		FROM scores WHERE user_id = $1 AND played_at >= $2 AND played_at < $3
		ORDER BY played_at, id`, userID, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("fetch rows: %w", err)
	}
	defer detail.Close()
	for detail.Next() {
		var r Row
		if err := detail.Scan(&r.ID, &r.FileName, &r.Course, &r.Net, &r.Valid, &r.PlayedAt); err != nil {
			return Report{}, fmt.Errorf("scan: %w", err)
		}
		rep.Rows = append(rep.Rows, r)
	}
	return rep, detail.Err()
}

// sortLines orders known courses by price, unknown ones last by name.
func sortLines(lines []Line) {
	rank := func(name string) int {
		c, ok := score.ParseCourse(name)
		if !ok {
			return 1 << 30
		}
		return c.Price()
	}
	sort.SliceStable(lines, func(i, j int) bool {
		ri, rj := rank(lines[i].Course), rank(lines[j].Course)
		if ri != rj {
			return ri < rj
		}
		return lines[i].Course < lines[j].Course
	})
}

// Write prints the report.
func (r Report) Write(w io.Writer) {
	var count, total int64
	for _, l := range r.Lines {
		count += l.Count
		total += l.TotalNet
	}
	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", r.Username, r.Month)
	fmt.Fprintf(w, "  records=%d total_net=%s\n", count, score.FormatYen(int(total), true))
	for _, l := range r.Lines {
		fmt.Fprintf(w, "  %-8s count=%d total_net=%s best_net=%s avg_tps=%.1f\n",
			l.Course, l.Count, score.FormatYen(int(l.TotalNet), true), score.FormatYen(int(l.BestNet), true), l.AvgTPS)
	}
	for _, row := range r.Rows {
		fmt.Fprintf(w, "%d|%s|%s|%d|%t|%s\n", row.ID, row.FileName, row.Course, row.Net, row.Valid, row.PlayedAt.Format(time.RFC3339))
	}
}
