package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists attendance rows, one per student per calendar day.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the row for (studentID, date), replacing logged_in and
// login_time when it already exists. The conflict target is the
// (student_id, date) unique key, so concurrent upserts for the same day
// collapse into one row.
func (r *Repository) Upsert(ctx context.Context, studentID int64, date time.Time, loggedIn bool, loginTime *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, date, logged_in, login_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, date) DO UPDATE SET
			logged_in = excluded.logged_in,
			login_time = excluded.login_time
	`, studentID, date, loggedIn, loginTime)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// Counts returns the number of rows and of present rows for a student.
func (r *Repository) Counts(ctx context.Context, studentID int64) (total, present int, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN logged_in THEN 1 ELSE 0 END), 0)
		FROM attendance
		WHERE student_id = $1
	`, studentID)
	if err := row.Scan(&total, &present); err != nil {
		return 0, 0, fmt.Errorf("count attendance: %w", err)
	}
	return total, present, nil
}

// Bounds returns the earliest and latest recorded dates, both nil when the
// student has no rows.
func (r *Repository) Bounds(ctx context.Context, studentID int64) (first, last *time.Time, err error) {
	if first, err = r.edgeDate(ctx, studentID, "ASC"); err != nil {
		return nil, nil, err
	}
	if last, err = r.edgeDate(ctx, studentID, "DESC"); err != nil {
		return nil, nil, err
	}
	return first, last, nil
}

func (r *Repository) edgeDate(ctx context.Context, studentID int64, dir string) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT date FROM attendance
		WHERE student_id = $1
		ORDER BY date `+dir+`
		LIMIT 1
	`, studentID)
	var d time.Time
	if err := row.Scan(&d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("attendance bounds: %w", err)
	}
	return &d, nil
}

// History lists a student's rows, most recent date first.
func (r *Repository) History(ctx context.Context, studentID int64) ([]Day, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, logged_in, login_time
		FROM attendance
		WHERE student_id = $1
		ORDER BY date DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	defer rows.Close()

	var days []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.Date, &d.LoggedIn, &d.LoginTime); err != nil {
			return nil, fmt.Errorf("attendance history: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
