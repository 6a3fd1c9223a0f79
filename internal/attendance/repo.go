package attendance

import (
	"context"
	"database/sql"
	"fmt"

	"rfidattendance/internal/store"
)

// Repository persists time-in rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one time-in row on q.
func (r *Repository) Insert(ctx context.Context, q store.Querier, in TimeIn) (TimeIn, error) {
	row := q.QueryRowContext(ctx, `
		INSERT INTO time_ins (student_number, date, time)
		VALUES ($1, $2::date, $3::time)
		RETURNING id
	`, in.StudentNumber, in.Date, in.Time)
	if err := row.Scan(&in.ID); err != nil {
		return TimeIn{}, fmt.Errorf("insert time-in: %w", err)
	}
	return in, nil
}

// List returns every time-in joined with the owning student's name and
// institute, newest first.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.student_number, to_char(t.date, 'YYYY-MM-DD'), to_char(t.time, 'HH24:MI:SS'),
		       s.name, s.institute
		FROM time_ins t
		JOIN students s ON s.student_number = t.student_number
		ORDER BY t.date DESC, t.time DESC, t.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list time-ins: %w", err)
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StudentNumber, &e.Date, &e.Time, &e.Name, &e.Institute); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListForStudent returns the raw rows recorded under studentNumber.
func (r *Repository) ListForStudent(ctx context.Context, studentNumber string) ([]TimeIn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_number, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS')
		FROM time_ins
		WHERE student_number = $1
		ORDER BY id
	`, studentNumber)
	if err != nil {
		return nil, fmt.Errorf("list time-ins for %s: %w", studentNumber, err)
	}
	defer rows.Close()

	var res []TimeIn
	for rows.Next() {
		var in TimeIn
		if err := rows.Scan(&in.ID, &in.StudentNumber, &in.Date, &in.Time); err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, rows.Err()
}

// Repoint moves every row keyed by from to to. It runs on q so the caller
// can make it part of a larger transaction.
func (r *Repository) Repoint(ctx context.Context, q store.Querier, from, to string) (int64, error) {
	res, err := q.ExecContext(ctx, `UPDATE time_ins SET student_number = $1 WHERE student_number = $2`, to, from)
	if err != nil {
		return 0, fmt.Errorf("repoint time-ins: %w", err)
	}
	return res.RowsAffected()
}

// DeleteForStudent removes every row keyed by studentNumber on q.
func (r *Repository) DeleteForStudent(ctx context.Context, q store.Querier, studentNumber string) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM time_ins WHERE student_number = $1`, studentNumber)
	if err != nil {
		return 0, fmt.Errorf("delete time-ins: %w", err)
	}
	return res.RowsAffected()
}
