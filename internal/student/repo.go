package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/attendance"
	"rfidattendance/internal/store"
)

const columns = `id, id_no, name, student_number, institute, rfid_tag, status, created_at, updated_at`

// RecordFunc appends a time-in for studentNumber on q.
type RecordFunc func(ctx context.Context, q store.Querier, studentNumber string) (attendance.TimeIn, error)

// Repository persists students in Postgres and keeps their attendance rows
// consistent with the student number.
type Repository struct {
	db   *sql.DB
	logs *attendance.Repository
}

// NewRepository creates a repo. logs is used for the cascades.
func NewRepository(db *sql.DB, logs *attendance.Repository) *Repository {
	return &Repository{db: db, logs: logs}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (Student, error) {
	var s Student
	var status string
	err := row.Scan(&s.ID, &s.IDNo, &s.Name, &s.StudentNumber, &s.Institute, &s.RFIDTag, &status, &s.CreatedAt, &s.UpdatedAt)
	s.Status = Status(status)
	return s, err
}

// Create inserts a student after checking both unique keys.
func (r *Repository) Create(ctx context.Context, s Student) (Student, error) {
	if err := r.checkUnique(ctx, r.db, 0, &s.RFIDTag, &s.StudentNumber); err != nil {
		return Student{}, err
	}
	created, err := scanStudent(r.db.QueryRowContext(ctx, `
		INSERT INTO students (id_no, name, student_number, institute, rfid_tag, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+columns,
		s.IDNo, s.Name, s.StudentNumber, s.Institute, s.RFIDTag, string(s.Status)))
	if err != nil {
		return Student{}, mapWriteErr("insert student", err)
	}
	return created, nil
}

// List returns all students ordered by id.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var res []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Get returns the student with the given surrogate id.
func (r *Repository) Get(ctx context.Context, id int64) (Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM students WHERE id = $1`, id))
	return s, mapReadErr(err)
}

// FindByRFID resolves a tag to its student.
func (r *Repository) FindByRFID(ctx context.Context, tag string) (Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM students WHERE rfid_tag = $1`, tag))
	return s, mapReadErr(err)
}

// Edit applies the fields of cand that differ from the stored record and,
// when the student number changes, repoints the student's attendance rows.
// Both writes share one transaction; the student row is locked for its
// duration.
func (r *Repository) Edit(ctx context.Context, id int64, cand Candidate) (EditResult, error) {
	var res EditResult
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM students WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return mapReadErr(err)
		}

		patch := Diff(current, cand)
		if patch.Empty() {
			res.Student = current
			return nil
		}
		if err := r.checkUnique(ctx, tx, id, patch.RFIDTag, patch.StudentNumber); err != nil {
			return err
		}

		updated, err := scanStudent(tx.QueryRowContext(ctx, `
			UPDATE students SET
				id_no          = COALESCE($2, id_no),
				name           = COALESCE($3, name),
				student_number = COALESCE($4, student_number),
				institute      = COALESCE($5, institute),
				rfid_tag       = COALESCE($6, rfid_tag),
				status         = COALESCE($7, status),
				updated_at     = NOW()
			WHERE id = $1
			RETURNING `+columns,
			id, patch.IDNo, patch.Name, patch.StudentNumber, patch.Institute, patch.RFIDTag, patch.statusArg()))
		if err != nil {
			return mapWriteErr("update student", err)
		}

		if patch.StudentNumber != nil {
			n, err := r.logs.Repoint(ctx, tx, current.StudentNumber, updated.StudentNumber)
			if err != nil {
				return err
			}
			res.LogsRepointed = n
		}

		res.Changed = patch.Fields()
		res.Affected = 1
		res.Student = updated
		return nil
	})
	if err != nil {
		return EditResult{}, err
	}
	return res, nil
}

// Delete removes the student and its attendance rows in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	var res DeleteResult
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM students WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return mapReadErr(err)
		}
		n, err := r.logs.DeleteForStudent(ctx, tx, current.StudentNumber)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		res = DeleteResult{Student: current, LogsDeleted: n}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// LogScan resolves tag and records a time-in while holding a share lock on
// the student row, so a concurrent edit or delete cannot orphan the row.
func (r *Repository) LogScan(ctx context.Context, tag string, record RecordFunc) (Student, attendance.TimeIn, error) {
	var (
		st Student
		in attendance.TimeIn
	)
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		st, err = scanStudent(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM students WHERE rfid_tag = $1 FOR SHARE`, tag))
		if err != nil {
			return mapReadErr(err)
		}
		in, err = record(ctx, tx, st.StudentNumber)
		return err
	})
	if err != nil {
		return Student{}, attendance.TimeIn{}, err
	}
	return st, in, nil
}

var uniqueChecks = map[string]string{
	"rfid_tag":       `SELECT EXISTS (SELECT 1 FROM students WHERE rfid_tag = $1 AND id <> $2)`,
	"student_number": `SELECT EXISTS (SELECT 1 FROM students WHERE student_number = $1 AND id <> $2)`,
}

// checkUnique fails with Conflict when another student already holds the
// tag or number. Nil values are skipped. The constraints in the schema
// remain the final word; this check only gives the friendly message early.
func (r *Repository) checkUnique(ctx context.Context, q store.Querier, selfID int64, tag, number *string) error {
	if tag != nil {
		if taken, err := exists(ctx, q, uniqueChecks["rfid_tag"], *tag, selfID); err != nil {
			return err
		} else if taken {
			return errRFIDTaken()
		}
	}
	if number != nil {
		if taken, err := exists(ctx, q, uniqueChecks["student_number"], *number, selfID); err != nil {
			return err
		} else if taken {
			return errNumberTaken()
		}
	}
	return nil
}

func exists(ctx context.Context, q store.Querier, query, value string, selfID int64) (bool, error) {
	var taken bool
	if err := q.QueryRowContext(ctx, query, value, selfID).Scan(&taken); err != nil {
		return false, fmt.Errorf("uniqueness check: %w", err)
	}
	return taken, nil
}

func errRFIDTaken() error   { return apperr.Conflict("RFID tag is already registered.") }
func errNumberTaken() error { return apperr.Conflict("Student number is already registered.") }

func mapReadErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Student not found.")
	}
	return fmt.Errorf("read student: %w", err)
}

func mapWriteErr(op string, err error) error {
	if constraint, ok := store.UniqueViolation(err); ok {
		switch constraint {
		case "students_rfid_tag_key":
			return errRFIDTaken()
		case "students_student_number_key":
			return errNumberTaken()
		}
		return apperr.Conflict("Duplicate studentNumber or RFID tag detected.")
	}
	return fmt.Errorf("%s: %w", op, err)
}
