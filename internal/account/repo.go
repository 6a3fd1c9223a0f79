package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/store"
)

const userColumns = `id_no, name, email, password_hash, role, created_at`

// Repository persists credentials in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.IDNo, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// Create inserts a credential. A taken email is a Conflict.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	created, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Role))
	if err != nil {
		return User{}, mapUserWriteErr("insert user", err)
	}
	return created, nil
}

// GetByEmail looks a credential up by its login email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapUserReadErr(err)
}

// GetByID looks a credential up by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id_no = $1`, id))
	return u, mapUserReadErr(err)
}

// List returns every credential ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id_no`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// Update writes the non-nil fields of up.
func (r *Repository) Update(ctx context.Context, id int64, up Update) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			role          = COALESCE($5, role)
		WHERE id_no = $1
		RETURNING `+userColumns,
		id, up.Name, up.Email, up.PasswordHash, up.Role))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, errUserNotFound()
	}
	if err != nil {
		return User{}, mapUserWriteErr("update user", err)
	}
	return u, nil
}

// UpdatePassword overwrites the stored hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id_no = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

// Delete removes a credential. Its session entries are kept for the audit.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id_no = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errUserNotFound()
	}
	return nil
}

func errUserNotFound() error { return apperr.NotFound("User not found") }
func errEmailTaken() error   { return apperr.Conflict("User already exists") }

func mapUserReadErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errUserNotFound()
	}
	return fmt.Errorf("read user: %w", err)
}

func mapUserWriteErr(op string, err error) error {
	if _, ok := store.UniqueViolation(err); ok {
		return errEmailTaken()
	}
	return fmt.Errorf("%s: %w", op, err)
}

// SessionLogRepository persists the login/logout audit trail.
type SessionLogRepository struct {
	db *sql.DB
}

// NewSessionLogRepository creates a repo.
func NewSessionLogRepository(db *sql.DB) *SessionLogRepository {
	return &SessionLogRepository{db: db}
}

// Append stores one entry. Date and Time are civil strings.
func (r *SessionLogRepository) Append(ctx context.Context, e SessionEntry) (SessionEntry, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO session_logs (user_id_no, user_name, action, date, time)
		VALUES ($1, $2, $3, $4::date, $5::time)
		RETURNING id
	`, e.UserIDNo, e.UserName, e.Action, e.Date, e.Time).Scan(&e.ID)
	if err != nil {
		return SessionEntry{}, fmt.Errorf("insert session log: %w", err)
	}
	return e, nil
}

// List returns the audit trail, newest first.
func (r *SessionLogRepository) List(ctx context.Context) ([]SessionEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id_no, user_name, action, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS')
		FROM session_logs
		ORDER BY date DESC, time DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list session logs: %w", err)
	}
	defer rows.Close()

	var res []SessionEntry
	for rows.Next() {
		var e SessionEntry
		if err := rows.Scan(&e.ID, &e.UserIDNo, &e.UserName, &e.Action, &e.Date, &e.Time); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
