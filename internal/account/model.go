// Package account holds operator credentials, their session audit trail and
// the password-reset flow.
package account

import (
	"strings"
	"time"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/auth"
)

const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// User is a stored credential. The hash never leaves the process.
type User struct {
	IDNo         int64     `json:"idNo"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the claim set a token is issued for.
func (u User) Identity() auth.Identity {
	return auth.Identity{UserID: u.IDNo, Role: u.Role, Email: u.Email, Name: u.Name}
}

// SessionEntry is one login or logout audit row.
type SessionEntry struct {
	ID       int64  `json:"id"`
	UserIDNo int64  `json:"userId"`
	UserName string `json:"name"`
	Action   string `json:"action"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Changes is a partial credential update. Nil and blank fields are left alone.
type Changes struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Update is what the store writes: Changes with the password already hashed.
type Update struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *string
}

func (c Changes) normalized() Changes {
	return Changes{
		Name:     present(c.Name),
		Email:    present(c.Email),
		Password: nonEmpty(c.Password),
		Role:     present(c.Role),
	}
}

func (c Changes) empty() bool {
	return c.Name == nil && c.Email == nil && c.Password == nil && c.Role == nil
}

func (c Changes) validate() error {
	if c.empty() {
		return apperr.Validation("Please provide at least one field to update")
	}
	if c.Role != nil && !validRole(*c.Role) {
		return apperr.Validation("Role must be user or admin.")
	}
	return nil
}

func validRole(r string) bool { return r == auth.RoleUser || r == auth.RoleAdmin }

// nonEmpty keeps secrets verbatim; only an empty value counts as absent.
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func present(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
