package account

import (
	"context"
	"net/url"
	"strings"
	"time"

	"rfidattendance/internal/apperr"
	"rfidattendance/internal/auth"
	"rfidattendance/internal/civiltime"
	"rfidattendance/internal/metrics"
	"rfidattendance/internal/queue"
)

// MsgPasswordReset is the queue message type carrying a ResetNotice.
const MsgPasswordReset = "password_reset"

// Store is the credential persistence the service needs.
type Store interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, up Update) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// SessionLog is the audit trail persistence.
type SessionLog interface {
	Append(ctx context.Context, e SessionEntry) (SessionEntry, error)
	List(ctx context.Context) ([]SessionEntry, error)
}

// Session is what register and login hand back to the caller.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// ResetNotice asks the notifier to deliver a reset link.
type ResetNotice struct {
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config holds the lifetimes and links of the credential flows.
type Config struct {
	LoginTTL    time.Duration
	RegisterTTL time.Duration
	ResetTTL    time.Duration
	ResetURL    string
}

// Service runs the credential lifecycle.
type Service struct {
	users  Store
	logs   SessionLog
	tokens ResetTokens
	pub    queue.Publisher
	issuer *auth.Issuer
	hasher auth.Hasher
	clock  civiltime.Clock
	cfg    Config
}

// NewService wires the credential lifecycle.
func NewService(users Store, logs SessionLog, tokens ResetTokens, pub queue.Publisher,
	issuer *auth.Issuer, hasher auth.Hasher, clock civiltime.Clock, cfg Config) *Service {
	return &Service{
		users: users, logs: logs, tokens: tokens, pub: pub,
		issuer: issuer, hasher: hasher, clock: clock, cfg: cfg,
	}
}

// Register creates a non-privileged credential and issues a registration token.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Session{}, apperr.Validation("Please provide all required fields")
	}
	if err := s.hasher.Check(password); err != nil {
		return Session{}, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Session{}, errEmailTaken()
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.Create(ctx, User{Name: name, Email: email, PasswordHash: hash, Role: auth.RoleUser})
	if err != nil {
		return Session{}, err
	}
	return s.session(u, s.cfg.RegisterTTL)
}

// Login verifies the secret, issues a login token and records the session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, apperr.Validation("Please provide email and password")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return Session{}, errInvalidCredentials()
	}
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return Session{}, err
	}
	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return Session{}, err
	}
	if !ok {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return Session{}, errInvalidCredentials()
	}

	sess, err := s.session(u, s.cfg.LoginTTL)
	if err != nil {
		return Session{}, err
	}
	if _, err := s.record(ctx, u.IDNo, u.Name, ActionLogin); err != nil {
		return Session{}, err
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	return sess, nil
}

// Logout records a logout entry for the caller-supplied identity.
func (s *Service) Logout(ctx context.Context, userID int64, name string) (SessionEntry, error) {
	name = strings.TrimSpace(name)
	if userID <= 0 || name == "" {
		return SessionEntry{}, apperr.Validation("User ID and name are required for logout")
	}
	return s.record(ctx, userID, name, ActionLogout)
}

// Logs returns the session audit trail.
func (s *Service) Logs(ctx context.Context) ([]SessionEntry, error) {
	return s.logs.List(ctx)
}

// Users lists every credential.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Edit applies a partial update. A new password is hashed before storage.
func (s *Service) Edit(ctx context.Context, id int64, ch Changes) (User, error) {
	ch = ch.normalized()
	if err := ch.validate(); err != nil {
		return User{}, err
	}
	if ch.Password != nil {
		if err := s.hasher.Check(*ch.Password); err != nil {
			return User{}, err
		}
	}
	if ch.Email != nil {
		other, err := s.users.GetByEmail(ctx, *ch.Email)
		switch {
		case err == nil && other.IDNo != id:
			return User{}, errEmailTaken()
		case err != nil && !apperr.Is(err, apperr.KindNotFound):
			return User{}, err
		}
	}

	up := Update{Name: ch.Name, Email: ch.Email, Role: ch.Role}
	if ch.Password != nil {
		hash, err := s.hasher.Hash(*ch.Password)
		if err != nil {
			return User{}, err
		}
		up.PasswordHash = &hash
	}
	return s.users.Update(ctx, id, up)
}

// Delete removes a credential.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// ForgotPassword issues a single-use reset token for email and queues its
// delivery. The token itself is never returned to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NotFound("Email not found")
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, u.IDNo, s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	msg, err := queue.NewMessage(MsgPasswordReset, ResetNotice{
		UserID:    u.IDNo,
		Name:      u.Name,
		Email:     u.Email,
		Link:      resetLink(s.cfg.ResetURL, token),
		ExpiresAt: time.Now().Add(s.cfg.ResetTTL).UTC(),
	})
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, msg)
}

// ResetPassword consumes token and overwrites the owner's password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return apperr.Validation("Token and new password are required")
	}
	// Checked before Consume so a rejected password leaves the token usable.
	if err := s.hasher.Check(newPassword); err != nil {
		return err
	}
	userID, ok, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("Invalid or expired reset token")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *Service) session(u User, ttl time.Duration) (Session, error) {
	token, exp, err := s.issuer.Issue(u.Identity(), ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) record(ctx context.Context, userID int64, name, action string) (SessionEntry, error) {
	date, clock := s.clock.Now()
	return s.logs.Append(ctx, SessionEntry{UserIDNo: userID, UserName: name, Action: action, Date: date, Time: clock})
}

func errInvalidCredentials() error { return apperr.Unauthorized("Invalid credentials") }

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
