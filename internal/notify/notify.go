// Package notify drains the notification queue and delivers each message.
package notify

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"rfidattendance/internal/account"
	"rfidattendance/internal/observability"
	"rfidattendance/internal/queue"
)

// Sender delivers a password-reset notice to its recipient.
type Sender interface {
	SendReset(ctx context.Context, n account.ResetNotice) error
}

// LogSender writes the notice to the structured log. It is a development
// transport: the usable link only appears at debug level.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) SendReset(_ context.Context, n account.ResetNotice) error {
	s.Log.Info("password reset requested",
		zap.Int64("user_id", n.UserID),
		zap.String("email", n.Email),
		zap.String("link", redactLink(n.Link)),
		zap.Time("expires_at", n.ExpiresAt),
	)
	s.Log.Debug("password reset link", zap.Int64("user_id", n.UserID), zap.String("link", n.Link))
	return nil
}

func redactLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "redacted"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Worker consumes queue messages and hands them to a Sender.
type Worker struct {
	q      queue.Queue
	sender Sender
	log    *zap.Logger
}

func NewWorker(q queue.Queue, sender Sender, log *zap.Logger) *Worker {
	return &Worker{q: q, sender: sender, log: log}
}

// Run blocks until ctx ends or the queue closes.
func (w *Worker) Run(ctx context.Context) error {
	messages, err := w.q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init: %w", err)
	}
	w.log.Info("notification worker started")
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			w.log.Error("notification failed", zap.String("id", msg.ID), zap.String("type", msg.Type), zap.Error(err))
			observability.CaptureErr(err, map[string]string{"message_id": msg.ID, "message_type": msg.Type})
		}
	}
	w.log.Info("notification worker stopped")
	return nil
}

// Handle dispatches one message by type. Unknown types are skipped.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case account.MsgPasswordReset:
		var n account.ResetNotice
		if err := msg.Decode(&n); err != nil {
			return fmt.Errorf("decode reset notice: %w", err)
		}
		return w.sender.SendReset(ctx, n)
	default:
		w.log.Debug("skipping message", zap.String("type", msg.Type))
		return nil
	}
}
