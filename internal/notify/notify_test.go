package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rfidattendance/internal/account"
	"rfidattendance/internal/queue"
)

type recordingSender struct {
	got chan account.ResetNotice
}

func (s recordingSender) SendReset(_ context.Context, n account.ResetNotice) error {
	s.got <- n
	return nil
}

func TestWorkerDeliversReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(4)
	sender := recordingSender{got: make(chan account.ResetNotice, 1)}
	w := NewWorker(q, sender, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	skip, err := queue.NewMessage("unknown", nil)
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, skip))
	msg, err := queue.NewMessage(account.MsgPasswordReset, account.ResetNotice{UserID: 1, Email: "ana@example.com"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, msg))

	select {
	case n := <-sender.got:
		assert.Equal(t, "ana@example.com", n.Email)
	case <-time.After(time.Second):
		t.Fatal("notice not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	w := NewWorker(queue.NewInMemory(1), LogSender{Log: zap.NewNop()}, zap.NewNop())
	err := w.Handle(context.Background(), queue.Message{Type: account.MsgPasswordReset, Body: []byte(`"nope"`)})
	assert.Error(t, err)
}

func TestLogSenderKeepsTokenOutOfInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := account.ResetNotice{UserID: 1, Email: "ana@example.com", Link: "http://localhost:3000/reset-password?token=s3cr3t"}
	require.NoError(t, LogSender{Log: zap.New(core)}.SendReset(context.Background(), n))

	entries := logs.All()
	require.Len(t, entries, 1)
	link := entries[0].ContextMap()["link"]
	assert.Equal(t, "http://localhost:3000/reset-password?token=redacted", link)
	assert.NotContains(t, link, "s3cr3t")

	debugCore, debugLogs := observer.New(zapcore.DebugLevel)
	require.NoError(t, LogSender{Log: zap.New(debugCore)}.SendReset(context.Background(), n))
	assert.Equal(t, n.Link, debugLogs.FilterMessage("password reset link").All()[0].ContextMap()["link"])
}
