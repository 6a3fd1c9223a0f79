// Package observability reports unexpected failures to Sentry.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryOptions identifies the reporting process.
type SentryOptions struct {
	DSN     string
	Env     string
	Release string
	Service string
}

// InitSentry configures error reporting. An empty DSN leaves it disabled and
// the returned flush function is a no-op.
func InitSentry(o SentryOptions) (func(), error) {
	if o.DSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         o.DSN,
		Environment: o.Env,
		Release:     o.Release,
		BeforeSend:  dropCanceled,
	}); err != nil {
		return func() {}, err
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("service", o.Service)
	})
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err with tags such as the request id or queue message id.
// It is a no-op until InitSentry succeeds.
func CaptureErr(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Shutdown cancellations are not failures.
func dropCanceled(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && errors.Is(hint.OriginalException, context.Canceled) {
		return nil
	}
	return event
}
