package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Event describes a soft failure that did not fail the request that caused it.
type Event struct {
	Message       string
	Err           error
	UserID        string
	CorrelationID string
	Extra         map[string]any
}

// Reporter is a fire-and-forget sink. Implementations never block and never panic.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

func (ev Event) logAttrs() []any {
	attrs := []any{"action", ev.Message}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err.Error())
	}
	if ev.UserID != "" {
		attrs = append(attrs, "user_id", ev.UserID)
	}
	if ev.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", ev.CorrelationID)
	}
	for k, v := range ev.Extra {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// LogReporter writes events to slog at ERROR level.
type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ctx context.Context, ev Event) {
	r.logger.ErrorContext(ctx, "soft failure reported", ev.logAttrs()...)
}

// SentryReporter captures events on a cloned Sentry hub and also logs them.
type SentryReporter struct {
	hub *sentry.Hub
	log *LogReporter
}

func NewSentryReporter(hub *sentry.Hub, logger *slog.Logger) *SentryReporter {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryReporter{hub: hub, log: NewLogReporter(logger)}
}

func (r *SentryReporter) Report(ctx context.Context, ev Event) {
	r.log.Report(ctx, ev)

	hub := r.hub.Clone()
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h.Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if ev.UserID != "" {
			scope.SetUser(sentry.User{ID: ev.UserID})
		}
		if ev.CorrelationID != "" {
			scope.SetTag("correlation_id", ev.CorrelationID)
		}
		if len(ev.Extra) > 0 {
			scope.SetContext("extra", sentry.Context(ev.Extra))
		}
		if ev.Err != nil {
			hub.CaptureException(fmt.Errorf("%s: %w", ev.Message, ev.Err))
			return
		}
		hub.CaptureMessage(ev.Message)
	})
}
