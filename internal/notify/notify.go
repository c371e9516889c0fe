// Package notify delivers operator notifications (the panel's snackbar
// messages) to sinks outside the session state: the log and, optionally, the
// desktop notification daemon.
package notify

import (
	"context"
	"log/slog"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// Notifier receives every notification the controller emits.
type Notifier interface {
	Notify(n models.Notification)
}

// Func adapts a plain function to Notifier.
type Func func(models.Notification)

func (f Func) Notify(n models.Notification) { f(n) }

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(n models.Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// Log writes notifications to a structured logger. Errors log at warn level.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier; a nil logger means slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(n models.Notification) {
	level := slog.LevelInfo
	if n.Severity == models.SeverityError {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, "notify: "+n.Message, "severity", n.Severity, "seq", n.Seq)
}
