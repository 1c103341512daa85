// Package notify reports sync outcomes to whoever is watching the engine:
// the log, a terminal, or dashboard clients.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	// LevelInfo reports a successful operation.
	LevelInfo Level = "info"
	// LevelError reports a failed operation.
	LevelError Level = "error"
)

// Notification is one user-facing message.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	File    string    `json:"file,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier delivers notifications. Implementations must not block for long:
// they are called from the watcher's event handler.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to a Notifier.
type Func func(ctx context.Context, n Notification)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Info builds an info notification stamped with the current time.
func Info(file, message string) Notification {
	return Notification{Level: LevelInfo, File: file, Message: message, Time: time.Now()}
}

// Error builds an error notification stamped with the current time.
func Error(file, message string) Notification {
	return Notification{Level: LevelError, File: file, Message: message, Time: time.Now()}
}

// Log writes notifications to a logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs n at the matching level.
func (l *Log) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelError
	}

	args := []any{}
	if n.File != "" {
		args = append(args, "file", n.File)
	}
	l.logger.Log(ctx, level, n.Message, args...)
}

// Multi fans a notification out to several notifiers in order. Nil entries
// are skipped.
type Multi []Notifier

// Notify delivers n to every notifier.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
