// Package alerts reports run outcomes as one-line status notifications on
// stderr, separate from the command's formatted output on stdout.
package alerts

import (
	"fmt"
	"time"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/emoji"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failure or error condition.
	LevelError Level = iota
	// LevelWarning indicates a partial failure.
	LevelWarning
	// LevelInfo indicates general informational messages.
	LevelInfo
	// LevelSuccess indicates successful completion of an operation.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Icon returns the symbol printed before the alert message.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return emoji.Error
	case LevelWarning:
		return emoji.Warning
	case LevelInfo:
		return emoji.Info
	case LevelSuccess:
		return emoji.Success
	default:
		return emoji.Unknown
	}
}

// Color returns ANSI color codes for terminal output.
func (l Level) Color() string {
	switch l {
	case LevelError:
		return "\033[31m" // Red
	case LevelWarning:
		return "\033[33m" // Yellow
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelSuccess:
		return "\033[32m" // Green
	default:
		return resetColor
	}
}

const resetColor = "\033[0m"

// Alert represents a status notification.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds additional context details to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns a string representation of the alert.
func (a *Alert) String() string {
	message := fmt.Sprintf("%s %s", a.Level.Icon(), a.Message)
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}

// ForRun summarizes a price run.
func ForRun(r *catalogsync.RunResult) *Alert {
	if r.DryRun {
		return New(LevelInfo, fmt.Sprintf("%s: dry run, %d of %d matches would be updated", r.Tenant, r.ValidMatches, r.TotalMatches))
	}
	a := New(levelFor(r.Successful, r.Failed), fmt.Sprintf("%s: %d variants updated, %d failed (run %s)", r.Tenant, r.Successful, r.Failed, r.RunID))
	return a.WithDetails(r.Errors...)
}

// ForFlags summarizes an availability flag run.
func ForFlags(r *catalogsync.FlagResult) *Alert {
	if r.DryRun {
		return New(LevelInfo, fmt.Sprintf("%s: dry run, %d flags would change", r.Tenant, r.Changed))
	}
	return New(levelFor(r.Successful, r.Failed), fmt.Sprintf("%s: %d flags updated, %d failed", r.Tenant, r.Successful, r.Failed)).
		WithDetails(r.Errors...)
}

// ForRevert summarizes a revert.
func ForRevert(r *revert.Result) *Alert {
	return New(levelFor(r.Successful, r.Failed), fmt.Sprintf("%s: restored %d of %d entries of %s", r.Tenant, r.Successful, r.Entries, r.RunID)).
		WithDetails(r.Errors...)
}

func levelFor(ok, failed int) Level {
	switch {
	case failed == 0:
		return LevelSuccess
	case ok > 0:
		return LevelWarning
	default:
		return LevelError
	}
}
