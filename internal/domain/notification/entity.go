package notification

import (
	"context"
	"time"
)

// Severity of a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-facing toast (title + description + severity).
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Success/Failure/Warning are shorthands used by the use cases.
func Success(title, desc string) Notification {
	return Notification{Title: title, Description: desc, Severity: SeveritySuccess}
}

func Failure(title, desc string) Notification {
	return Notification{Title: title, Description: desc, Severity: SeverityError}
}

func Warning(title, desc string) Notification {
	return Notification{Title: title, Description: desc, Severity: SeverityWarning}
}
