// backend/internal/adapters/out/notify/log_notifier.go
package notify

import (
	"context"

	"go.uber.org/zap"

	"sripavan/internal/domain/notification"
)

// LogNotifier mirrors user-facing notifications into the service log.
type LogNotifier struct {
	Logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogNotifier{Logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n notification.Notification) {
	kv := []any{"title", n.Title, "description", n.Description}
	switch n.Severity {
	case notification.SeverityError:
		l.Logger.Warnw("notification", kv...)
	case notification.SeverityWarning:
		l.Logger.Infow("notification", kv...)
	default:
		l.Logger.Debugw("notification", kv...)
	}
}
