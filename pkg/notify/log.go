package notify

import (
	"context"

	"go.uber.org/zap"
)

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier writes notifications to a zap logger: successes at info,
// failures at warn.
func NewLogNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logNotifier{logger: logger.Named("notify")}
}

func (l *logNotifier) Notify(_ context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.AttemptID != "" {
		fields = append(fields, zap.String("attempt_id", n.AttemptID))
	}
	if n.Kind == KindFailure {
		l.logger.Warn("submission outcome", fields...)
		return nil
	}
	l.logger.Info("submission outcome", fields...)
	return nil
}
