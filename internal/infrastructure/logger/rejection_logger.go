package logger

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
)

type RejectionLogger interface {
	LogRejection(ctx context.Context, rejection *domain.RejectedNotification) error
}

// DefaultRejectionLogger writes each rejected callback to the log and to the
// rejected_notifications table.
type DefaultRejectionLogger struct {
	repo domain.PaymentNotificationRepository
	log  *slog.Logger
}

func NewDefaultRejectionLogger(repo domain.PaymentNotificationRepository, log *slog.Logger) *DefaultRejectionLogger {
	return &DefaultRejectionLogger{
		repo: repo,
		log:  log,
	}
}

func (l *DefaultRejectionLogger) LogRejection(ctx context.Context, rejection *domain.RejectedNotification) error {
	l.log.WarnContext(ctx, "payment notification rejected",
		"request_id", rejection.RequestID,
		"reference", rejection.Reference,
		"kind", rejection.Kind,
		"field", rejection.Field,
		"reason", rejection.Reason,
	)
	if err := l.repo.SaveRejection(ctx, rejection); err != nil {
		return err
	}
	return nil
}
