package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
	publisher "github.com/LavaJover/shvark-monetico-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-monetico-service/internal/monetico"
	notificationdto "github.com/LavaJover/shvark-monetico-service/internal/usecase/dto/notification"
	"github.com/google/uuid"
)

type IPNUsecase interface {
	HandleNotification(ctx context.Context, requestID string, fields map[string]string) (*notificationdto.HandleNotificationOutput, error)
	GetNotifications(ctx context.Context, reference string) (*notificationdto.GetNotificationsOutput, error)
}

type IPNUsecaseConfig struct {
	EPTCode     string
	SecurityKey string
	Topic       string

	// Location the gateway writes notification dates in; nil means
	// monetico.GatewayTimezone.
	Location *time.Location
}

type DefaultIPNUsecase struct {
	Repo            domain.PaymentNotificationRepository
	Publisher       domain.PublisherPort
	RejectionLogger logger.RejectionLogger
	Metrics         *metrics.IPNMetrics
	Log             *slog.Logger
	Config          IPNUsecaseConfig
	Now             func() time.Time
}

func NewDefaultIPNUsecase(
	repo domain.PaymentNotificationRepository,
	pub domain.PublisherPort,
	rejectionLogger logger.RejectionLogger,
	ipnMetrics *metrics.IPNMetrics,
	log *slog.Logger,
	cfg IPNUsecaseConfig) *DefaultIPNUsecase {

	return &DefaultIPNUsecase{
		Repo:            repo,
		Publisher:       pub,
		RejectionLogger: rejectionLogger,
		Metrics:         ipnMetrics,
		Log:             log,
		Config:          cfg,
		Now:             time.Now,
	}
}

// HandleNotification validates a gateway callback, checks its seal, stores
// it and publishes an event. Validation failures are returned wrapped in
// domain.ErrNotificationRejected; any other error is internal.
func (uc *DefaultIPNUsecase) HandleNotification(ctx context.Context, requestID string, fields map[string]string) (*notificationdto.HandleNotificationOutput, error) {
	start := uc.Now()
	uc.Metrics.RecordReceived()

	n, err := uc.parse(fields)
	if err != nil {
		return nil, uc.reject(ctx, requestID, fields, err, start)
	}
	if uc.Config.EPTCode != "" && n.EPTCode != uc.Config.EPTCode {
		err := &monetico.FieldError{Field: monetico.FieldEPTCode, Value: n.EPTCode, Kind: domain.ErrUnknownTerminal}
		return nil, uc.reject(ctx, requestID, fields, err, start)
	}
	if !n.VerifySeal(uc.Config.SecurityKey) {
		err := &monetico.FieldError{Field: monetico.FieldSeal, Value: n.Seal, Kind: monetico.ErrSealMismatch}
		return nil, uc.reject(ctx, requestID, fields, err, start)
	}

	notification := toPaymentNotification(n, start)
	if err := uc.Repo.Save(ctx, notification); err != nil {
		if errors.Is(err, domain.ErrDuplicateNotification) {
			stored, err := uc.Repo.FindByReferenceAndSeal(ctx, n.Reference, n.Seal)
			if err != nil {
				return nil, fmt.Errorf("load duplicate notification %s: %w", n.Reference, err)
			}
			uc.Metrics.RecordDuplicate()
			uc.Log.InfoContext(ctx, "duplicate payment notification acknowledged",
				"request_id", requestID,
				"reference", n.Reference,
			)
			uc.Metrics.RecordProcessingDuration("duplicate", uc.Now().Sub(start).Seconds())
			return &notificationdto.HandleNotificationOutput{
				Notification: toNotificationOutput(stored, false),
				Duplicate:    true,
			}, nil
		}
		return nil, fmt.Errorf("save notification %s: %w", n.Reference, err)
	}

	event := publisher.NotificationEvent{
		NotificationID:       notification.ID,
		Reference:            notification.Reference,
		EPTCode:              notification.EPTCode,
		Status:               string(notification.Status),
		ReturnCode:           notification.ReturnCode,
		Amount:               notification.Amount,
		Installment:          notification.Installment,
		Test:                 notification.Test,
		CardBrand:            notification.CardBrand,
		PaymentMethod:        notification.PaymentMethod,
		RejectReason:         notification.RejectReason,
		AuthenticationStatus: notification.AuthenticationStatus,
		NotifiedAt:           notification.NotifiedAt,
	}
	// the notification is stored; a failed publish must not make the gateway resend it
	if err := publisher.PublishNotification(ctx, uc.Publisher, uc.Config.Topic, event); err != nil {
		uc.Metrics.RecordPublishError()
		uc.Log.ErrorContext(ctx, "failed to publish notification event",
			"request_id", requestID,
			"reference", n.Reference,
			"error", err.Error(),
		)
	}

	uc.Metrics.RecordAccepted(string(notification.Status), notification.CardBrand, notification.Test)
	uc.Metrics.RecordProcessingDuration("accepted", uc.Now().Sub(start).Seconds())
	uc.Log.InfoContext(ctx, "payment notification accepted",
		"request_id", requestID,
		"reference", n.Reference,
		"status", notification.Status,
		"return_code", n.ReturnCode,
		"amount", n.Amount,
	)

	return &notificationdto.HandleNotificationOutput{
		Notification: toNotificationOutput(notification, false),
	}, nil
}

func (uc *DefaultIPNUsecase) parse(fields map[string]string) (*monetico.Notification, error) {
	if uc.Config.Location == nil {
		return monetico.ParseNotification(fields)
	}
	return monetico.ParseNotificationInLocation(fields, uc.Config.Location)
}

func (uc *DefaultIPNUsecase) reject(ctx context.Context, requestID string, fields map[string]string, cause error, start time.Time) error {
	kind := monetico.ErrorKind(cause)
	if errors.Is(cause, domain.ErrUnknownTerminal) {
		kind = "unknown_terminal"
	}

	rejection := &domain.RejectedNotification{
		RequestID:  requestID,
		Reference:  fields[monetico.FieldReference],
		Kind:       kind,
		Reason:     cause.Error(),
		Fields:     fields,
		ReceivedAt: start,
	}
	var fieldErr *monetico.FieldError
	if errors.As(cause, &fieldErr) {
		rejection.Field = fieldErr.Field
	}

	uc.Metrics.RecordRejected(kind)
	uc.Metrics.RecordProcessingDuration("rejected", uc.Now().Sub(start).Seconds())
	if err := uc.RejectionLogger.LogRejection(ctx, rejection); err != nil {
		uc.Log.ErrorContext(ctx, "failed to store rejected notification",
			"request_id", requestID,
			"error", err.Error(),
		)
	}

	return fmt.Errorf("%w: %w", domain.ErrNotificationRejected, cause)
}

func (uc *DefaultIPNUsecase) GetNotifications(ctx context.Context, reference string) (*notificationdto.GetNotificationsOutput, error) {
	notifications, err := uc.Repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	output := &notificationdto.GetNotificationsOutput{
		Reference:     reference,
		Notifications: make([]*notificationdto.NotificationOutput, len(notifications)),
	}
	for i, notification := range notifications {
		output.Notifications[i] = toNotificationOutput(notification, true)
	}
	return output, nil
}

func toPaymentNotification(n *monetico.Notification, receivedAt time.Time) *domain.PaymentNotification {
	status := domain.NotificationStatusCanceled
	if n.IsPaid() {
		status = domain.NotificationStatusPaid
	}

	notification := &domain.PaymentNotification{
		ID:                   uuid.NewString(),
		EPTCode:              n.EPTCode,
		Reference:            n.Reference,
		Amount:               n.Amount,
		ReturnCode:           n.ReturnCode,
		Status:               status,
		Installment:          n.Installment(),
		Test:                 n.IsTest(),
		CardBrand:            n.CardBrand,
		AuthenticationStatus: n.Authentication.Status,
		Seal:                 n.Seal,
		Fields:               n.RawFields(),
		NotifiedAt:           n.DateTime,
		ReceivedAt:           receivedAt,
	}
	if n.PaymentMethod != nil {
		notification.PaymentMethod = *n.PaymentMethod
	}
	if n.RejectReason != nil {
		notification.RejectReason = *n.RejectReason
	}
	return notification
}

func toNotificationOutput(n *domain.PaymentNotification, withFields bool) *notificationdto.NotificationOutput {
	output := &notificationdto.NotificationOutput{
		ID:                   n.ID,
		Reference:            n.Reference,
		EPTCode:              n.EPTCode,
		Amount:               n.Amount,
		ReturnCode:           n.ReturnCode,
		Status:               string(n.Status),
		Installment:          n.Installment,
		Test:                 n.Test,
		CardBrand:            n.CardBrand,
		PaymentMethod:        n.PaymentMethod,
		RejectReason:         n.RejectReason,
		AuthenticationStatus: n.AuthenticationStatus,
		NotifiedAt:           n.NotifiedAt,
		ReceivedAt:           n.ReceivedAt,
	}
	if withFields {
		output.Fields = n.Fields
	}
	return output
}
