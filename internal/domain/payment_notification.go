package domain

import (
	"context"
	"time"
)

type NotificationStatus string

const (
	NotificationStatusPaid     NotificationStatus = "PAID"
	NotificationStatusCanceled NotificationStatus = "CANCELED"
)

// PaymentNotification is an accepted gateway callback as stored by the service.
type PaymentNotification struct {
	ID                   string
	EPTCode              string
	Reference            string
	Amount               string
	ReturnCode           string
	Status               NotificationStatus
	Installment          int
	Test                 bool
	CardBrand            string
	PaymentMethod        string
	RejectReason         string
	AuthenticationStatus string
	Seal                 string
	Fields               map[string]string
	NotifiedAt           time.Time
	ReceivedAt           time.Time
}

// RejectedNotification records a callback that failed validation or the
// seal check.
type RejectedNotification struct {
	ID         string
	RequestID  string
	Reference  string
	Kind       string
	Field      string
	Reason     string
	Fields     map[string]string
	ReceivedAt time.Time
}

type PaymentNotificationRepository interface {
	// Save returns ErrDuplicateNotification when the same reference and seal
	// were already stored.
	Save(ctx context.Context, notification *PaymentNotification) error
	FindByReference(ctx context.Context, reference string) ([]*PaymentNotification, error)
	FindByReferenceAndSeal(ctx context.Context, reference, seal string) (*PaymentNotification, error)
	SaveRejection(ctx context.Context, rejection *RejectedNotification) error
}
