package models

import (
	"time"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
)

type PaymentNotificationModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	EPTCode              string
	Reference            string                    `gorm:"not null;uniqueIndex:idx_reference_seal;index:idx_reference"`
	Seal                 string                    `gorm:"not null;uniqueIndex:idx_reference_seal"`
	Amount               string                    `gorm:"not null"`
	ReturnCode           string                    `gorm:"not null"`
	Status               domain.NotificationStatus `gorm:"not null;index:idx_status"`
	Installment          int
	Test                 bool
	CardBrand            string
	PaymentMethod        string
	RejectReason         string
	AuthenticationStatus string
	Fields               map[string]string `gorm:"type:jsonb;serializer:json"`
	NotifiedAt           time.Time
	ReceivedAt           time.Time `gorm:"index:idx_received_at"`
}

func (PaymentNotificationModel) TableName() string {
	return "payment_notifications"
}

type RejectedNotificationModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	RequestID  string
	Reference  string `gorm:"index:idx_rejected_reference"`
	Kind       string `gorm:"not null"`
	Field      string
	Reason     string
	Fields     map[string]string `gorm:"type:jsonb;serializer:json"`
	ReceivedAt time.Time         `gorm:"index:idx_rejected_received_at"`
}

func (RejectedNotificationModel) TableName() string {
	return "rejected_notifications"
}
