package publisher

import "time"

type NotificationEvent struct {
	NotificationID       string    `json:"notification_id"`
	Reference            string    `json:"reference"`
	EPTCode              string    `json:"ept_code"`
	Status               string    `json:"status"`
	ReturnCode           string    `json:"return_code"`
	Amount               string    `json:"amount"`
	Installment          int       `json:"installment"`
	Test                 bool      `json:"test"`
	CardBrand            string    `json:"card_brand"`
	PaymentMethod        string    `json:"payment_method,omitempty"`
	RejectReason         string    `json:"reject_reason,omitempty"`
	AuthenticationStatus string    `json:"authentication_status"`
	NotifiedAt           time.Time `json:"notified_at"`
}
