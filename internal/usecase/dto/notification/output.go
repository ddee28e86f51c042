package notificationdto

import "time"

type NotificationOutput struct {
	ID                   string            `json:"id"`
	Reference            string            `json:"reference"`
	EPTCode              string            `json:"ept_code"`
	Amount               string            `json:"amount"`
	ReturnCode           string            `json:"return_code"`
	Status               string            `json:"status"`
	Installment          int               `json:"installment"`
	Test                 bool              `json:"test"`
	CardBrand            string            `json:"card_brand"`
	PaymentMethod        string            `json:"payment_method,omitempty"`
	RejectReason         string            `json:"reject_reason,omitempty"`
	AuthenticationStatus string            `json:"authentication_status"`
	NotifiedAt           time.Time         `json:"notified_at"`
	ReceivedAt           time.Time         `json:"received_at"`
	Fields               map[string]string `json:"fields,omitempty"`
}

type GetNotificationsOutput struct {
	Reference     string                `json:"reference"`
	Notifications []*NotificationOutput `json:"notifications"`
}

// HandleNotificationOutput is the result of an accepted callback.
type HandleNotificationOutput struct {
	Notification *NotificationOutput
	Duplicate    bool
}
