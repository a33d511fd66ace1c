package models

import (
	"github.com/shopspring/decimal"
)

// NoticeKind defines the flavour of a user-facing notice.
type NoticeKind string

const (
	NoticeKindInfo      NoticeKind = "info"
	NoticeKindSuccess   NoticeKind = "success"
	NoticeKindError     NoticeKind = "error"
	NoticeKindNewOrders NoticeKind = "new_orders"
	NoticeKindTimeout   NoticeKind = "timeout"
)

// Notice is a transient message shown to the driver. Persisted notices are
// also recorded through the notification API.
type Notice struct {
	Kind    NoticeKind       `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	OrderID string           `json:"order_id,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Count   int              `json:"count,omitempty"`
	Persist bool             `json:"-"`
}

// DriverNotification is the payload accepted by the notification endpoint.
type DriverNotification struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    string           `json:"type"`
	OrderID string           `json:"orderId,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

// ToDriverNotification converts a notice into its API payload.
func (n Notice) ToDriverNotification() DriverNotification {
	return DriverNotification{
		Title:   n.Title,
		Message: n.Message,
		Type:    string(n.Kind),
		OrderID: n.OrderID,
		Amount:  n.Amount,
	}
}
