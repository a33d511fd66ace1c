package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a normalized order status as reported by the dispatch API.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "pending"
	OrderStatusAccepted             OrderStatus = "accepted"
	OrderStatusRunning              OrderStatus = "running"
	OrderStatusOngoing              OrderStatus = "ongoing"
	OrderStatusInProgress           OrderStatus = "inprogress"
	OrderStatusInProgressUnderscore OrderStatus = "in_progress"
	OrderStatusProcessing           OrderStatus = "processing"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusCancelled            OrderStatus = "cancelled"
	// OrderStatusShipped marks an offer whose window expired; the order is
	// available to other drivers again.
	OrderStatusShipped OrderStatus = "shipped"
)

// Bucket is the dashboard partition an order belongs to.
type Bucket string

const (
	BucketNew     Bucket = "new"
	BucketOngoing Bucket = "ongoing"
	BucketNone    Bucket = "none"
)

var ongoingStatuses = map[OrderStatus]bool{
	OrderStatusAccepted:             true,
	OrderStatusRunning:              true,
	OrderStatusOngoing:              true,
	OrderStatusInProgress:           true,
	OrderStatusInProgressUnderscore: true,
	OrderStatusProcessing:           true,
}

var terminalStatuses = map[OrderStatus]bool{
	OrderStatusDelivered: true,
	OrderStatusCancelled: true,
}

// NormalizeStatus lower-cases and trims a raw server status.
func NormalizeStatus(raw string) OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// Classify places a raw status into exactly one bucket.
// Shipped orders stay in the new bucket: they are up for reassignment.
func Classify(raw string) Bucket {
	status := NormalizeStatus(raw)
	switch {
	case ongoingStatuses[status]:
		return BucketOngoing
	case terminalStatuses[status]:
		return BucketNone
	default:
		return BucketNew
	}
}

// Order is the subset of a delivery order the driver dashboard works with.
type Order struct {
	ID            string          `json:"_id,omitempty"`
	OrderNumber   string          `json:"orderId,omitempty"`
	Status        string          `json:"status"`
	TimerSeconds  int             `json:"timerSeconds,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customerName,omitempty"`
	PickupAddress string          `json:"pickupAddress,omitempty"`
	DropAddress   string          `json:"dropAddress,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

// Key returns the identifier used for timers and deduplication.
func (o Order) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.OrderNumber
}

// Bucket classifies the order by its current status.
func (o Order) Bucket() Bucket {
	return Classify(o.Status)
}

// FilterBucket returns the orders that classify into bucket, preserving order.
func FilterBucket(orders []Order, bucket Bucket) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Key() == "" {
			continue
		}
		if o.Bucket() == bucket {
			out = append(out, o)
		}
	}
	return out
}
