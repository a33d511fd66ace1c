// Package delivery holds the collaborator contracts shared by the driver
// dashboard components: the dispatch API, the push channel and the notice
// layer.
package delivery

import (
	"context"
	"errors"

	"github.com/mcdev12/courier/go/internal/models"
)

//go:generate mockgen -source=ports.go -destination=mock/mock_delivery.go

var (
	// ErrNotFound is returned by OrderAPI when the server answers 404.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySettled means a terminal action already fired for the order.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrUnknownOrder means the order is not shown on the dashboard.
	ErrUnknownOrder = errors.New("unknown order")
)

// Tab is the active dashboard view.
type Tab string

const (
	TabNew     Tab = "new"
	TabOngoing Tab = "ongoing"
)

// OrderAPI is the subset of the dispatch REST API the dashboard consumes.
type OrderAPI interface {
	FetchOrders(ctx context.Context, hint models.Bucket) ([]models.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// NotificationPoster records driver notifications server-side.
type NotificationPoster interface {
	PostNotification(ctx context.Context, n models.DriverNotification) error
}

// Notifier presents notices to the driver. Implementations must not block.
type Notifier interface {
	Notify(n models.Notice)
}

// AttentionCue plays a sound or vibration for a pushed order.
type AttentionCue interface {
	Alert(order models.Order)
}

// AttentionCueFunc adapts a function to AttentionCue.
type AttentionCueFunc func(order models.Order)

func (f AttentionCueFunc) Alert(order models.Order) { f(order) }

// PushHandler receives orders delivered out of band.
type PushHandler func(order models.Order)

// PushSource delivers unsolicited new-order events. OnPush keeps exactly one
// handler; registering again replaces it.
type PushSource interface {
	OnPush(handler PushHandler)
	Run(ctx context.Context) error
}

// PushAcknowledger reports a driver decision back over the push channel.
type PushAcknowledger interface {
	SendAccept(ctx context.Context, orderID string) error
	SendReject(ctx context.Context, orderID string) error
}
