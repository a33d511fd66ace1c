// Package dashboard is the driver's order screen: it routes driver commands to
// the pushed-order relay or the polled feed and renders a snapshot of both.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

// Feed is the polled order list.
type Feed interface {
	Accept(ctx context.Context, orderID string) error
	Reject(ctx context.Context, orderID string) error
	SetActiveTab(ctx context.Context, tab delivery.Tab)
	Refresh(ctx context.Context) error
	NewOrders() []models.Order
	OngoingOrders() []models.Order
	ActiveTab() delivery.Tab
	OfferSeconds() int
}

// Pushed is the single out-of-band order slot.
type Pushed interface {
	Accept(ctx context.Context, orderID string) error
	Reject(ctx context.Context, orderID string) error
	Handles(orderID string) bool
	Current() (models.Order, bool)
}

// OrderView is an order with its countdown as shown to the driver.
type OrderView struct {
	models.Order
	Remaining int         `json:"remaining_sec"`
	Total     int         `json:"total_sec"`
	Tier      timers.Tier `json:"tier"`
}

// State is a point-in-time snapshot of the dashboard.
type State struct {
	Tab           delivery.Tab   `json:"tab"`
	NewOrders     []OrderView    `json:"new_orders"`
	OngoingOrders []models.Order `json:"ongoing_orders"`
	Pushed        *OrderView     `json:"pushed,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

type Dashboard struct {
	feed   Feed
	pushed Pushed
	timers *timers.Registry
	clock  clockwork.Clock
}

func New(feed Feed, pushed Pushed, registry *timers.Registry, clock clockwork.Clock) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dashboard{feed: feed, pushed: pushed, timers: registry, clock: clock}
}

func (d *Dashboard) Accept(ctx context.Context, orderID string) error {
	if d.isPushed(orderID) {
		log.Info().Str("order_id", orderID).Msg("driver accepted pushed order")
		return d.pushed.Accept(ctx, orderID)
	}
	log.Info().Str("order_id", orderID).Msg("driver accepted order")
	return d.feed.Accept(ctx, orderID)
}

func (d *Dashboard) Reject(ctx context.Context, orderID string) error {
	if d.isPushed(orderID) {
		log.Info().Str("order_id", orderID).Msg("driver rejected pushed order")
		return d.pushed.Reject(ctx, orderID)
	}
	log.Info().Str("order_id", orderID).Msg("driver rejected order")
	return d.feed.Reject(ctx, orderID)
}

func (d *Dashboard) SwitchTab(ctx context.Context, tab delivery.Tab) error {
	switch tab {
	case delivery.TabNew, delivery.TabOngoing:
		d.feed.SetActiveTab(ctx, tab)
		return nil
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}
}

// Refresh asks the feed for an immediate poll.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.feed.Refresh(ctx)
}

func (d *Dashboard) isPushed(orderID string) bool {
	return d.pushed != nil && d.pushed.Handles(orderID)
}

// State renders the current dashboard.
func (d *Dashboard) State() State {
	offer := d.feed.OfferSeconds()
	newOrders := d.feed.NewOrders()

	state := State{
		Tab:           d.feed.ActiveTab(),
		NewOrders:     make([]OrderView, 0, len(newOrders)),
		OngoingOrders: d.feed.OngoingOrders(),
		GeneratedAt:   d.clock.Now(),
	}
	if state.OngoingOrders == nil {
		state.OngoingOrders = []models.Order{}
	}
	for _, o := range newOrders {
		state.NewOrders = append(state.NewOrders, d.view(o, offer))
	}

	if d.pushed != nil {
		if o, ok := d.pushed.Current(); ok {
			v := d.view(o, o.TimerSeconds)
			state.Pushed = &v
		}
	}
	return state
}

// view reports a full countdown for orders whose timer has not started.
func (d *Dashboard) view(o models.Order, total int) OrderView {
	if total <= 0 {
		total = timers.DefaultOfferSeconds
	}
	if e, ok := d.timers.Get(o.Key()); ok {
		return OrderView{Order: o, Remaining: e.Remaining, Total: e.Total, Tier: e.Tier()}
	}
	remaining := d.timers.Remaining(o.Key(), total)
	return OrderView{Order: o, Remaining: remaining, Total: total, Tier: timers.TierFor(remaining, total)}
}
