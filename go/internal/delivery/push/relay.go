package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

const defaultActionTimeout = 10 * time.Second

// DecisionFunc is called once per pushed order with the terminal status and
// the result of the status update.
type DecisionFunc func(order models.Order, status models.OrderStatus, err error)

// Relay shows at most one pushed order at a time and runs it through the same
// countdown registry as polled orders.
type Relay struct {
	api      delivery.OrderAPI
	timers   *timers.Registry
	notifier delivery.Notifier
	cue      delivery.AttentionCue
	ack      delivery.PushAcknowledger
	onDecide DecisionFunc

	actionTimeout time.Duration

	mu      sync.Mutex
	current *models.Order
}

// Option configures a Relay.
type Option func(*Relay)

// WithAttentionCue plays cue whenever an order is pushed.
func WithAttentionCue(cue delivery.AttentionCue) Option {
	return func(r *Relay) { r.cue = cue }
}

// WithAcknowledger reports decisions back over the push channel.
func WithAcknowledger(ack delivery.PushAcknowledger) Option {
	return func(r *Relay) { r.ack = ack }
}

// WithDecisionFunc sets the owner callback.
func WithDecisionFunc(fn DecisionFunc) Option {
	return func(r *Relay) { r.onDecide = fn }
}

// WithActionTimeout bounds the status update issued on expiry.
func WithActionTimeout(d time.Duration) Option {
	return func(r *Relay) { r.actionTimeout = d }
}

func NewRelay(api delivery.OrderAPI, registry *timers.Registry, notifier delivery.Notifier, opts ...Option) *Relay {
	r := &Relay{
		api:           api,
		timers:        registry,
		notifier:      notifier,
		actionTimeout: defaultActionTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	registry.Subscribe(r.onTimerEvent)
	return r
}

// OnOrderPush displays order, replacing and abandoning any previous one, and
// arms its server-declared countdown. A countdown the feed already runs for
// the same order is taken over, so expiry rejects it as a pushed order.
func (r *Relay) OnOrderPush(order models.Order) {
	key := order.Key()
	if key == "" {
		log.Warn().Msg("ignoring pushed order without an id")
		return
	}

	if !r.timers.Adopt(key, order.TimerSeconds, r.expire) {
		log.Info().Str("order_id", key).Msg("ignoring pushed order - already settled")
		return
	}

	r.mu.Lock()
	prev := r.current
	r.current = &order
	r.mu.Unlock()

	if prev != nil && prev.Key() != key {
		r.timers.Clear(prev.Key())
		log.Info().Str("order_id", prev.Key()).Str("replaced_by", key).Msg("pushed order replaced")
	}

	if r.cue != nil {
		r.cue.Alert(order)
	}

	log.Info().
		Str("order_id", key).
		Int("timer_sec", order.TimerSeconds).
		Msg("order pushed to driver")
}

// Accept takes the pushed order.
func (r *Relay) Accept(ctx context.Context, orderID string) error {
	return r.decide(ctx, orderID, models.OrderStatusAccepted, false)
}

// Reject declines the pushed order.
func (r *Relay) Reject(ctx context.Context, orderID string) error {
	return r.decide(ctx, orderID, models.OrderStatusCancelled, false)
}

// expire treats a lapsed offer as a reject. The registry has already settled it.
func (r *Relay) expire(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.actionTimeout)
	defer cancel()

	log.Info().Str("order_id", orderID).Msg("pushed order timed out - rejecting")
	if err := r.decide(ctx, orderID, models.OrderStatusCancelled, true); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("failed to reject timed out pushed order")
	}
}

func (r *Relay) decide(ctx context.Context, orderID string, status models.OrderStatus, settled bool) error {
	order, ok := r.Current()
	if !ok || order.Key() != orderID {
		if !settled {
			return fmt.Errorf("pushed order %s: %w", orderID, delivery.ErrUnknownOrder)
		}
		order = models.Order{ID: orderID}
	}

	if !settled && !r.timers.Settle(orderID) {
		return fmt.Errorf("pushed order %s: %w", orderID, delivery.ErrAlreadySettled)
	}

	err := r.api.SetOrderStatus(ctx, orderID, status)
	if err != nil {
		// The next poll offers the order again if it is still unassigned.
		r.timers.Forget(orderID)
		log.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).Msg("failed to update pushed order")
		r.notify(models.Notice{
			Kind:    models.NoticeKindError,
			Title:   "Could not update order",
			Message: err.Error(),
			OrderID: orderID,
		})
		err = fmt.Errorf("set pushed order %s %s: %w", orderID, status, err)
	} else {
		r.acknowledge(ctx, orderID, status)
	}

	if r.onDecide != nil {
		r.onDecide(order, status, err)
	}
	r.dismiss(orderID)
	return err
}

func (r *Relay) acknowledge(ctx context.Context, orderID string, status models.OrderStatus) {
	if r.ack == nil {
		return
	}
	var err error
	if status == models.OrderStatusAccepted {
		err = r.ack.SendAccept(ctx, orderID)
	} else {
		err = r.ack.SendReject(ctx, orderID)
	}
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("failed to acknowledge pushed order")
	}
}

// onTimerEvent dismisses the pushed order when another component ends its
// countdown, e.g. after the feed saw it taken elsewhere or settled it. Expiry
// is not handled here: the relay owns the countdown and expire runs for it.
func (r *Relay) onTimerEvent(ev timers.Event) {
	if ev.Type != timers.EventTimerCleared && ev.Type != timers.EventTimerSettled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.Key() == ev.OrderID {
		log.Info().Str("order_id", ev.OrderID).Str("event", string(ev.Type)).Msg("pushed order withdrawn")
		r.current = nil
	}
}

func (r *Relay) dismiss(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.Key() == orderID {
		r.current = nil
	}
}

func (r *Relay) notify(n models.Notice) {
	if r.notifier != nil {
		r.notifier.Notify(n)
	}
}

// Current returns the displayed pushed order.
func (r *Relay) Current() (models.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return models.Order{}, false
	}
	return *r.current, true
}

// Handles reports whether orderID is the displayed pushed order.
func (r *Relay) Handles(orderID string) bool {
	order, ok := r.Current()
	return ok && order.Key() == orderID
}
