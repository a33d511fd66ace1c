package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

const (
	DefaultPollInterval  = 15 * time.Second
	DefaultOfferSeconds  = 30
	DefaultActionTimeout = 10 * time.Second
)

// Config holds the reconciler cadence and offer window.
type Config struct {
	PollInterval  time.Duration
	OfferSeconds  int
	ActionTimeout time.Duration
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		PollInterval:  DefaultPollInterval,
		OfferSeconds:  DefaultOfferSeconds,
		ActionTimeout: DefaultActionTimeout,
	}
}

// overlay is a local decision not yet confirmed by a poll. It is dropped as
// soon as a cycle issued after it applies.
type overlay struct {
	status models.OrderStatus
	seq    uint64
}

// Reconciler keeps the new and ongoing order views in line with the server
// and arms an offer countdown for every visible new order.
type Reconciler struct {
	api      delivery.OrderAPI
	timers   *timers.Registry
	notifier delivery.Notifier
	clock    clockwork.Clock
	config   Config

	seq uint64 // last issued refresh cycle

	mu             sync.Mutex
	tab            delivery.Tab
	newOrders      []models.Order
	ongoing        []models.Order
	appliedNew     uint64
	appliedOngoing uint64
	seen           map[string]struct{}
	seeded         bool
	suppressed     map[string]struct{}
	overlays       map[string]overlay
	deciding       map[string]struct{}
	lapsed         map[string]models.Order
	pinned         func(orderID string) bool
}

// NewReconciler creates a reconciler showing the new tab.
func NewReconciler(api delivery.OrderAPI, registry *timers.Registry, notifier delivery.Notifier, clock clockwork.Clock, config Config) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.OfferSeconds <= 0 {
		config.OfferSeconds = DefaultOfferSeconds
	}
	if config.ActionTimeout <= 0 {
		config.ActionTimeout = DefaultActionTimeout
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	r := &Reconciler{
		api:        api,
		timers:     registry,
		notifier:   notifier,
		clock:      clock,
		config:     config,
		tab:        delivery.TabNew,
		seen:       make(map[string]struct{}),
		suppressed: make(map[string]struct{}),
		overlays:   make(map[string]overlay),
		deciding:   make(map[string]struct{}),
		lapsed:     make(map[string]models.Order),
	}
	registry.Subscribe(r.onTimerEvent)
	return r
}

// SetPinned marks orders whose countdown belongs to another component, such
// as the pushed order. Tab switches and failed polls leave those running.
func (r *Reconciler) SetPinned(fn func(orderID string) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pinned = fn
}

// onTimerEvent drops listed orders whose single terminal action was taken by
// another component. It runs under the registry's event lock and must not
// call back into the registry.
func (r *Reconciler) onTimerEvent(ev timers.Event) {
	if ev.Type != timers.EventTimerExpired && ev.Type != timers.EventTimerSettled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, own := r.deciding[ev.OrderID]; own {
		return
	}
	order, ok := r.removeNewLocked(ev.OrderID)
	if ok && ev.Type == timers.EventTimerExpired {
		// handleTimeout picks it up when the feed owns the countdown.
		r.lapsed[ev.OrderID] = order
	}
}

// unpinned filters out the ids pinned to another component. It must be
// called without r.mu held.
func (r *Reconciler) unpinned(ids []string) []string {
	r.mu.Lock()
	pinned := r.pinned
	r.mu.Unlock()
	if pinned == nil {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if !pinned(id) {
			out = append(out, id)
		}
	}
	return out
}

// FetchAndClassify fetches one bucket using the server hint and re-filters it
// client-side. A 404 is an empty bucket, not an error.
func (r *Reconciler) FetchAndClassify(ctx context.Context, bucket models.Bucket) ([]models.Order, error) {
	orders, err := r.api.FetchOrders(ctx, bucket)
	if err != nil {
		if errors.Is(err, delivery.ErrNotFound) {
			return []models.Order{}, nil
		}
		return nil, fmt.Errorf("fetch %s orders: %w", bucket, err)
	}
	return models.FilterBucket(orders, bucket), nil
}

// Run refreshes immediately and then on every poll interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	log.Info().Dur("interval", r.config.PollInterval).Msg("order feed polling started")

	r.Refresh(ctx)

	ticker := r.clock.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("order feed polling stopped")
			return nil
		case <-ticker.Chan():
			r.Refresh(ctx)
		}
	}
}

// Refresh runs one reconciliation cycle: both buckets are fetched
// concurrently, classified and applied. Results of a cycle older than one
// already applied are discarded. The returned error joins the fetch failures;
// the affected buckets are already reset to empty.
func (r *Reconciler) Refresh(ctx context.Context) error {
	seq := atomic.AddUint64(&r.seq, 1)

	var (
		newOrders, ongoing  []models.Order
		newErr, ongoingErr error
		g                   errgroup.Group
	)
	g.Go(func() error {
		newOrders, newErr = r.FetchAndClassify(ctx, models.BucketNew)
		return nil
	})
	g.Go(func() error {
		ongoing, ongoingErr = r.FetchAndClassify(ctx, models.BucketOngoing)
		return nil
	})
	_ = g.Wait()

	r.applyOngoing(seq, ongoing, ongoingErr)
	r.applyNew(seq, newOrders, newErr)

	return errors.Join(newErr, ongoingErr)
}

func (r *Reconciler) applyOngoing(seq uint64, orders []models.Order, fetchErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.appliedOngoing {
		log.Debug().Uint64("cycle", seq).Msg("dropping stale ongoing orders response")
		return
	}
	r.appliedOngoing = seq

	if fetchErr != nil {
		log.Error().Err(fetchErr).Msg("failed to refresh ongoing orders")
		r.ongoing = nil
		return
	}
	r.ongoing = orders
}

func (r *Reconciler) applyNew(seq uint64, orders []models.Order, fetchErr error) {
	settled := make(map[string]struct{})
	for _, o := range orders {
		if r.timers.IsSettled(o.Key()) {
			settled[o.Key()] = struct{}{}
		}
	}

	r.mu.Lock()
	if seq < r.appliedNew {
		r.mu.Unlock()
		log.Debug().Uint64("cycle", seq).Msg("dropping stale new orders response")
		return
	}
	r.appliedNew = seq

	if fetchErr != nil {
		// No stale actionable orders: show nothing until the next good poll,
		// which re-arms the countdowns cleared here.
		hidden := keysOf(r.newOrders)
		r.newOrders = nil
		r.mu.Unlock()
		log.Error().Err(fetchErr).Msg("failed to refresh new orders")

		if cleared := r.timers.ClearAll(r.unpinned(hidden)...); cleared > 0 {
			log.Info().Int("cleared", cleared).Msg("cleared timers of hidden new orders")
		}
		return
	}

	current := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		current[o.Key()] = struct{}{}
	}

	var departed []string
	for id := range r.seen {
		if _, ok := current[id]; !ok {
			departed = append(departed, id)
			delete(r.suppressed, id)
			delete(r.lapsed, id)
		}
	}
	for id, ov := range r.overlays {
		if seq > ov.seq {
			delete(r.overlays, id)
		}
	}

	visible := make([]models.Order, 0, len(orders))
	var arrived []models.Order
	for _, o := range orders {
		if r.hiddenLocked(o.Key()) {
			continue
		}
		if _, done := settled[o.Key()]; done {
			if _, own := r.deciding[o.Key()]; !own {
				continue
			}
		}
		visible = append(visible, o)
		if _, ok := r.seen[o.Key()]; r.seeded && !ok {
			arrived = append(arrived, o)
		}
	}

	r.seen = current
	r.seeded = true
	r.newOrders = visible
	arm := r.tab == delivery.TabNew
	r.mu.Unlock()

	for _, id := range departed {
		if r.timers.Clear(id) {
			log.Info().Str("order_id", id).Msg("order left the new bucket - timer cleared")
		}
		r.timers.Forget(id)
	}

	if arm {
		for _, o := range visible {
			r.timers.Start(o.Key(), r.config.OfferSeconds, r.handleTimeout)
		}
	}

	if len(arrived) > 0 {
		log.Info().Int("count", len(arrived)).Msg("new orders arrived")
		r.notifier.Notify(models.Notice{
			Kind:    models.NoticeKindNewOrders,
			Title:   "New orders",
			Message: fmt.Sprintf("%d new order(s) available", len(arrived)),
			Count:   len(arrived),
		})
	}
}

func (r *Reconciler) hiddenLocked(orderID string) bool {
	if _, ok := r.suppressed[orderID]; ok {
		return true
	}
	_, ok := r.overlays[orderID]
	return ok
}

// SetActiveTab switches the dashboard view. Leaving the new tab clears the
// countdowns of the listed new orders; returning refreshes and re-arms them at
// full length.
func (r *Reconciler) SetActiveTab(ctx context.Context, tab delivery.Tab) {
	r.mu.Lock()
	prev := r.tab
	r.tab = tab
	shown := make([]string, 0, len(r.seen))
	for id := range r.seen {
		shown = append(shown, id)
	}
	r.mu.Unlock()

	if prev == tab {
		return
	}
	log.Info().Str("from", string(prev)).Str("to", string(tab)).Msg("active tab changed")

	if shown = r.unpinned(shown); prev == delivery.TabNew && len(shown) > 0 {
		cleared := r.timers.ClearAll(shown...)
		log.Debug().Int("cleared", cleared).Msg("cleared new order timers")
	}
	if tab == delivery.TabNew {
		r.Refresh(ctx)
	}
}

// Accept takes a new order for this driver.
func (r *Reconciler) Accept(ctx context.Context, orderID string) error {
	return r.decide(ctx, orderID, models.OrderStatusAccepted)
}

// Reject declines a new order.
func (r *Reconciler) Reject(ctx context.Context, orderID string) error {
	return r.decide(ctx, orderID, models.OrderStatusCancelled)
}

func (r *Reconciler) decide(ctx context.Context, orderID string, status models.OrderStatus) error {
	r.mu.Lock()
	order, ok := r.findNewLocked(orderID)
	if ok {
		r.deciding[orderID] = struct{}{}
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, delivery.ErrUnknownOrder)
	}
	defer func() {
		r.mu.Lock()
		delete(r.deciding, orderID)
		r.mu.Unlock()
	}()

	// The countdown is stopped before the server hears about the decision.
	if !r.timers.Settle(orderID) {
		r.mu.Lock()
		r.removeNewLocked(orderID)
		r.mu.Unlock()
		return fmt.Errorf("order %s: %w", orderID, delivery.ErrAlreadySettled)
	}

	if err := r.api.SetOrderStatus(ctx, orderID, status); err != nil {
		// Recovery is the next poll: the order comes back if still unassigned.
		r.timers.Forget(orderID)
		log.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).Msg("failed to update order status")
		r.notifier.Notify(models.Notice{
			Kind:    models.NoticeKindError,
			Title:   "Could not update order",
			Message: err.Error(),
			OrderID: orderID,
		})
		return fmt.Errorf("set order %s %s: %w", orderID, status, err)
	}

	r.mu.Lock()
	r.removeNewLocked(orderID)
	r.overlays[orderID] = overlay{status: status, seq: atomic.LoadUint64(&r.seq)}
	r.mu.Unlock()

	log.Info().Str("order_id", orderID).Str("status", string(status)).Msg("order decision recorded")
	r.notifier.Notify(decisionNotice(order, status))

	r.Refresh(ctx)
	return nil
}

// handleTimeout is the expiry path for poll-armed orders: exactly one shipped
// update, and the order leaves the local list.
func (r *Reconciler) handleTimeout(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ActionTimeout)
	defer cancel()

	r.mu.Lock()
	order, ok := r.removeNewLocked(orderID)
	if !ok {
		order = r.lapsed[orderID]
	}
	delete(r.lapsed, orderID)
	r.suppressed[orderID] = struct{}{}
	r.mu.Unlock()

	if err := r.api.SetOrderStatus(ctx, orderID, models.OrderStatusShipped); err != nil {
		r.mu.Lock()
		delete(r.suppressed, orderID)
		r.mu.Unlock()
		r.timers.Forget(orderID)

		log.Error().Err(err).Str("order_id", orderID).Msg("failed to release timed out order")
		r.notifier.Notify(models.Notice{
			Kind:    models.NoticeKindError,
			Title:   "Could not release order",
			Message: err.Error(),
			OrderID: orderID,
		})
		return
	}

	log.Info().Str("order_id", orderID).Msg("order offer timed out - released to other drivers")
	notice := models.Notice{
		Kind:    models.NoticeKindTimeout,
		Title:   "Order timed out",
		Message: fmt.Sprintf("Order %s was offered to other drivers", orderID),
		OrderID: orderID,
		Persist: true,
	}
	if !order.Amount.IsZero() {
		amount := order.Amount
		notice.Amount = &amount
	}
	r.notifier.Notify(notice)

	r.Refresh(ctx)
}

func (r *Reconciler) findNewLocked(orderID string) (models.Order, bool) {
	for _, o := range r.newOrders {
		if o.Key() == orderID {
			return o, true
		}
	}
	return models.Order{}, false
}

func (r *Reconciler) removeNewLocked(orderID string) (models.Order, bool) {
	for i, o := range r.newOrders {
		if o.Key() == orderID {
			r.newOrders = append(r.newOrders[:i:i], r.newOrders[i+1:]...)
			return o, true
		}
	}
	return models.Order{}, false
}

// NewOrders returns the orders currently shown in the new tab.
func (r *Reconciler) NewOrders() []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Order(nil), r.newOrders...)
}

// OngoingOrders returns the orders currently shown in the ongoing tab.
func (r *Reconciler) OngoingOrders() []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Order(nil), r.ongoing...)
}

// ActiveTab returns the current dashboard view.
func (r *Reconciler) ActiveTab() delivery.Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tab
}

// Remaining returns the countdown for orderID, or the full offer window when
// no countdown has started yet.
func (r *Reconciler) Remaining(orderID string) int {
	return r.timers.Remaining(orderID, r.config.OfferSeconds)
}

// OfferSeconds is the countdown length for poll-discovered orders.
func (r *Reconciler) OfferSeconds() int {
	return r.config.OfferSeconds
}

func decisionNotice(order models.Order, status models.OrderStatus) models.Notice {
	n := models.Notice{
		OrderID: order.Key(),
		Persist: true,
	}
	if !order.Amount.IsZero() {
		amount := order.Amount
		n.Amount = &amount
	}
	switch status {
	case models.OrderStatusAccepted:
		n.Kind = models.NoticeKindSuccess
		n.Title = "Order accepted"
		n.Message = fmt.Sprintf("Order %s is now in progress", order.Key())
	default:
		n.Kind = models.NoticeKindInfo
		n.Title = "Order rejected"
		n.Message = fmt.Sprintf("Order %s was declined", order.Key())
	}
	return n
}

func keysOf(orders []models.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.Key())
	}
	return ids
}

type discardNotifier struct{}

func (discardNotifier) Notify(models.Notice) {}
