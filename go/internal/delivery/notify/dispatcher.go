package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/models"
)

const defaultPostTimeout = 10 * time.Second

// Sink receives every notice, e.g. to forward it to connected dashboards.
type Sink func(models.Notice)

// Dispatcher is the toast layer. It logs each notice, hands it to the sinks
// and, for persistent notices, records it with the notification API in the
// background.
type Dispatcher struct {
	poster      delivery.NotificationPoster
	postTimeout time.Duration

	mu    sync.RWMutex
	sinks []Sink

	wg sync.WaitGroup
}

var _ delivery.Notifier = (*Dispatcher)(nil)

func NewDispatcher(poster delivery.NotificationPoster, postTimeout time.Duration) *Dispatcher {
	if postTimeout <= 0 {
		postTimeout = defaultPostTimeout
	}
	return &Dispatcher{poster: poster, postTimeout: postTimeout}
}

// AddSink registers s for all subsequent notices.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Notify(n models.Notice) {
	logNotice(n)

	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()
	for _, s := range sinks {
		s(n)
	}

	if n.Persist && d.poster != nil {
		d.wg.Add(1)
		go d.post(n.ToDriverNotification())
	}
}

func (d *Dispatcher) post(payload models.DriverNotification) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.postTimeout)
	defer cancel()

	if err := d.poster.PostNotification(ctx, payload); err != nil {
		log.Warn().Err(err).Str("order_id", payload.OrderID).Str("type", payload.Type).Msg("failed to record driver notification")
	}
}

// Wait blocks until background posts have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func logNotice(n models.Notice) {
	var ev *zerolog.Event
	switch n.Kind {
	case models.NoticeKindError:
		ev = log.Warn()
	case models.NoticeKindTimeout:
		ev = log.Info()
	default:
		ev = log.Debug()
	}
	if n.OrderID != "" {
		ev = ev.Str("order_id", n.OrderID)
	}
	if n.Count > 0 {
		ev = ev.Int("count", n.Count)
	}
	ev.Str("kind", string(n.Kind)).Str("title", n.Title).Msg(n.Message)
}
