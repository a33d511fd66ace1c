package pushsource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
)

// NATSConfig holds the bus settings for driver order pushes.
type NATSConfig struct {
	URL           string
	DriverID      string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig(url, driverID string) NATSConfig {
	if url == "" {
		url = nats.DefaultURL
	}
	return NATSConfig{
		URL:           url,
		DriverID:      driverID,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// OrdersSubject is where new orders for driverID are published.
func OrdersSubject(driverID string) string {
	return fmt.Sprintf("drivers.%s.orders.new", driverID)
}

// DecisionSubject is where the driver's decisions are published.
func DecisionSubject(driverID string) string {
	return fmt.Sprintf("drivers.%s.orders.decision", driverID)
}

// NATSSource receives pushed orders from a NATS subject.
type NATSSource struct {
	config NATSConfig
	slot   handlerSlot
	nc     *nats.Conn
}

var (
	_ delivery.PushSource       = (*NATSSource)(nil)
	_ delivery.PushAcknowledger = (*NATSSource)(nil)
)

func NewNATSSource(config NATSConfig) (*NATSSource, error) {
	if config.DriverID == "" {
		return nil, fmt.Errorf("nats push source: driver id is required")
	}

	opts := []nats.Option{
		nats.Name("courier-driver-" + config.DriverID),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSSource{config: config, nc: nc}, nil
}

func (s *NATSSource) OnPush(h delivery.PushHandler) {
	s.slot.set(h)
}

// Run subscribes to the driver's order subject until ctx is done.
func (s *NATSSource) Run(ctx context.Context) error {
	subject := OrdersSubject(s.config.DriverID)
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		s.slot.deliver("nats", msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	log.Info().Str("subject", subject).Msg("listening for pushed orders")

	<-ctx.Done()

	if err := sub.Unsubscribe(); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to unsubscribe")
	}
	if err := s.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain NATS connection")
	}
	log.Info().Msg("nats push source shutting down")
	return nil
}

func (s *NATSSource) SendAccept(ctx context.Context, orderID string) error {
	return s.publish(Decision{Type: decisionType(true), OrderID: orderID})
}

func (s *NATSSource) SendReject(ctx context.Context, orderID string) error {
	return s.publish(Decision{Type: decisionType(false), OrderID: orderID})
}

func (s *NATSSource) publish(d Decision) error {
	if s.nc == nil || !s.nc.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	if err := s.nc.Publish(DecisionSubject(s.config.DriverID), data); err != nil {
		return fmt.Errorf("publish %s for %s: %w", d.Type, d.OrderID, err)
	}
	return nil
}
