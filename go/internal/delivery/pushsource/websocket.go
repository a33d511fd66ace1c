package pushsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
)

// WebSocketConfig holds the dispatch socket settings.
type WebSocketConfig struct {
	URL              string
	Token            string
	ReconnectWait    time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func DefaultWebSocketConfig(url, token string) WebSocketConfig {
	return WebSocketConfig{
		URL:              url,
		Token:            token,
		ReconnectWait:    2 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WebSocketSource receives pushed orders from the dispatch socket and sends
// decisions back over the same connection.
type WebSocketSource struct {
	config WebSocketConfig
	dialer *websocket.Dialer
	clock  clockwork.Clock
	slot   handlerSlot

	mu   sync.Mutex
	conn *websocket.Conn
}

var (
	_ delivery.PushSource       = (*WebSocketSource)(nil)
	_ delivery.PushAcknowledger = (*WebSocketSource)(nil)
)

func NewWebSocketSource(config WebSocketConfig, clock clockwork.Clock) *WebSocketSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WebSocketSource{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
		clock: clock,
	}
}

func (s *WebSocketSource) OnPush(h delivery.PushHandler) {
	s.slot.set(h)
}

// Run keeps a connection open until ctx is done, reconnecting after
// ReconnectWait whenever it drops.
func (s *WebSocketSource) Run(ctx context.Context) error {
	log.Info().Str("url", s.config.URL).Msg("starting push socket")

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("push socket shutting down")
			return nil
		}
		log.Warn().Err(err).Dur("retry_in", s.config.ReconnectWait).Msg("push socket disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.config.ReconnectWait):
		}
	}
}

func (s *WebSocketSource) session(ctx context.Context) error {
	header := http.Header{}
	if s.config.Token != "" {
		header.Set("Authorization", "Bearer "+s.config.Token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.config.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial push socket: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	log.Info().Str("url", s.config.URL).Msg("push socket connected")

	done := make(chan struct{})
	defer func() {
		close(done)
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read push socket: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().Err(err).Msg("dropping malformed push envelope")
			continue
		}
		if env.Type != MessageTypeNewOrder {
			log.Debug().Str("type", env.Type).Msg("ignoring push message")
			continue
		}
		s.slot.deliver("websocket", env.Data)
	}
}

func (s *WebSocketSource) SendAccept(ctx context.Context, orderID string) error {
	return s.send(ctx, Decision{Type: decisionType(true), OrderID: orderID})
}

func (s *WebSocketSource) SendReject(ctx context.Context, orderID string) error {
	return s.send(ctx, Decision{Type: decisionType(false), OrderID: orderID})
}

// send holds mu for the write since gorilla connections allow one writer.
func (s *WebSocketSource) send(ctx context.Context, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}

	deadline := s.clock.Now().Add(s.config.WriteTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteJSON(d); err != nil {
		return fmt.Errorf("send %s for %s: %w", d.Type, d.OrderID, err)
	}
	return nil
}
