package pushsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/models"
)

// ErrNotConnected is returned when a decision is sent while the channel is down.
var ErrNotConnected = errors.New("push channel not connected")

// Message types on the dispatch push channel.
const (
	MessageTypeNewOrder    = "new_order"
	MessageTypeAcceptOrder = "accept_order"
	MessageTypeRejectOrder = "reject_order"
)

// Envelope is an inbound push message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decision is the outbound acknowledgement of a pushed order.
type Decision struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}

// handlerSlot holds the single registered push handler. Registering again
// replaces the previous handler.
type handlerSlot struct {
	mu      sync.RWMutex
	handler delivery.PushHandler
}

func (s *handlerSlot) set(h delivery.PushHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *handlerSlot) dispatch(order models.Order) bool {
	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h == nil {
		return false
	}
	h(order)
	return true
}

func decodeOrder(data []byte) (models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return models.Order{}, fmt.Errorf("decode pushed order: %w", err)
	}
	if order.Key() == "" {
		return models.Order{}, errors.New("pushed order has no id")
	}
	return order, nil
}

func (s *handlerSlot) deliver(source string, data []byte) {
	order, err := decodeOrder(data)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("dropping malformed push")
		return
	}
	if !s.dispatch(order) {
		log.Warn().Str("source", source).Str("order_id", order.Key()).Msg("no push handler registered")
	}
}

func decisionType(accept bool) string {
	if accept {
		return MessageTypeAcceptOrder
	}
	return MessageTypeRejectOrder
}
