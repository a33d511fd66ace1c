package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/courier/go/internal/delivery/timers"
)

// Event is the envelope for everything pushed to a driver dashboard.
type Event struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of dashboard event
type EventType string

const (
	EventTypeStateSync     EventType = "StateSync"
	EventTypeTimerStarted  EventType = "TimerStarted"
	EventTypeTimerTick     EventType = "TimerTick"
	EventTypeTimerExpired  EventType = "TimerExpired"
	EventTypeTimerCleared  EventType = "TimerCleared"
	EventTypeTimerSettled  EventType = "TimerSettled"
	EventTypeNotice        EventType = "Notice"
	EventTypeOrderPushed   EventType = "OrderPushed"
	EventTypeCommandResult EventType = "CommandResult"
)

var timerEventTypes = map[timers.EventType]EventType{
	timers.EventTimerStarted: EventTypeTimerStarted,
	timers.EventTimerTick:    EventTypeTimerTick,
	timers.EventTimerExpired: EventTypeTimerExpired,
	timers.EventTimerCleared: EventTypeTimerCleared,
	timers.EventTimerSettled: EventTypeTimerSettled,
}

// TimerPayload carries a countdown update. Clients render remaining_sec as is;
// the server clock is authoritative.
type TimerPayload struct {
	OrderID      string      `json:"order_id"`
	RemainingSec int         `json:"remaining_sec"`
	TotalSec     int         `json:"total_sec"`
	Tier         timers.Tier `json:"tier"`
	Deadline     time.Time   `json:"deadline"`
}

// CommandResult answers a single client command.
type CommandResult struct {
	Command string `json:"command"`
	OrderID string `json:"order_id,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// NewEvent wraps payload in an envelope stamped with now.
func NewEvent(typ EventType, payload interface{}, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: now,
		Data:      data,
	}, nil
}

func timerEvent(ev timers.Event) (*Event, error) {
	typ, ok := timerEventTypes[ev.Type]
	if !ok {
		return nil, fmt.Errorf("unknown timer event %q", ev.Type)
	}
	return NewEvent(typ, TimerPayload{
		OrderID:      ev.OrderID,
		RemainingSec: ev.Remaining,
		TotalSec:     ev.Total,
		Tier:         ev.Tier,
		Deadline:     ev.Deadline,
	}, ev.At)
}
