package timers

import "time"

// EventType identifies a timer lifecycle event.
type EventType string

const (
	EventTimerStarted EventType = "TimerStarted"
	EventTimerTick    EventType = "TimerTick"
	EventTimerExpired EventType = "TimerExpired"
	EventTimerCleared EventType = "TimerCleared"
	EventTimerSettled EventType = "TimerSettled"
)

// Event is emitted to listeners whenever a countdown changes state.
type Event struct {
	Type      EventType `json:"type"`
	OrderID   string    `json:"order_id"`
	Remaining int       `json:"remaining_sec"`
	Total     int       `json:"total_sec"`
	Tier      Tier      `json:"tier"`
	Deadline  time.Time `json:"deadline,omitempty"`
	At        time.Time `json:"at"`
}

// Listener is called synchronously for every event. Listeners must return
// quickly and must not call back into the Registry.
type Listener func(Event)
