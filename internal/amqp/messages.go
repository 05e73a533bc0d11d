package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tracker/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseRemoved EventType = "expense.removed"
)

// LedgerEvent is published after every successful ledger mutation. Added
// events carry the full expense; removed events carry only the id.
type LedgerEvent struct {
	Type      EventType     `json:"type"`
	ID        int64         `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Version   uint64        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseAdded builds the event for a freshly recorded expense.
func NewExpenseAdded(e core.Expense, version uint64) *LedgerEvent {
	return &LedgerEvent{Type: EventExpenseAdded, ID: e.ID, Expense: &e, Version: version, Timestamp: time.Now()}
}

// NewExpenseRemoved builds the event for a removed expense.
func NewExpenseRemoved(id int64, version uint64) *LedgerEvent {
	return &LedgerEvent{Type: EventExpenseRemoved, ID: id, Version: version, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenseAdded:
		if msg.Expense == nil {
			return nil, fmt.Errorf("%s event without expense", msg.Type)
		}
	case EventExpenseRemoved:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid expense id %d", msg.ID)
	}
	return &msg, nil
}
