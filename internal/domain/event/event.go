package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/garyjia/gumball-machine/internal/domain/vending"
)

// Payload keys shared by publishers and handlers
const (
	KeyTrigger           = "trigger"
	KeyPreviousState     = "previous_state"
	KeyState             = "state"
	KeyInventory         = "inventory"
	KeyPreviousInventory = "previous_inventory"
	KeyMessages          = "messages"
	KeyText              = "text"
)

// Event represents something that happened to a vending machine
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	MachineID     string                 `json:"machine_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, machineID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, machineID, payload, generateID())
}

// NewEventWithCorrelation creates an event belonging to the same machine
// operation as other events sharing correlationID
func NewEventWithCorrelation(eventType Type, machineID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            generateID(),
		Type:          eventType,
		MachineID:     machineID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	switch v := e.Payload[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// GetPayloadInt retrieves an int value from the payload
func (e *Event) GetPayloadInt(key string) int {
	switch v := e.Payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Messages returns the machine output attached to the event, if any
func (e *Event) Messages() []vending.Message {
	msgs, _ := e.Payload[KeyMessages].([]vending.Message)
	return msgs
}

// NewCorrelationID returns an id to share between the events of one operation
func NewCorrelationID() string {
	return generateID()
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
