package event

import (
	"testing"

	"github.com/garyjia/gumball-machine/internal/domain/vending"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		eventType Type
		expected  bool
	}{
		{TypeMachineRegistered, true},
		{TypeActionHandled, true},
		{TypeStateChanged, true},
		{TypeUnitReleased, true},
		{TypeRefilled, true},
		{TypeDiagnostic, true},
		{Type("machine.exploded"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeUnitReleased, "lobby", map[string]interface{}{KeyInventory: 4})

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.NotEmpty(t, evt.CorrelationID)
	assert.Equal(t, TypeUnitReleased, evt.Type)
	assert.Equal(t, "lobby", evt.MachineID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, 4, evt.GetPayloadInt(KeyInventory))
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeRefilled, "lobby", nil)
	require.NotNil(t, evt.Payload)
	assert.Equal(t, "", evt.GetPayloadString(KeyTrigger))
	assert.Equal(t, 0, evt.GetPayloadInt(KeyInventory))
}

func TestNewEventWithCorrelation(t *testing.T) {
	first := NewEvent(TypeStateChanged, "lobby", nil)
	second := NewEventWithCorrelation(TypeUnitReleased, "lobby", nil, first.CorrelationID)

	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEvent_GetPayloadString(t *testing.T) {
	evt := NewEvent(TypeStateChanged, "lobby", map[string]interface{}{
		KeyState:   vending.StateSold,
		KeyTrigger: "TURN_CRANK",
		"number":   7,
	})

	assert.Equal(t, "SOLD", evt.GetPayloadString(KeyState))
	assert.Equal(t, "TURN_CRANK", evt.GetPayloadString(KeyTrigger))
	assert.Equal(t, "", evt.GetPayloadString("number"))
	assert.Equal(t, "", evt.GetPayloadString("missing"))
}

func TestEvent_GetPayloadInt(t *testing.T) {
	evt := NewEvent(TypeRefilled, "lobby", map[string]interface{}{
		"int":    5,
		"int64":  int64(6),
		"float":  float64(7),
		"string": "8",
	})

	assert.Equal(t, 5, evt.GetPayloadInt("int"))
	assert.Equal(t, 6, evt.GetPayloadInt("int64"))
	assert.Equal(t, 7, evt.GetPayloadInt("float"))
	assert.Equal(t, 0, evt.GetPayloadInt("string"))
}

func TestEvent_Messages(t *testing.T) {
	msgs := []vending.Message{{State: vending.StateSold, Kind: vending.KindReleased, Text: "A ball comes rolling out."}}
	evt := NewEvent(TypeActionHandled, "lobby", map[string]interface{}{KeyMessages: msgs})

	assert.Equal(t, msgs, evt.Messages())
	assert.Nil(t, NewEvent(TypeActionHandled, "lobby", nil).Messages())
}

func TestEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := NewEvent(TypeStateChanged, "lobby", nil)
		assert.False(t, seen[evt.ID], "duplicate id %s", evt.ID)
		seen[evt.ID] = true
	}
}
