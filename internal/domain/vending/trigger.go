package vending

// Trigger names the operation that produced a message or a transition
type Trigger string

const (
	TriggerInsertQuarter Trigger = "INSERT_QUARTER"
	TriggerEjectQuarter  Trigger = "EJECT_QUARTER"
	TriggerTurnCrank     Trigger = "TURN_CRANK"
	TriggerDispense      Trigger = "DISPENSE"
	TriggerRefill        Trigger = "REFILL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Transition describes a single change of the current state
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}
