package event

// Type identifies the type of domain event
type Type string

const (
	TypeMachineRegistered Type = "machine.registered"
	TypeActionHandled     Type = "machine.action_handled"
	TypeStateChanged      Type = "machine.state_changed"
	TypeUnitReleased      Type = "machine.unit_released"
	TypeRefilled          Type = "machine.refilled"
	TypeDiagnostic        Type = "machine.diagnostic"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeMachineRegistered,
		TypeActionHandled,
		TypeStateChanged,
		TypeUnitReleased,
		TypeRefilled,
		TypeDiagnostic:
		return true
	default:
		return false
	}
}
