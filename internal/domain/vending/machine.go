// Package vending implements the gumball machine: a closed four-state
// machine driven by quarter insertion, ejection and crank turns.
package vending

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RefillCount is the inventory a machine holds after Refill
const RefillCount = 10

// Machine holds the inventory and the active state. It is not safe for
// concurrent use; callers sharing a machine must serialize access.
type Machine struct {
	inventory int
	current   behavior

	soldOut    behavior
	noQuarter  behavior
	hasQuarter behavior
	sold       behavior

	sink     Sink
	logger   *zap.Logger
	observer func(Transition)
}

// Option configures a Machine
type Option func(*Machine)

// WithSink sets where emitted messages go (default: Discard)
func WithSink(sink Sink) Option {
	return func(m *Machine) {
		m.sink = sink
	}
}

// WithLogger sets the logger used for transitions and diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithTransitionObserver registers a callback invoked after every state change
func WithTransitionObserver(fn func(Transition)) Option {
	return func(m *Machine) {
		m.observer = fn
	}
}

// New creates a machine holding initialInventory units. A machine with no
// units starts SoldOut, otherwise it waits for a quarter.
func New(initialInventory int, opts ...Option) *Machine {
	if initialInventory < 0 {
		initialInventory = 0
	}

	m := &Machine{
		inventory:  initialInventory,
		soldOut:    soldOutState{},
		noQuarter:  noQuarterState{},
		hasQuarter: hasQuarterState{},
		sold:       soldState{},
		sink:       Discard,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.current = m.soldOut
	if m.inventory > 0 {
		m.current = m.noQuarter
	}

	return m
}

// InsertQuarter offers a quarter to the machine
func (m *Machine) InsertQuarter() {
	m.current.insertQuarter(m)
}

// EjectQuarter asks for the pending quarter back
func (m *Machine) EjectQuarter() {
	m.current.ejectQuarter(m)
}

// TurnCrank turns the crank; with a quarter inserted this dispenses a unit
func (m *Machine) TurnCrank() {
	m.current.turnCrank(m)
}

// Dispense releases a unit. It is normally reached only through TurnCrank.
func (m *Machine) Dispense() {
	m.current.dispense(m)
}

// Refill resets the inventory to RefillCount. The current state is left
// untouched, so a SoldOut machine stays SoldOut.
func (m *Machine) Refill() {
	m.logger.Info("Machine refilled",
		zap.Int("previous_inventory", m.inventory),
		zap.Int("inventory", RefillCount),
		zap.String("state", m.current.state().String()))
	m.inventory = RefillCount
}

// State returns the current state
func (m *Machine) State() State {
	return m.current.state()
}

// Inventory returns the number of units left
func (m *Machine) Inventory() int {
	return m.inventory
}

// Describe renders the inventory and whether the machine can sell
func (m *Machine) Describe() string {
	var b strings.Builder
	b.WriteString("Gumball Machine\n")
	fmt.Fprintf(&b, "Inventory: %d\n", m.inventory)
	if m.inventory > 0 {
		b.WriteString("Machine is ready for your quarter")
	} else {
		b.WriteString("Ooops no more gumballs")
	}
	return b.String()
}

// String implements fmt.Stringer
func (m *Machine) String() string {
	return m.Describe()
}

func (m *Machine) emit(trigger Trigger, kind Kind, text string) {
	m.sink.Emit(Message{
		State:   m.current.state(),
		Trigger: trigger,
		Kind:    kind,
		Text:    text,
	})
}

func (m *Machine) setState(next behavior, trigger Trigger) {
	from := m.current.state()
	m.current = next

	t := Transition{From: from, To: next.state(), Trigger: trigger}
	m.logger.Debug("State changed",
		zap.String("from", t.From.String()),
		zap.String("to", t.To.String()),
		zap.String("trigger", t.Trigger.String()),
		zap.Int("inventory", m.inventory))

	if m.observer != nil {
		m.observer(t)
	}
}

func (m *Machine) releaseUnit() {
	m.inventory--
	m.emit(TriggerDispense, KindReleased, "A ball comes rolling out.")
}
