package vending

import "go.uber.org/zap"

// behavior is implemented by exactly four variants. Each one answers every
// operation, including the ones that are no-ops in that state.
type behavior interface {
	state() State
	insertQuarter(m *Machine)
	ejectQuarter(m *Machine)
	turnCrank(m *Machine)
	dispense(m *Machine)
}

type soldOutState struct{}

func (soldOutState) state() State { return StateSoldOut }

func (soldOutState) insertQuarter(m *Machine) {
	m.emit(TriggerInsertQuarter, KindRejected, "Hey there are no more gumballs")
}

func (soldOutState) ejectQuarter(m *Machine) {
	m.emit(TriggerEjectQuarter, KindRejected, "Sorry, you can't eject because you haven't inserted a quarter yet.")
}

func (soldOutState) turnCrank(m *Machine) {
	m.emit(TriggerTurnCrank, KindRejected, "You turned but there are no Gumballs.")
}

func (soldOutState) dispense(m *Machine) {
	m.logger.Warn("Dispense called while sold out", zap.Int("inventory", m.inventory))
	m.emit(TriggerDispense, KindDiagnostic, "Sold out should never be the current state when dispensing.")
}

type noQuarterState struct{}

func (noQuarterState) state() State { return StateNoQuarter }

func (noQuarterState) insertQuarter(m *Machine) {
	m.emit(TriggerInsertQuarter, KindAccepted, "You have inserted a quarter")
	m.setState(m.hasQuarter, TriggerInsertQuarter)
}

func (noQuarterState) ejectQuarter(m *Machine) {
	m.emit(TriggerEjectQuarter, KindRejected, "You have not inserted a quarter")
}

func (noQuarterState) turnCrank(m *Machine) {
	m.emit(TriggerTurnCrank, KindRejected, "You turned but there's no quarter.")
}

func (noQuarterState) dispense(m *Machine) {
	m.emit(TriggerDispense, KindRejected, "You need to pay first.")
}

type hasQuarterState struct{}

func (hasQuarterState) state() State { return StateHasQuarter }

func (hasQuarterState) insertQuarter(m *Machine) {
	m.emit(TriggerInsertQuarter, KindRejected, "You cannot insert another quarter.")
}

func (hasQuarterState) ejectQuarter(m *Machine) {
	m.emit(TriggerEjectQuarter, KindRefunded, "Quarter returned.")
	m.setState(m.noQuarter, TriggerEjectQuarter)
}

func (hasQuarterState) turnCrank(m *Machine) {
	m.emit(TriggerTurnCrank, KindTurned, "You turned the crank")
	m.setState(m.sold, TriggerTurnCrank)
	m.current.dispense(m)
}

func (hasQuarterState) dispense(m *Machine) {
	m.emit(TriggerDispense, KindRejected, "No Gumball Dispensed")
}

type soldState struct{}

func (soldState) state() State { return StateSold }

func (soldState) insertQuarter(m *Machine) {
	m.emit(TriggerInsertQuarter, KindRejected, "Please wait we are already giving you a gumball.")
}

func (soldState) ejectQuarter(m *Machine) {
	m.emit(TriggerEjectQuarter, KindRejected, "Sorry you already turned the crank.")
}

func (soldState) turnCrank(m *Machine) {
	m.emit(TriggerTurnCrank, KindRejected, "Turning twice does nothing.")
}

func (soldState) dispense(m *Machine) {
	if m.inventory <= 0 {
		m.logger.Warn("Dispense reached Sold with an empty machine")
		m.emit(TriggerDispense, KindDiagnostic, "Sold out should never be the current state when dispensing.")
		m.setState(m.soldOut, TriggerDispense)
		return
	}

	m.releaseUnit()
	if m.inventory > 0 {
		m.setState(m.noQuarter, TriggerDispense)
	} else {
		m.setState(m.soldOut, TriggerDispense)
	}
}
