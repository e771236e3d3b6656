// Package metrics exports Prometheus metrics for vending machines. Values are
// fed from domain events, so the machine core stays unaware of them.
//
// Exported metrics:
//   - gumball_units_dispensed_total{machine}
//   - gumball_transitions_total{machine,from,to,trigger}
//   - gumball_refills_total{machine}
//   - gumball_diagnostics_total{machine}
//   - gumball_inventory{machine}
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/domain/event"
)

const namespace = "gumball"

// Metrics is the set of collectors for all machines of one process
type Metrics struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	UnitsDispensed *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	Refills        *prometheus.CounterVec
	Diagnostics    *prometheus.CounterVec
	Inventory      *prometheus.GaugeVec
}

// New creates the collectors and registers them on a private registry
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logger,

		UnitsDispensed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_dispensed_total",
			Help:      "Units released by the machine.",
		}, []string{"machine"}),

		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State changes of the machine.",
		}, []string{"machine", "from", "to", "trigger"}),

		Refills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refills_total",
			Help:      "Refill operations.",
		}, []string{"machine"}),

		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Dispense calls made in a state that cannot dispense.",
		}, []string{"machine"}),

		Inventory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory",
			Help:      "Units currently held by the machine.",
		}, []string{"machine"}),
	}

	m.registry.MustRegister(m.UnitsDispensed, m.Transitions, m.Refills, m.Diagnostics, m.Inventory)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventTypes lists the events HandleEvent understands
func (m *Metrics) EventTypes() []event.Type {
	return []event.Type{
		event.TypeMachineRegistered,
		event.TypeActionHandled,
		event.TypeStateChanged,
		event.TypeUnitReleased,
		event.TypeRefilled,
		event.TypeDiagnostic,
	}
}

// HandleEvent updates the collectors; it has the dispatcher.Handler signature
func (m *Metrics) HandleEvent(_ context.Context, evt *event.Event) error {
	machine := evt.MachineID

	switch evt.Type {
	case event.TypeMachineRegistered, event.TypeActionHandled:
		m.Inventory.WithLabelValues(machine).Set(float64(evt.GetPayloadInt(event.KeyInventory)))
	case event.TypeStateChanged:
		m.Transitions.WithLabelValues(machine,
			evt.GetPayloadString(event.KeyPreviousState),
			evt.GetPayloadString(event.KeyState),
			evt.GetPayloadString(event.KeyTrigger),
		).Inc()
	case event.TypeUnitReleased:
		m.UnitsDispensed.WithLabelValues(machine).Inc()
	case event.TypeRefilled:
		m.Refills.WithLabelValues(machine).Inc()
	case event.TypeDiagnostic:
		m.Diagnostics.WithLabelValues(machine).Inc()
	default:
		m.logger.Debug("Ignoring event", zap.String("event_type", evt.Type.String()))
	}

	return nil
}
