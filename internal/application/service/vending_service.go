package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/application/port"
	"github.com/garyjia/gumball-machine/internal/domain/entity"
	"github.com/garyjia/gumball-machine/internal/domain/event"
	"github.com/garyjia/gumball-machine/internal/domain/vending"
	"github.com/garyjia/gumball-machine/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Publisher delivers domain events to their handlers
type Publisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// Snapshot is the externally visible condition of a machine
type Snapshot struct {
	MachineID   string        `json:"machine_id"`
	State       vending.State `json:"state"`
	Inventory   int           `json:"inventory"`
	Description string        `json:"description"`
}

// Result is the outcome of one operation on a machine
type Result struct {
	Snapshot
	Messages []vending.Message `json:"messages"`
}

// Report is a rendered history document
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// VendingService drives named machines on behalf of concurrent callers
type VendingService interface {
	Register(ctx context.Context, id string, inventory int) (*Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context) []*Snapshot

	InsertQuarter(ctx context.Context, id string) (*Result, error)
	EjectQuarter(ctx context.Context, id string) (*Result, error)
	TurnCrank(ctx context.Context, id string) (*Result, error)
	Dispense(ctx context.Context, id string) (*Result, error)
	Refill(ctx context.Context, id string) (*Result, error)

	History(ctx context.Context, id string, limit int) ([]*entity.TransitionRecord, error)
	Report(ctx context.Context, id string) (*Report, error)
}

// managedMachine pairs a machine with the lock that serializes its callers
type managedMachine struct {
	mu          sync.Mutex
	id          string
	machine     *vending.Machine
	recorder    *vending.Recorder
	transitions []vending.Transition
}

type vendingServiceImpl struct {
	mu       sync.RWMutex
	machines map[string]*managedMachine

	historyRepo   port.HistoryRepository
	reportWriter  port.ReportWriter
	publisher     Publisher
	logger        Logger
	machineLogger *zap.Logger
}

// Option configures the vending service
type Option func(*vendingServiceImpl)

// WithMachineLogger sets the logger handed to every machine core
func WithMachineLogger(logger *zap.Logger) Option {
	return func(s *vendingServiceImpl) {
		s.machineLogger = logger
	}
}

// NewVendingService creates a new VendingService
func NewVendingService(
	historyRepo port.HistoryRepository,
	reportWriter port.ReportWriter,
	publisher Publisher,
	logger Logger,
	opts ...Option,
) VendingService {
	s := &vendingServiceImpl{
		machines:      make(map[string]*managedMachine),
		historyRepo:   historyRepo,
		reportWriter:  reportWriter,
		publisher:     publisher,
		logger:        logger,
		machineLogger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates a machine holding inventory units under id
func (s *vendingServiceImpl) Register(ctx context.Context, id string, inventory int) (*Snapshot, error) {
	if err := utils.ValidateMachineID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMachineID, err)
	}
	if err := utils.ValidateInventory(inventory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}

	mm := &managedMachine{id: id, recorder: vending.NewRecorder()}
	mm.machine = vending.New(inventory,
		vending.WithSink(mm.recorder),
		vending.WithLogger(s.machineLogger.With(zap.String("machine_id", id))),
		vending.WithTransitionObserver(func(t vending.Transition) {
			mm.transitions = append(mm.transitions, t)
		}),
	)

	// Held until the registration event is out, so no operation on id can
	// publish ahead of it.
	mm.mu.Lock()
	defer mm.mu.Unlock()

	s.mu.Lock()
	if _, exists := s.machines[id]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrMachineExists, id)
	}
	s.machines[id] = mm
	s.mu.Unlock()

	snap := mm.snapshot()
	s.logger.Info("Machine registered", "machine_id", id, "inventory", snap.Inventory, "state", snap.State)
	s.publish(ctx, event.NewEvent(event.TypeMachineRegistered, id, map[string]interface{}{
		event.KeyInventory: snap.Inventory,
		event.KeyState:     snap.State,
	}))

	return &snap, nil
}

// Get returns the current snapshot of a machine
func (s *vendingServiceImpl) Get(ctx context.Context, id string) (*Snapshot, error) {
	mm, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	snap := mm.snapshot()
	return &snap, nil
}

// List returns snapshots of every machine ordered by id
func (s *vendingServiceImpl) List(ctx context.Context) []*Snapshot {
	s.mu.RLock()
	managed := make([]*managedMachine, 0, len(s.machines))
	for _, mm := range s.machines {
		managed = append(managed, mm)
	}
	s.mu.RUnlock()

	sort.Slice(managed, func(i, j int) bool { return managed[i].id < managed[j].id })

	snapshots := make([]*Snapshot, 0, len(managed))
	for _, mm := range managed {
		mm.mu.Lock()
		snap := mm.snapshot()
		mm.mu.Unlock()
		snapshots = append(snapshots, &snap)
	}
	return snapshots
}

func (s *vendingServiceImpl) InsertQuarter(ctx context.Context, id string) (*Result, error) {
	return s.perform(ctx, id, vending.TriggerInsertQuarter, (*vending.Machine).InsertQuarter)
}

func (s *vendingServiceImpl) EjectQuarter(ctx context.Context, id string) (*Result, error) {
	return s.perform(ctx, id, vending.TriggerEjectQuarter, (*vending.Machine).EjectQuarter)
}

func (s *vendingServiceImpl) TurnCrank(ctx context.Context, id string) (*Result, error) {
	return s.perform(ctx, id, vending.TriggerTurnCrank, (*vending.Machine).TurnCrank)
}

func (s *vendingServiceImpl) Dispense(ctx context.Context, id string) (*Result, error) {
	return s.perform(ctx, id, vending.TriggerDispense, (*vending.Machine).Dispense)
}

func (s *vendingServiceImpl) Refill(ctx context.Context, id string) (*Result, error) {
	return s.perform(ctx, id, vending.TriggerRefill, (*vending.Machine).Refill)
}

// History returns recorded operations of id, including ones recorded by
// earlier processes
func (s *vendingServiceImpl) History(ctx context.Context, id string, limit int) ([]*entity.TransitionRecord, error) {
	if err := utils.ValidateMachineID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMachineID, err)
	}

	records, err := s.historyRepo.ListByMachine(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}

// Report renders the full history of id
func (s *vendingServiceImpl) Report(ctx context.Context, id string) (*Report, error) {
	if err := utils.ValidateMachineID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMachineID, err)
	}

	summary, err := s.historyRepo.Summarize(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}

	records, err := s.historyRepo.ListByMachine(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	data, err := s.reportWriter.Write(summary, records)
	if err != nil {
		s.logger.Error("Failed to write report", "machine_id", id, "error", err)
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &Report{
		Filename:    id + "-sales.xlsx",
		ContentType: s.reportWriter.ContentType(),
		Data:        data,
	}, nil
}

// perform runs op with the machine locked. Events are published before the
// lock is released so history rows keep the order of the operations.
func (s *vendingServiceImpl) perform(ctx context.Context, id string, trigger vending.Trigger, op func(*vending.Machine)) (*Result, error) {
	mm, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	previousState := mm.machine.State()
	previousInventory := mm.machine.Inventory()

	op(mm.machine)

	messages := mm.recorder.Drain()
	transitions := mm.transitions
	mm.transitions = nil

	result := &Result{Snapshot: mm.snapshot(), Messages: messages}
	if result.Messages == nil {
		result.Messages = []vending.Message{}
	}

	correlationID := event.NewCorrelationID()
	emit := func(t event.Type, payload map[string]interface{}) {
		s.publish(ctx, event.NewEventWithCorrelation(t, id, payload, correlationID))
	}

	for _, t := range transitions {
		emit(event.TypeStateChanged, map[string]interface{}{
			event.KeyPreviousState: t.From,
			event.KeyState:         t.To,
			event.KeyTrigger:       t.Trigger,
		})
	}

	for _, msg := range messages {
		switch msg.Kind {
		case vending.KindReleased:
			emit(event.TypeUnitReleased, map[string]interface{}{
				event.KeyInventory: result.Inventory,
			})
		case vending.KindDiagnostic:
			emit(event.TypeDiagnostic, map[string]interface{}{
				event.KeyState: msg.State,
				event.KeyText:  msg.Text,
			})
		}
	}

	if trigger == vending.TriggerRefill {
		emit(event.TypeRefilled, map[string]interface{}{
			event.KeyPreviousInventory: previousInventory,
			event.KeyInventory:         result.Inventory,
		})
	}

	emit(event.TypeActionHandled, map[string]interface{}{
		event.KeyTrigger:       trigger,
		event.KeyPreviousState: previousState,
		event.KeyState:         result.State,
		event.KeyInventory:     result.Inventory,
		event.KeyMessages:      messages,
	})

	s.logger.Info("Machine operation handled",
		"machine_id", id,
		"trigger", trigger,
		"previous_state", previousState,
		"state", result.State,
		"inventory", result.Inventory,
		"messages", joinTexts(messages),
	)

	return result, nil
}

// publish delivers evt; handler failures never undo a machine operation
func (s *vendingServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", evt.Type,
			"machine_id", evt.MachineID,
			"error", err,
		)
	}
}

func (s *vendingServiceImpl) lookup(id string) (*managedMachine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mm, ok := s.machines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, id)
	}
	return mm, nil
}

// snapshot must be called with mm.mu held
func (mm *managedMachine) snapshot() Snapshot {
	return Snapshot{
		MachineID:   mm.id,
		State:       mm.machine.State(),
		Inventory:   mm.machine.Inventory(),
		Description: mm.machine.Describe(),
	}
}

func joinTexts(messages []vending.Message) string {
	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, " | ")
}
