package service

import (
	"context"
	"sync"

	"github.com/garyjia/gumball-machine/internal/domain/entity"
	"github.com/garyjia/gumball-machine/internal/domain/event"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockHistoryRepo struct {
	mu          sync.Mutex
	records     []*entity.TransitionRecord
	createFunc  func(ctx context.Context, record *entity.TransitionRecord) error
	listFunc    func(ctx context.Context, machineID string, limit int) ([]*entity.TransitionRecord, error)
	summaryFunc func(ctx context.Context, machineID string) (*entity.SalesSummary, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *entity.TransitionRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryRepo) ListByMachine(ctx context.Context, machineID string, limit int) ([]*entity.TransitionRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, machineID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TransitionRecord
	for _, r := range m.records {
		if r.MachineID == machineID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) Summarize(ctx context.Context, machineID string) (*entity.SalesSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, machineID)
	}
	return &entity.SalesSummary{MachineID: machineID}, nil
}

type mockReportWriter struct {
	writeFunc func(summary *entity.SalesSummary, records []*entity.TransitionRecord) ([]byte, error)
}

func (m *mockReportWriter) Write(summary *entity.SalesSummary, records []*entity.TransitionRecord) ([]byte, error) {
	if m.writeFunc != nil {
		return m.writeFunc(summary, records)
	}
	return []byte("report"), nil
}

func (m *mockReportWriter) ContentType() string {
	return "application/test"
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error

	// beforeRecord runs ahead of recording, without the mock's lock held
	beforeRecord func(evt *event.Event)
}

func (m *mockPublisher) Dispatch(ctx context.Context, evt *event.Event) error {
	if m.beforeRecord != nil {
		m.beforeRecord(evt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

func (m *mockPublisher) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
