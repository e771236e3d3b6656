package port

import (
	"context"

	"github.com/garyjia/gumball-machine/internal/domain/entity"
)

// HistoryRepository persists the audit log of machine operations. Rows are
// never used to rebuild a machine.
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	ListByMachine(ctx context.Context, machineID string, limit int) ([]*entity.TransitionRecord, error)
	Summarize(ctx context.Context, machineID string) (*entity.SalesSummary, error)
}

// ReportWriter renders a machine's history as a downloadable document
type ReportWriter interface {
	Write(summary *entity.SalesSummary, records []*entity.TransitionRecord) ([]byte, error)
	ContentType() string
}
