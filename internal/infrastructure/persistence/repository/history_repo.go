package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/gumball-machine/internal/application/port"
	"github.com/garyjia/gumball-machine/internal/domain/entity"
	"github.com/garyjia/gumball-machine/internal/domain/vending"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository on SQLite
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a history row and sets its ID
func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	query := `
		INSERT INTO transition_history (
			machine_id, action_trigger, previous_state, new_state, inventory,
			units_released, message_kinds, message_text, correlation_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.MachineID,
		record.Trigger,
		record.PreviousState,
		record.NewState,
		record.Inventory,
		record.UnitsReleased,
		record.MessageKinds,
		record.MessageText,
		record.CorrelationID,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("machine_id", record.MachineID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListByMachine returns the most recent rows of a machine, oldest first.
// A limit of zero or less returns every row.
func (r *HistoryRepository) ListByMachine(ctx context.Context, machineID string, limit int) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, machine_id, action_trigger, previous_state, new_state, inventory,
			units_released, message_kinds, message_text, correlation_id, timestamp
		FROM (
			SELECT * FROM transition_history
			WHERE machine_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, query, machineID, limit)
	if err != nil {
		r.logger.Error("Failed to list history", zap.String("machine_id", machineID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := []*entity.TransitionRecord{}
	for rows.Next() {
		var record entity.TransitionRecord
		err := rows.Scan(
			&record.ID,
			&record.MachineID,
			&record.Trigger,
			&record.PreviousState,
			&record.NewState,
			&record.Inventory,
			&record.UnitsReleased,
			&record.MessageKinds,
			&record.MessageText,
			&record.CorrelationID,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		if _, err := vending.ParseState(record.NewState); err != nil {
			r.logger.Warn("History row has unknown state",
				zap.Int64("id", record.ID),
				zap.String("state", record.NewState))
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Summarize aggregates the history of a machine
func (r *HistoryRepository) Summarize(ctx context.Context, machineID string) (*entity.SalesSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(units_released), 0),
			COALESCE(SUM(CASE WHEN action_trigger = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action_trigger = ? AND previous_state = ? THEN 1 ELSE 0 END), 0)
		FROM transition_history
		WHERE machine_id = ?
	`

	summary := &entity.SalesSummary{MachineID: machineID}
	err := r.db.QueryRowContext(ctx, query,
		vending.TriggerRefill.String(),
		vending.TriggerEjectQuarter.String(),
		vending.StateHasQuarter.String(),
		machineID,
	).Scan(&summary.Operations, &summary.UnitsReleased, &summary.Refills, &summary.Refunds)
	if err != nil {
		r.logger.Error("Failed to summarize history", zap.String("machine_id", machineID), zap.Error(err))
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}

	return summary, nil
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
