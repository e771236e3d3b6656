package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/gumball-machine/internal/application/port"
	"github.com/garyjia/gumball-machine/internal/domain/entity"
	"github.com/garyjia/gumball-machine/internal/domain/event"
	"github.com/garyjia/gumball-machine/internal/domain/vending"
)

// HistoryRecorder turns TypeActionHandled events into history rows
type HistoryRecorder struct {
	repo   port.HistoryRepository
	logger Logger
}

// NewHistoryRecorder creates a new HistoryRecorder
func NewHistoryRecorder(repo port.HistoryRepository, logger Logger) *HistoryRecorder {
	return &HistoryRecorder{repo: repo, logger: logger}
}

// Handle has the dispatcher.Handler signature
func (h *HistoryRecorder) Handle(ctx context.Context, evt *event.Event) error {
	if evt.Type != event.TypeActionHandled {
		return nil
	}

	messages := evt.Messages()
	kinds := make([]string, 0, len(messages))
	texts := make([]string, 0, len(messages))
	released := 0
	for _, m := range messages {
		kinds = append(kinds, string(m.Kind))
		texts = append(texts, m.Text)
		if m.Kind == vending.KindReleased {
			released++
		}
	}

	record := &entity.TransitionRecord{
		MachineID:     evt.MachineID,
		Trigger:       evt.GetPayloadString(event.KeyTrigger),
		PreviousState: evt.GetPayloadString(event.KeyPreviousState),
		NewState:      evt.GetPayloadString(event.KeyState),
		Inventory:     evt.GetPayloadInt(event.KeyInventory),
		UnitsReleased: released,
		MessageKinds:  strings.Join(kinds, ","),
		MessageText:   strings.Join(texts, "\n"),
		CorrelationID: evt.CorrelationID,
	}

	if err := h.repo.Create(ctx, record); err != nil {
		h.logger.Error("Failed to record history", "machine_id", evt.MachineID, "error", err)
		return fmt.Errorf("failed to record history: %w", err)
	}

	return nil
}
