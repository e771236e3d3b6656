package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/domain/entity"
)

func TestExcelWriter_Write(t *testing.T) {
	w := NewExcelWriter(zap.NewNop())
	summary := &entity.SalesSummary{MachineID: "lobby", Operations: 2, UnitsReleased: 1}
	records := []*entity.TransitionRecord{
		{ID: 1, MachineID: "lobby", Trigger: "INSERT_QUARTER", PreviousState: "NO_QUARTER", NewState: "HAS_QUARTER",
			Inventory: 5, MessageKinds: "accepted", MessageText: "You have inserted a quarter", Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, MachineID: "lobby", Trigger: "TURN_CRANK", PreviousState: "HAS_QUARTER", NewState: "NO_QUARTER",
			Inventory: 4, UnitsReleased: 1, MessageKinds: "turned,released", Timestamp: time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC)},
	}

	data, err := w.Write(summary, records)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "History"}, f.GetSheetList())

	machine, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "lobby", machine)

	released, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", released)

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Trigger", rows[0][2])
	assert.Equal(t, "2026-01-02 03:04:05", rows[1][1])
	assert.Equal(t, "TURN_CRANK", rows[2][2])
	assert.Equal(t, "turned,released", rows[2][7])
}

func TestExcelWriter_EmptyHistory(t *testing.T) {
	w := NewExcelWriter(zap.NewNop())

	data, err := w.Write(&entity.SalesSummary{MachineID: "annex"}, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.ContentType())
}
