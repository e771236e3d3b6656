package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/gumball-machine/internal/application/service"
	"github.com/garyjia/gumball-machine/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type stubHistoryRepo struct {
	records []*entity.TransitionRecord
	limit   int
}

func (s *stubHistoryRepo) Create(ctx context.Context, record *entity.TransitionRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubHistoryRepo) ListByMachine(ctx context.Context, machineID string, limit int) ([]*entity.TransitionRecord, error) {
	s.limit = limit
	return s.records, nil
}

func (s *stubHistoryRepo) Summarize(ctx context.Context, machineID string) (*entity.SalesSummary, error) {
	return &entity.SalesSummary{MachineID: machineID}, nil
}

type stubReportWriter struct{}

func (stubReportWriter) Write(summary *entity.SalesSummary, records []*entity.TransitionRecord) ([]byte, error) {
	return []byte("PK-workbook"), nil
}

func (stubReportWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type stubHealth struct {
	status *HealthStatus
}

func (s stubHealth) Health(ctx context.Context) *HealthStatus {
	return s.status
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type actionData struct {
	MachineID   string `json:"machine_id"`
	State       string `json:"state"`
	Inventory   int    `json:"inventory"`
	Description string `json:"description"`
	Messages    []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, health HealthChecker) (*Server, *stubHistoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubHistoryRepo{records: []*entity.TransitionRecord{}}
	svc := service.NewVendingService(repo, stubReportWriter{}, nil, &mockLogger{})

	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080, DefaultInventory: 5}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("gumball_units_dispensed_total 0\n"))
	})

	return NewServer(cfg, svc, metrics, health, &mockLogger{}), repo
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeAction(t *testing.T, resp apiResponse) actionData {
	t.Helper()
	var data actionData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, stubHealth{status: &HealthStatus{
		Overall: true,
		Components: map[string]ComponentHealth{
			"database": {Healthy: true},
			"vending":  {Healthy: true, Message: "machines: 2"},
		},
	}})
	w, resp := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "machines: 2", body.Components["vending"].Message)

	s, _ = newTestServer(t, stubHealth{status: &HealthStatus{
		Overall: false,
		Components: map[string]ComponentHealth{
			"database": {Healthy: false, Message: "ping failed: sql: database is closed"},
		},
	}})
	w, resp = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)

	body = HealthResponse{}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.False(t, body.Components["database"].Healthy)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gumball_units_dispensed_total")
}

func TestRegisterMachine(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantState  string
		wantInv    int
	}{
		{name: "explicit inventory", body: `{"id":"lobby","inventory":3}`, wantStatus: http.StatusCreated, wantState: "NO_QUARTER", wantInv: 3},
		{name: "default inventory", body: `{"id":"lobby"}`, wantStatus: http.StatusCreated, wantState: "NO_QUARTER", wantInv: 5},
		{name: "empty machine", body: `{"id":"lobby","inventory":0}`, wantStatus: http.StatusCreated, wantState: "SOLD_OUT", wantInv: 0},
		{name: "missing id", body: `{"inventory":3}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{"id":`, wantStatus: http.StatusBadRequest},
		{name: "invalid id", body: `{"id":"has space"}`, wantStatus: http.StatusBadRequest},
		{name: "negative inventory", body: `{"id":"lobby","inventory":-4}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			w, resp := do(t, s, http.MethodPost, "/api/machines", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus != http.StatusCreated {
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Error)
				return
			}

			assert.True(t, resp.Success)
			data := decodeAction(t, resp)
			assert.Equal(t, "lobby", data.MachineID)
			assert.Equal(t, tt.wantState, data.State)
			assert.Equal(t, tt.wantInv, data.Inventory)
		})
	}
}

func TestRegisterMachine_Conflict(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w, _ := do(t, s, http.MethodPost, "/api/machines", `{"id":"lobby"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := do(t, s, http.MethodPost, "/api/machines", `{"id":"lobby"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "machine already exists", resp.Error)
}

func TestMachineNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/machines/ghost"},
		{http.MethodPost, "/api/machines/ghost/quarter"},
		{http.MethodDelete, "/api/machines/ghost/quarter"},
		{http.MethodPost, "/api/machines/ghost/crank"},
		{http.MethodPost, "/api/machines/ghost/dispense"},
		{http.MethodPost, "/api/machines/ghost/refill"},
	} {
		w, resp := do(t, s, route.method, route.path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, route.path)
		assert.Equal(t, "machine not found", resp.Error)
	}
}

func TestPurchaseFlow(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w, _ := do(t, s, http.MethodPost, "/api/machines", `{"id":"lobby","inventory":1}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := do(t, s, http.MethodPost, "/api/machines/lobby/quarter", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeAction(t, resp)
	assert.Equal(t, "HAS_QUARTER", data.State)
	require.Len(t, data.Messages, 1)
	assert.Equal(t, "You have inserted a quarter", data.Messages[0].Text)

	w, resp = do(t, s, http.MethodPost, "/api/machines/lobby/crank", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeAction(t, resp)
	assert.Equal(t, "SOLD_OUT", data.State)
	assert.Equal(t, 0, data.Inventory)
	require.Len(t, data.Messages, 2)
	assert.Equal(t, "turned", data.Messages[0].Kind)
	assert.Equal(t, "released", data.Messages[1].Kind)

	w, resp = do(t, s, http.MethodPost, "/api/machines/lobby/quarter", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeAction(t, resp)
	assert.Equal(t, "SOLD_OUT", data.State)
	assert.Equal(t, "Hey there are no more gumballs", data.Messages[0].Text)

	w, resp = do(t, s, http.MethodPost, "/api/machines/lobby/refill", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeAction(t, resp)
	assert.Equal(t, "SOLD_OUT", data.State)
	assert.Equal(t, 10, data.Inventory)
	assert.Empty(t, data.Messages)

	w, resp = do(t, s, http.MethodGet, "/api/machines/lobby", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeAction(t, resp)
	assert.Contains(t, data.Description, "Inventory: 10")
}

func TestEjectAndDispense(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/machines", `{"id":"lobby","inventory":2}`)
	do(t, s, http.MethodPost, "/api/machines/lobby/quarter", "")

	w, resp := do(t, s, http.MethodDelete, "/api/machines/lobby/quarter", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeAction(t, resp)
	assert.Equal(t, "NO_QUARTER", data.State)
	assert.Equal(t, "Quarter returned.", data.Messages[0].Text)

	w, resp = do(t, s, http.MethodPost, "/api/machines/lobby/dispense", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeAction(t, resp)
	assert.Equal(t, "You need to pay first.", data.Messages[0].Text)
	assert.Equal(t, 2, data.Inventory)
}

func TestListMachines(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/machines", `{"id":"b"}`)
	do(t, s, http.MethodPost, "/api/machines", `{"id":"a"}`)

	w, resp := do(t, s, http.MethodGet, "/api/machines", "")
	require.Equal(t, http.StatusOK, w.Code)

	var machines []actionData
	require.NoError(t, json.Unmarshal(resp.Data, &machines))
	require.Len(t, machines, 2)
	assert.Equal(t, "a", machines[0].MachineID)
	assert.Equal(t, "b", machines[1].MachineID)
}

func TestHistory(t *testing.T) {
	s, repo := newTestServer(t, nil)
	repo.records = []*entity.TransitionRecord{{MachineID: "lobby", Trigger: "REFILL"}}

	w, resp := do(t, s, http.MethodGet, "/api/machines/lobby/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultHistoryLimit, repo.limit)

	var records []entity.TransitionRecord
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "REFILL", records[0].Trigger)

	w, _ = do(t, s, http.MethodGet, "/api/machines/lobby/history?limit=5000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxHistoryLimit, repo.limit)

	w, _ = do(t, s, http.MethodGet, "/api/machines/lobby/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, http.MethodGet, "/api/machines/lobby/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_Empty(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w, resp := do(t, s, http.MethodGet, "/api/machines/lobby/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `[]`, string(resp.Data))
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestReport(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/machines/lobby/report.xlsx", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"lobby-sales.xlsx"`)
	assert.Equal(t, "PK-workbook", w.Body.String())
}
