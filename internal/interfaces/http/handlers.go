package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gumball-machine/internal/application/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	vendingService   service.VendingService
	health           HealthChecker
	defaultInventory int
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	vendingService service.VendingService,
	health HealthChecker,
	defaultInventory int,
	logger Logger,
) *Handlers {
	return &Handlers{
		vendingService:   vendingService,
		health:           health,
		defaultInventory: defaultInventory,
		logger:           logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// RegisterMachineRequest is the body of POST /api/machines
type RegisterMachineRequest struct {
	ID        string `json:"id" binding:"required"`
	Inventory *int   `json:"inventory"`
}

// HistoryRequest represents query parameters for listing history
type HistoryRequest struct {
	Limit int `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.health != nil {
		status := h.health.Health(c.Request.Context())
		response.Components = status.Components
		if !status.Overall {
			h.logger.Error("Health check failed", "components", status.Components)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   "one or more components are unhealthy",
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListMachines handles GET /api/machines
func (h *Handlers) ListMachines(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.vendingService.List(c.Request.Context()),
	})
}

// RegisterMachine handles POST /api/machines
func (h *Handlers) RegisterMachine(c *gin.Context) {
	var req RegisterMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid register request", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	inventory := h.defaultInventory
	if req.Inventory != nil {
		inventory = *req.Inventory
	}

	snapshot, err := h.vendingService.Register(c.Request.Context(), req.ID, inventory)
	if err != nil {
		h.writeError(c, "Failed to register machine", req.ID, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    snapshot,
	})
}

// GetMachine handles GET /api/machines/:id
func (h *Handlers) GetMachine(c *gin.Context) {
	id := c.Param("id")

	snapshot, err := h.vendingService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to get machine", id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    snapshot,
	})
}

// InsertQuarter handles POST /api/machines/:id/quarter
func (h *Handlers) InsertQuarter(c *gin.Context) {
	h.action(c, h.vendingService.InsertQuarter)
}

// EjectQuarter handles DELETE /api/machines/:id/quarter
func (h *Handlers) EjectQuarter(c *gin.Context) {
	h.action(c, h.vendingService.EjectQuarter)
}

// TurnCrank handles POST /api/machines/:id/crank
func (h *Handlers) TurnCrank(c *gin.Context) {
	h.action(c, h.vendingService.TurnCrank)
}

// Dispense handles POST /api/machines/:id/dispense
func (h *Handlers) Dispense(c *gin.Context) {
	h.action(c, h.vendingService.Dispense)
}

// Refill handles POST /api/machines/:id/refill
func (h *Handlers) Refill(c *gin.Context) {
	h.action(c, h.vendingService.Refill)
}

// History handles GET /api/machines/:id/history
func (h *Handlers) History(c *gin.Context) {
	id := c.Param("id")

	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil || req.Limit < 0 {
		h.logger.Error("Invalid query parameters", "machine_id", id, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit == 0 {
		req.Limit = defaultHistoryLimit
	}
	if req.Limit > maxHistoryLimit {
		req.Limit = maxHistoryLimit
	}

	records, err := h.vendingService.History(c.Request.Context(), id, req.Limit)
	if err != nil {
		h.writeError(c, "Failed to load history", id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// Report handles GET /api/machines/:id/report.xlsx
func (h *Handlers) Report(c *gin.Context) {
	id := c.Param("id")

	report, err := h.vendingService.Report(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to build report", id, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(report.Filename)))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

func (h *Handlers) action(c *gin.Context, op func(ctx context.Context, id string) (*service.Result, error)) {
	id := c.Param("id")

	result, err := op(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Machine operation failed", id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// writeError maps service errors to status codes
func (h *Handlers) writeError(c *gin.Context, msg, id string, err error) {
	status := http.StatusInternalServerError
	text := "internal error"

	switch {
	case errors.Is(err, service.ErrMachineNotFound):
		status, text = http.StatusNotFound, "machine not found"
	case errors.Is(err, service.ErrMachineExists):
		status, text = http.StatusConflict, "machine already exists"
	case errors.Is(err, service.ErrInvalidMachineID):
		status, text = http.StatusBadRequest, "invalid machine id"
	case errors.Is(err, service.ErrInvalidInventory):
		status, text = http.StatusBadRequest, "invalid inventory"
	}

	h.logger.Error(msg, "machine_id", id, "status", status, "error", err)
	c.JSON(status, Response{
		Success: false,
		Error:   text,
	})
}
