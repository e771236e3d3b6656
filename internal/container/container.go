package container

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/application/dispatcher"
	"github.com/garyjia/gumball-machine/internal/application/service"
	"github.com/garyjia/gumball-machine/internal/domain/event"
	"github.com/garyjia/gumball-machine/internal/infrastructure/metrics"
	httpAdapter "github.com/garyjia/gumball-machine/internal/interfaces/http"
	"github.com/garyjia/gumball-machine/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse order.
type Container struct {
	config *Config
	logger *zap.Logger

	db         *database.DB
	metrics    *metrics.Metrics
	dispatcher dispatcher.Dispatcher
	vending    service.VendingService
	server     *httpAdapter.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

var _ httpAdapter.HealthChecker = (*Container)(nil)

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. History database
// 2. Metrics and event dispatcher
// 3. Vending service and configured machines
// 4. HTTP server (not listening until Server().Start is called)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.logger.Info("Database initialized")

	c.metrics = metrics.New(c.logger)
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp
	c.logger.Info("Dispatcher initialized")

	vending, err := ProvideVendingService(&VendingDeps{
		DB:         c.db,
		Dispatcher: c.dispatcher,
		Metrics:    c.metrics,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vending service: %w", err)
	}
	c.vending = vending

	if err := c.registerMachines(ctx); err != nil {
		return fmt.Errorf("failed to register machines: %w", err)
	}
	c.logger.Info("Vending service initialized", zap.Int("machines", len(c.config.Vending.Machines)))

	c.server = httpAdapter.NewServer(
		httpAdapter.ServerConfig{
			Host:             c.config.Server.Host,
			Port:             c.config.Server.Port,
			ReadTimeout:      c.config.Server.ReadTimeout,
			WriteTimeout:     c.config.Server.WriteTimeout,
			DefaultInventory: c.config.Vending.DefaultInventory,
		},
		c.vending,
		c.metrics.Handler(),
		c,
		&zapLoggerAdapter{logger: c.logger.Named("http")},
	)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

func (c *Container) registerMachines(ctx context.Context) error {
	for _, m := range c.config.Vending.Machines {
		if _, err := c.vending.Register(ctx, m.ID, m.Inventory); err != nil {
			return err
		}
	}
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *httpAdapter.HealthStatus {
	status := &httpAdapter.HealthStatus{
		Overall:    true,
		Components: make(map[string]httpAdapter.ComponentHealth),
	}

	set := func(name string, healthy bool, msg string) {
		status.Components[name] = httpAdapter.ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.closed.Load():
		set("container", false, "closed")
	case !c.ready.Load():
		set("container", false, "starting")
	default:
		set("container", true, "")
	}

	switch {
	case c.db == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.Healthy(ctx); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	switch {
	case c.dispatcher == nil:
		set("dispatcher", false, "not initialized")
	case len(c.dispatcher.Handlers(event.TypeActionHandled)) == 0:
		set("dispatcher", false, "history recorder not subscribed")
	default:
		set("dispatcher", true, strings.Join(c.dispatcher.Handlers(event.TypeActionHandled), ","))
	}

	if c.vending != nil {
		set("vending", true, fmt.Sprintf("machines: %d", len(c.vending.List(ctx))))
	} else {
		set("vending", false, "not initialized")
	}

	return status
}

// Server returns the HTTP server adapter.
func (c *Container) Server() *httpAdapter.Server {
	return c.server
}

// zapLoggerAdapter adapts zap.Logger to the two-method Logger interfaces of
// the application and interface layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
