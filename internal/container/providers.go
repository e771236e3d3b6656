package container

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/application/dispatcher"
	"github.com/garyjia/gumball-machine/internal/application/service"
	"github.com/garyjia/gumball-machine/internal/domain/event"
	"github.com/garyjia/gumball-machine/internal/infrastructure/metrics"
	"github.com/garyjia/gumball-machine/internal/infrastructure/persistence/repository"
	"github.com/garyjia/gumball-machine/internal/infrastructure/report"
	"github.com/garyjia/gumball-machine/pkg/database"
)

// Handler names registered with the dispatcher
const (
	historyHandlerName = "history-recorder"
	metricsHandlerName = "metrics"
)

// ProvideDatabase opens the history database and applies pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var migrations fs.FS = database.EmbeddedMigrations()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// VendingDeps holds the dependencies of the vending service.
type VendingDeps struct {
	DB         *database.DB
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// ProvideVendingService wires the vending service and subscribes the history
// recorder and the metrics collectors to its events.
func ProvideVendingService(deps *VendingDeps) (service.VendingService, error) {
	if deps == nil || deps.DB == nil || deps.Dispatcher == nil || deps.Logger == nil {
		return nil, fmt.Errorf("database, dispatcher and logger are required")
	}

	appLogger := &zapLoggerAdapter{logger: deps.Logger}
	historyRepo := repository.NewHistoryRepository(deps.DB.DB, deps.Logger)

	// Metrics never fail, so they run ahead of the history write
	if deps.Metrics != nil {
		deps.Dispatcher.Subscribe(metricsHandlerName, deps.Metrics.HandleEvent, deps.Metrics.EventTypes()...)
	}

	recorder := service.NewHistoryRecorder(historyRepo, appLogger)
	deps.Dispatcher.Subscribe(historyHandlerName, recorder.Handle, event.TypeActionHandled)

	return service.NewVendingService(
		historyRepo,
		report.NewExcelWriter(deps.Logger),
		deps.Dispatcher,
		appLogger,
		service.WithMachineLogger(deps.Logger.Named("machine")),
	), nil
}
