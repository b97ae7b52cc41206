// Package container wires the dashboard backend together and owns its
// lifecycle: ordered start, reverse-order teardown.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/application/service"
	"github.com/garyjia/fintel-ai/internal/config"
	"github.com/garyjia/fintel-ai/internal/infrastructure/fixtures"
	"github.com/garyjia/fintel-ai/internal/infrastructure/worker"
)

// Container manages all application dependencies and lifecycle
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Data
	fixtures     *fixtures.Set
	database     *DatabaseBundle
	repositories *RepositoryBundle

	// External
	external *ExternalBundle

	// Application
	dispatcher dispatcher.Dispatcher
	scheduler  *scheduler.RealScheduler
	services   *ServiceBundle

	workers *worker.Manager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories
type RepositoryBundle struct {
	Invoice port.InvoiceRepository
	Anomaly port.AnomalyRepository
	Vendor  port.VendorRepository
	Report  port.ReportRepository
	HSN     port.HSNRepository
}

// ServiceBundle groups the session registry and the application services
type ServiceBundle struct {
	Sessions      *service.SessionRegistry
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
	Explorer      *service.ExplorerService
	Anomaly       *service.AnomalyService
	Vendor        *service.VendorService
	Report        *service.ReportService
	Settings      *service.SettingsService
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container. Nothing is initialized until Start.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
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

// Start initializes components in dependency order:
// 1. Fixtures, database and repositories
// 2. External clients (chat responder, alert sink, file handlers)
// 3. Event dispatcher
// 4. Scheduler, sessions and services
// 5. Workers
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

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	external, err := ProvideExternal(c.config, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.external = external

	c.dispatcher = ProvideDispatcher(c.logger)

	c.scheduler = scheduler.NewRealScheduler(c.logger)
	c.services = ProvideServices(&ServiceDeps{
		Config:     c.config,
		Fixtures:   c.fixtures,
		Repos:      c.repositories,
		External:   c.external,
		Dispatcher: c.dispatcher,
		Scheduler:  c.scheduler,
		Logger:     c.logger,
	})
	c.logger.Info("Application services initialized")

	c.workers = ProvideWorkers(c.scheduler, c.services.Sessions, &c.config.Sessions, c.logger)
	if err := c.workers.StartAll(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	set, err := fixtures.Load()
	if err != nil {
		return fmt.Errorf("failed to load fixtures: %w", err)
	}
	c.fixtures = set

	db, err := ProvideDatabase(ctx, &c.config.Database, set, c.logger)
	if err != nil {
		return err
	}
	c.database = db
	c.repositories = ProvideRepositories(db.TransactionMgr, c.logger)
	return nil
}

// Close shuts components down in reverse order. Open sessions are closed
// first so their pending timers are cancelled and announced.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.logger.Info("Closing container")

	if c.services != nil {
		n := c.services.Sessions.CloseAll(ctx)
		c.logger.Info("Sessions closed", zap.Int("count", n))
	}

	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever Start managed to create. Callers hold c.mu.
func (c *Container) teardown() []error {
	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	} else if c.scheduler != nil {
		_ = c.scheduler.Stop()
	}

	if c.services != nil {
		c.services.Notifications.Wait()
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.database != nil {
		if err := c.database.Conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}
	return errs
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	if c.database == nil {
		set("database", false, "not initialized")
	} else if err := c.database.Conn.PingContext(ctx); err != nil {
		set("database", false, fmt.Sprintf("ping failed: %v", err))
	} else {
		set("database", true, "")
	}

	if c.workers == nil {
		set("workers", false, "not initialized")
	} else {
		set("workers", c.workers.IsRunning(), fmt.Sprintf("worker count: %d", c.workers.Count()))
	}

	if c.scheduler == nil {
		set("scheduler", false, "not initialized")
	} else {
		set("scheduler", true, fmt.Sprintf("pending tasks: %d", c.scheduler.Pending()))
	}

	if c.services == nil {
		set("sessions", false, "not initialized")
	} else {
		set("sessions", true, fmt.Sprintf("open sessions: %d", c.services.Sessions.Count()))
	}

	if c.external != nil {
		set("chat", true, c.external.Responder.Name())
		if c.external.Alerts != nil {
			set("alerts", true, "lark")
		}
	}

	return status
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// External returns the external integrations and file handlers
func (c *Container) External() *ExternalBundle {
	return c.external
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces of
// the dispatcher and the services
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields, skipping non-string keys
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
