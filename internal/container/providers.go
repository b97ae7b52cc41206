package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/jobrunner"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/reply"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/application/service"
	"github.com/garyjia/fintel-ai/internal/config"
	"github.com/garyjia/fintel-ai/internal/infrastructure/document"
	"github.com/garyjia/fintel-ai/internal/infrastructure/export"
	infraLark "github.com/garyjia/fintel-ai/internal/infrastructure/external/lark"
	"github.com/garyjia/fintel-ai/internal/infrastructure/external/openai"
	"github.com/garyjia/fintel-ai/internal/infrastructure/fixtures"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/repository"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/fintel-ai/internal/infrastructure/worker"
	"github.com/garyjia/fintel-ai/pkg/database"
)

// DatabaseBundle holds the connection and the transaction manager built on it
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds the optional outside integrations and file handling
type ExternalBundle struct {
	Responder reply.Responder
	Alerts    port.AlertSender
	Inspector *document.Inspector
	Exporter  *export.Workbook
	Importer  *export.HSNImporter
}

// ProvideDatabase opens the store, applies the embedded migrations and
// loads the fixture datasets into it
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, set *fixtures.Set, logger *zap.Logger) (*DatabaseBundle, error) {
	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(conn, logger).Run(database.Migrations())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	txMgr := sqlite.NewDB(conn.DB, logger)
	seeded, err := repository.NewSeeder(txMgr, logger).Seed(ctx, set)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to seed fixtures: %w", err)
	}
	logger.Info("Fixtures ready", zap.Bool("seeded", seeded))

	return &DatabaseBundle{Conn: conn, TransactionMgr: txMgr}, nil
}

// ProvideRepositories creates all repositories over the transaction manager
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Invoice: repository.NewInvoiceRepository(db, logger),
		Anomaly: repository.NewAnomalyRepository(db, logger),
		Vendor:  repository.NewVendorRepository(db, logger),
		Report:  repository.NewReportRepository(db, logger),
		HSN:     repository.NewHSNRepository(db, logger),
	}
}

// ProvideExternal builds the chat responder, the alert sink and the file
// handlers. The OpenAI responder and the Lark sink are only created when configured.
func ProvideExternal(cfg *config.Config, logger *zap.Logger) (*ExternalBundle, error) {
	bundle := &ExternalBundle{
		Responder: reply.Canned{},
		Exporter:  export.NewWorkbook(logger),
		Importer:  export.NewHSNImporter(logger),
		Inspector: document.NewInspector(document.Config{
			MaxSizeBytes:      cfg.Uploads.MaxSizeMB << 20,
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
		}, logger),
	}

	if cfg.Chat.Provider == config.ProviderOpenAI {
		prompts, err := openai.LoadPrompts()
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		responder, err := openai.NewResponder(openai.Config{
			APIKey:  cfg.Chat.APIKey,
			Model:   cfg.Chat.Model,
			BaseURL: cfg.Chat.BaseURL,
		}, prompts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat responder: %w", err)
		}
		bundle.Responder = responder
	}
	logger.Info("Chat responder ready", zap.String("responder", bundle.Responder.Name()))

	if cfg.Lark.Enabled {
		sender, err := infraLark.NewAlertSender(infraLark.Config{
			AppID:         cfg.Lark.AppID,
			AppSecret:     cfg.Lark.AppSecret,
			ReceiveIDType: cfg.Lark.ReceiveIDType,
			ReceiveID:     cfg.Lark.ReceiveID,
			BaseURL:       cfg.Lark.BaseURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create lark alert sender: %w", err)
		}
		bundle.Alerts = sender
		logger.Info("Lark alerts enabled")
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher with a zap-backed logger
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}))
}

// ServiceDeps holds what ProvideServices needs
type ServiceDeps struct {
	Config     *config.Config
	Fixtures   *fixtures.Set
	Repos      *RepositoryBundle
	External   *ExternalBundle
	Dispatcher dispatcher.Dispatcher
	Scheduler  scheduler.Scheduler
	Logger     *zap.Logger
}

// ProvideServices creates the session registry and every application service,
// and subscribes the notification handlers
func ProvideServices(deps *ServiceDeps) *ServiceBundle {
	cfg := deps.Config
	publisher := dispatcher.AsPublisher(deps.Dispatcher)
	logger := &zapLoggerAdapter{logger: deps.Logger}

	var injector jobrunner.FailureInjector
	if len(cfg.Uploads.FailNames) > 0 {
		injector = jobrunner.FailNamed(cfg.Uploads.FailNames...)
	}

	sessions := service.NewSessionRegistry(deps.Scheduler, publisher, deps.External.Responder, service.SessionConfig{
		Jobs:      cfg.Jobs,
		Seeds:     deps.Fixtures.Uploads,
		MaxToasts: cfg.Sessions.MaxToasts,
		Injector:  injector,
	}, deps.Logger)

	notifications := service.NewNotificationService(sessions, deps.Dispatcher, deps.External.Alerts, logger)
	notifications.Register()

	return &ServiceBundle{
		Sessions:      sessions,
		Notifications: notifications,
		Dashboard:     service.NewDashboardService(deps.Fixtures.Dashboard, deps.Repos.Anomaly, logger),
		Explorer:      service.NewExplorerService(deps.Repos.Invoice, deps.External.Exporter, cfg.Risk, logger),
		Anomaly:       service.NewAnomalyService(deps.Repos.Anomaly, deps.Fixtures.RiskyVendors, cfg.Risk, logger),
		Vendor:        service.NewVendorService(deps.Repos.Vendor, deps.External.Exporter, cfg.Risk, logger),
		Report:        service.NewReportService(deps.Repos.Report, deps.Fixtures.ReportInsights, publisher, logger),
		Settings: service.NewSettingsService(deps.Fixtures.Settings, deps.Fixtures.HSN.TotalCodes,
			deps.Repos.HSN, deps.External.Importer, publisher, logger),
	}
}

// ProvideWorkers registers the scheduler loop and the idle session reaper
func ProvideWorkers(sched *scheduler.RealScheduler, sessions *service.SessionRegistry, cfg *config.SessionsConfig, logger *zap.Logger) *worker.Manager {
	m := worker.NewManager(logger)
	m.Register(sched)
	m.Register(worker.NewSessionReaper(sessions, cfg.TTL, cfg.SweepInterval, logger))
	return m
}
