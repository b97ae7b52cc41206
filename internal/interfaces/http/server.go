// Package http exposes the dashboard services over gin. Handlers translate
// requests into service calls and wrap results in the Response envelope.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/service"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MaxUploadBytes  int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"*"},
		MaxUploadBytes:  20 << 20,
	}
}

// HealthFunc reports overall health plus a component breakdown
type HealthFunc func(ctx context.Context) (bool, interface{})

// Deps are the services behind the routes
type Deps struct {
	Sessions      *service.SessionRegistry
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
	Explorer      *service.ExplorerService
	Anomaly       *service.AnomalyService
	Vendor        *service.VendorService
	Report        *service.ReportService
	Settings      *service.SettingsService
	Inspector     port.DocumentInspector
	Dispatcher    dispatcher.Dispatcher
	Health        HealthFunc
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	events     *EventStream
	logger     *zap.Logger
}

// NewServer creates the router with middleware and routes
func NewServer(cfg ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		handlers: NewHandlers(deps, cfg.MaxUploadBytes, logger),
		events:   NewEventStream(deps.Sessions, deps.Dispatcher, cfg.AllowedOrigins, logger),
		logger:   logger,
	}

	s.router.Use(recoveryMiddleware(logger), requestIDMiddleware(), loggingMiddleware(logger), corsMiddleware(cfg.AllowedOrigins))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1", sessionMiddleware(h.deps.Sessions))

	api.GET("/routes", h.ListRoutes)
	api.GET("/dashboard", h.GetDashboard)

	api.GET("/invoices", h.SearchInvoices)
	api.GET("/invoices/export", h.ExportInvoices)
	api.GET("/invoices/:invoiceNo", h.GetInvoice)

	api.GET("/anomalies", h.ListAnomalies)
	api.GET("/anomalies/stats", h.AnomalyStats)
	api.GET("/anomalies/risky-vendors", h.RiskyVendors)

	api.GET("/vendors", h.ListVendors)
	api.GET("/vendors/summary", h.VendorSummary)
	api.GET("/vendors/distribution", h.VendorDistribution)
	api.GET("/vendors/export", h.ExportVendors)

	api.GET("/reports", h.ListReports)
	api.POST("/reports/generate", h.GenerateReport)
	api.POST("/reports/:id/download", h.DownloadReport)

	api.POST("/uploads", h.SubmitUploads)
	api.GET("/uploads", h.ListUploads)
	api.GET("/uploads/:id", h.GetUpload)
	api.DELETE("/uploads/:id/task", h.CancelUpload)

	api.POST("/chat/messages", h.SubmitChatMessage)
	api.GET("/chat/messages", h.GetConversation)

	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.SaveSettings)
	api.GET("/settings/hsn", h.GetHSN)
	api.POST("/settings/hsn", h.ImportHSN)

	api.GET("/notifications", h.DrainNotifications)
	api.DELETE("/session", h.CloseSession)
	api.GET("/events/ws", s.events.Handle)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", s.Address()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server and closes open event streams
func (s *Server) Stop() error {
	s.events.CloseAll()
	if s.httpServer == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
