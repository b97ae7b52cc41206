package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/config"
	"github.com/garyjia/fintel-ai/internal/container"
	apihttp "github.com/garyjia/fintel-ai/internal/interfaces/http"
	"github.com/garyjia/fintel-ai/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file (empty for defaults)")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting FINTEL AI dashboard backend",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("chat_provider", cfg.Chat.Provider),
		zap.Bool("lark_alerts", cfg.Lark.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	server := apihttp.NewServer(serverConfig(cfg), buildDeps(c), logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Close(shutdownCtx); err != nil {
		logger.Error("Container shutdown error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func serverConfig(cfg *config.Config) apihttp.ServerConfig {
	return apihttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Mode:            cfg.Server.Mode,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxUploadBytes:  cfg.Uploads.MaxSizeMB << 20,
	}
}

func buildDeps(c *container.Container) apihttp.Deps {
	svc := c.Services()
	return apihttp.Deps{
		Sessions:      svc.Sessions,
		Notifications: svc.Notifications,
		Dashboard:     svc.Dashboard,
		Explorer:      svc.Explorer,
		Anomaly:       svc.Anomaly,
		Vendor:        svc.Vendor,
		Report:        svc.Report,
		Settings:      svc.Settings,
		Inspector:     c.External().Inspector,
		Dispatcher:    c.Dispatcher(),
		Health: func(ctx context.Context) (bool, interface{}) {
			h := c.Health(ctx)
			return h.Overall, h.Components
		},
	}
}
