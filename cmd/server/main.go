package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/config"
	"github.com/unifound/lostfound/internal/container"
	lfhttp "github.com/unifound/lostfound/internal/interfaces/http"
	"github.com/unifound/lostfound/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Pick up .env credentials before viper reads the environment
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logging.Level,
		OutputPath: cfg.Logging.OutputPath,
		Format:     cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting lost-and-found coordination service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	app, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	// Cancelled on SIGINT/SIGTERM; everything downstream hangs off it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	services := app.Services()
	httpServer := lfhttp.NewServer(lfhttp.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Mode:         cfg.Server.Mode,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, lfhttp.Services{
		Requests:   services.Requests,
		Queries:    services.Queries,
		Items:      services.Items,
		Evidence:   services.Evidence,
		Screenings: services.Screenings,
		Releases:   services.Releases,
		Directory:  services.Directory,
	}, &zapHTTPLogger{sugar: logger.Sugar()})

	// Readiness probe backed by the container's component checks
	httpServer.Router().GET("/ready", func(c *gin.Context) {
		if !app.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
			return
		}
		health := app.Health()
		status := http.StatusOK
		if !health.Overall {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	// Blocks until the signal context is cancelled or the listener fails
	if err := httpServer.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Shutting down")

	if err := app.Close(); err != nil {
		logger.Error("Container close reported errors", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapHTTPLogger adapts zap to the HTTP server's logger interface.
type zapHTTPLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
