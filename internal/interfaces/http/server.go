// Package http provides the HTTP adapter for the application layer.
// It translates requests into application service calls and maps the
// service error taxonomy onto status codes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unifound/lostfound/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		Mode:         gin.ReleaseMode,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the HTTP layer exposes
type Services struct {
	Requests   service.RequestService
	Queries    service.QueryService
	Items      service.ItemService
	Evidence   service.EvidenceService
	Screenings service.ScreeningService
	Releases   service.ReleaseService
	Directory  service.DirectoryService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     Logger
}

// NewServer builds the router over the given services. Call Start to
// begin serving.
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	s := &Server{
		config: config,
		router: gin.New(),
		logger: logger,
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(NewHandlers(services, logger))

	return s
}

// requestLogger logs one line per request with status and latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) registerRoutes(h *Handlers) {
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.PUT("/requests/:id", h.UpdateRequest)
		api.POST("/requests/:id/approve", h.ApproveRequest)
		api.POST("/requests/:id/reject", h.RejectRequest)
		api.POST("/requests/:id/cancel", h.CancelRequest)
		api.POST("/requests/:id/confirm-pickup", h.ConfirmPickup)
		api.POST("/requests/:id/actions", h.RecordAction)
		api.GET("/requests/:id/history", h.GetHistory)
		api.POST("/requests/:id/evidence", h.UploadEvidence)
		api.GET("/requests/:id/evidence", h.ListEvidence)
		api.GET("/requests/:id/screening", h.GetScreening)
		api.GET("/requests/:id/release", h.GetReleaseForm)
		api.GET("/requests/:id/release/file", h.DownloadReleaseForm)

		api.POST("/items", h.ReportItem)
		api.GET("/items", h.ListItems)
		api.GET("/items/:id", h.GetItem)
		api.PUT("/items/:id", h.UpdateItem)
		api.GET("/items/:id/matches", h.ListMatches)

		api.GET("/enterprises", h.ListEnterprises)
		api.GET("/organizations", h.ListOrganizations)
	}
}

// Start serves until ctx is cancelled or the listener fails. The port
// is bound before the serving goroutine starts, so an unavailable
// address fails the call immediately.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", "address", addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		s.logger.Error("HTTP server failed", "error", err)
		return err
	}
}

// shutdown drains in-flight requests for up to ten seconds.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("HTTP server draining")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
