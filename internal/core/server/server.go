package server

import (
	"context"
	"fmt"
	"time"

	"freightdesk/internal/core/config"
	"freightdesk/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "freightdesk/docs/swagger"
)

// maxUploadBytes bounds request bodies, which carry document uploads.
const maxUploadBytes = 25 * 1024 * 1024

// shutdownTimeout bounds how long in-flight requests may finish on stop.
const shutdownTimeout = 10 * time.Second

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
}

// New creates a new Server instance with configured middleware.
func New(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "freightdesk",
		BodyLimit:             maxUploadBytes,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Named("http"),
		Fields: []string{"requestId", "status", "method", "path", "latency", "ip"},
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	if cfg.Uploads.Dir != "" {
		app.Static("/files", cfg.Uploads.Dir)
	}

	return &Server{
		App: app,
		cfg: cfg,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.App.ShutdownWithTimeout(shutdownTimeout)
}

// Serve runs the server until ctx is done, then shuts it down. It returns
// the listen error, or the shutdown error after a clean stop.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Get().Info("Shutting down", zap.Duration("timeout", shutdownTimeout))
		if err := s.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}
