package server

import (
    "context"
    "log/slog"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/config"
    "github.com/jambo-bank/jambo_bank/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
    app *fiber.App
    cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(deps routes.Deps) (*Server, error) {
    app := fiber.New(fiber.Config{
        AppName:      deps.Cfg.AppName,
        ReadTimeout:  30 * time.Second,
        WriteTimeout: 30 * time.Second,
        ErrorHandler: routes.ErrorHandler(deps.Logger),
    })

    if err := routes.Setup(app, deps); err != nil {
        return nil, err
    }

    return &Server{app: app, cfg: deps.Cfg}, nil
}

// App exposes the underlying Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
    return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
    return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
    return s.app.ShutdownWithContext(ctx)
}

// Logger returns a logger annotated with the application name.
func Logger(base *slog.Logger, cfg config.Config) *slog.Logger {
    return base.With("app", cfg.AppName, "env", cfg.AppEnv)
}
