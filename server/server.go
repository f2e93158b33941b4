// Package server is the fiber application of the task manager: pages behind
// the request gate, the JSON action endpoint and operational endpoints.
package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/actions"
	"github.com/goliatone/go-taskdesk/repository"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed views/*.html
var viewsFS embed.FS

// Dashboard is what the dashboard page reads
type Dashboard interface {
	ProjectsForOrg(ctx context.Context, orgID int64) ([]repository.Project, error)
	TasksForOrg(ctx context.Context, orgID int64) ([]repository.Task, error)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server wires the gate, the pages and the action endpoint
type Server struct {
	app       *fiber.App
	gate      *taskdesk.Gate
	actions   actions.JSONActions
	dashboard Dashboard
	gatherer  prometheus.Gatherer
	checks    map[string]HealthCheck
	logger    taskdesk.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger taskdesk.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDashboard sets the data source of the dashboard page
func WithDashboard(d Dashboard) Option {
	return func(s *Server) {
		s.dashboard = d
	}
}

// WithGatherer exposes the given registry on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHealthCheck adds a named check to /healthz
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks[name] = check
		}
	}
}

// New creates the application. gate is required.
func New(gate *taskdesk.Gate, jsonActions actions.JSONActions, opts ...Option) (*Server, error) {
	s := &Server{
		gate:     gate,
		actions:  jsonActions,
		gatherer: prometheus.DefaultGatherer,
		checks:   map[string]HealthCheck{},
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "taskdesk",
		Views:                 django.NewFileSystem(http.FS(views), ".html"),
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	s.routes()

	return s, nil
}

// App returns the fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Use(recover.New())

	// Operational and JSON endpoints sit in front of the gate: they never
	// redirect and never consume pending payloads.
	s.app.Get("/healthz", s.healthz)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.app.Post("/_actions/:name", s.runAction)

	s.app.Use(s.gate.Middleware())

	s.app.Get("/", s.index)
	s.app.All("/login", s.page("login", "Connexion"))
	s.app.All("/signup", s.page("signup", "Inscription"))
	s.app.All("/dashboard", s.dashboardPage)
	s.app.All("/dashboard/*", s.dashboardPage)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := taskdesk.MessageOperationFailed

	if ferr, ok := err.(*fiber.Error); ok {
		code = ferr.Code
		message = ferr.Message
	} else {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(code).SendString(message)
}
