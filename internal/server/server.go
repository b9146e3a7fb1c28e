package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/export"
	processor "github.com/UVARAJAND/Receipt-Analyzer/internal/pipeline"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

// Server wires the upload pipeline, the repository and the export service
// behind the HTTP surface.
type Server struct {
	cfg       common.ServerConfig
	repo      repository.DocumentRepository
	processor *processor.Processor
	exporter  *export.Service
	ping      func(ctx context.Context) error
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer wires the handlers. ping is the database liveness probe behind
// GET /health; nil skips the probe.
func NewServer(
	cfg common.ServerConfig,
	repo repository.DocumentRepository,
	proc *processor.Processor,
	exporter *export.Service,
	ping func(ctx context.Context) error,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		repo:      repo,
		processor: proc,
		exporter:  exporter,
		ping:      ping,
		logger:    logger,
	}
	s.app = s.buildApp()
	return s
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", s.handleHealth)

	app.Post("/upload", s.handleUpload)
	app.Get("/documents", s.handleListDocuments)
	app.Get("/documents/:id", s.handleGetDocument)
	app.Put("/documents/:id", s.handleUpdateDocument)
	app.Delete("/documents/:id", s.handleDeleteDocument)
	app.Post("/filter_documents", s.handleFilterDocuments)
	app.Get("/download", s.handleDownload)
	app.Post("/download", s.handleDownload)

	app.Static("/uploads", s.cfg.UploadDir)

	return app
}

// App exposes the fiber application, mainly for tests driven through app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	s.logger.Info("http.listen", "addr", s.cfg.Addr, "upload_dir", s.cfg.UploadDir)
	return s.app.Listen(s.cfg.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.ping != nil {
		if err := s.ping(c.Context()); err != nil {
			s.logger.Error("health.db failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// statusForError maps domain sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrUnsupportedType):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{"detail": err.Error()})
}
