package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/export"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm/openai"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/ocr"
	processor "github.com/UVARAJAND/Receipt-Analyzer/internal/pipeline"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := repository.Migrate(ctx, db, cfg.Database.Driver, logger); err != nil {
		logger.Error("running migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.HealthCheck(ctx, db, logger); err != nil {
		logger.Error("database health check", "error", err)
		os.Exit(1)
	}

	repo := repository.NewDocumentRepository(db, cfg.Database.Driver, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		MinPDFTextLen: cfg.OCR.MinPDFTextLen,
		HeicConverter: cfg.OCR.HeicConverter,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Structured:  cfg.LLM.Structured,
	}, logger)

	proc := processor.NewProcessor(extractor, llmClient, logger)
	exporter := export.NewService(repo, logger)

	ping := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, db, logger)
	}
	srv := server.NewServer(cfg.Server, repo, proc, exporter, ping, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down http server", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
