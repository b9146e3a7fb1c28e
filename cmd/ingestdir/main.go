package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/ingest"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm/openai"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/ocr"
	processor "github.com/UVARAJAND/Receipt-Analyzer/internal/pipeline"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

// ingestdir bulk-loads receipts from a directory, optionally staying resident
// and watching for new files.
func main() {
	root := flag.String("root", "", "directory to ingest (required)")
	watch := flag.Bool("watch", false, "keep watching the directory after the initial scan")
	skipHidden := flag.Bool("skip-hidden", true, "skip hidden files and directories")
	debounce := flag.Duration("debounce", 500*time.Millisecond, "watch event debounce window")
	workers := flag.Int("workers", 4, "concurrent ingest workers in watch mode")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *root == "" {
		logger.Error("usage", "cmd", "ingestdir -root <dir> [-watch]")
		os.Exit(2)
	}

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
	defer db.Close()
	if err := repository.Migrate(ctx, db, cfg.Database.Driver, logger); err != nil {
		logger.Error("running migrations", "error", err)
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

	ing := ingest.NewIngestor(proc, repo, cfg.Server.UploadDir, logger)

	_, stats, err := ing.IngestDirectory(ctx, *root, *skipHidden)
	if err != nil {
		logger.Error("directory ingest failed", "root", *root, "error", err)
		os.Exit(1)
	}
	logger.Info("directory ingest done",
		"root", *root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)

	if !*watch {
		return
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{*root},
		Debounce: *debounce,
	}, logger)
	if err != nil {
		logger.Error("starting watcher", "root", *root, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for new receipts", "root", *root, "workers", *workers)

	queue := ingest.NewQueue(ing, logger, ingest.WithWorkers(*workers))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher stopped")
			drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			queue.Shutdown(drainCtx)
			cancel()
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			_ = queue.Enqueue(ctx, ingest.Job{Path: path, SubmittedAt: time.Now()})
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Warn("watch error", "error", err)
			}
		}
	}
}
