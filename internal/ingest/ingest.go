package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm"
	processor "github.com/UVARAJAND/Receipt-Analyzer/internal/pipeline"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

// Processor runs the extraction pipeline over one file.
type Processor interface {
	Process(ctx context.Context, path string) (processor.Record, error)
}

// Result describes the outcome for one ingested path.
type Result struct {
	SourcePath   string
	DocumentID   int64
	Vendor       string
	Amount       float64
	HashHex      string
	Deduplicated bool
	Err          string
}

// Ingestor pushes local receipt files through the extraction pipeline and
// into the document store. Content hashes are tracked per Ingestor, so a
// duplicate file seen during the same run (or watch session) is skipped
// rather than stored twice.
type Ingestor struct {
	proc      Processor
	repo      repository.DocumentRepository
	uploadDir string
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]int64 // content hash hex -> document id
}

func NewIngestor(proc Processor, repo repository.DocumentRepository, uploadDir string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		proc:      proc,
		repo:      repo,
		uploadDir: uploadDir,
		logger:    logger,
		seen:      make(map[string]int64),
	}
}

// IngestPath processes a single file and stores the resulting document.
// The source file is copied (not moved) into the upload directory under
// <id><ext> once the insert succeeds.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{SourcePath: path}, common.WrapError(err, "resolve path")
	}
	out := Result{SourcePath: abs}

	ext := "." + constants.NormalizeExt(filepath.Ext(abs))
	if constants.MapExtToFormat(ext) == "" {
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedType, ext)
	}

	hashHex, err := hashFile(abs)
	if err != nil {
		return out, common.WrapError(err, "hash file")
	}
	out.HashHex = hashHex

	i.mu.Lock()
	if id, ok := i.seen[hashHex]; ok {
		i.mu.Unlock()
		out.DocumentID = id
		out.Deduplicated = true
		i.logger.Info("ingest.dedup", "path", abs, "id", id, "hash", hashHex)
		return out, nil
	}
	i.mu.Unlock()

	record, err := i.proc.Process(ctx, abs)
	if err != nil {
		return out, err
	}

	doc := &entity.Document{
		Vendor:    record.VendorName,
		Data:      record.Description,
		Amount:    record.Amount,
		Category:  record.Category,
		CreatedAt: llm.ParseTxDate(record.Date),
	}
	inserted, err := i.repo.Insert(ctx, doc)
	if err != nil {
		return out, err
	}
	out.DocumentID = inserted.ID
	out.Vendor = inserted.Vendor
	out.Amount = inserted.Amount

	i.mu.Lock()
	i.seen[hashHex] = inserted.ID
	i.mu.Unlock()

	if err := i.copyToUploads(abs, inserted.ID, ext); err != nil {
		i.logger.Warn("ingest.copy failed", "path", abs, "id", inserted.ID, "error", err)
	}

	i.logger.Info("ingest.ok", "path", abs, "id", inserted.ID, "vendor", inserted.Vendor)
	return out, nil
}

func (i *Ingestor) copyToUploads(src string, id int64, ext string) error {
	if i.uploadDir == "" {
		return nil
	}
	if err := os.MkdirAll(i.uploadDir, 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dst := filepath.Join(i.uploadDir, fmt.Sprintf("%d%s", id, ext))
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
