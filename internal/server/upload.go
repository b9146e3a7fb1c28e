package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm"
)

// handleUpload accepts a receipt file, extracts its fields and stores the
// resulting document. The file lands under a staging name first and is only
// renamed to <id><ext> after the database insert succeeds, so a failed
// extraction never leaves an orphaned upload behind.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fmt.Errorf("%w: file is required", common.ErrInvalidInput))
	}

	ext := "." + constants.NormalizeExt(filepath.Ext(fileHeader.Filename))
	if constants.MapExtToFormat(ext) == "" {
		return errorJSON(c, fmt.Errorf("%w: %q", common.ErrUnsupportedType, ext))
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return errorJSON(c, common.WrapError(err, "create upload dir"))
	}

	stagingPath := filepath.Join(s.cfg.UploadDir, "staging-"+uuid.NewString()+ext)
	if err := c.SaveFile(fileHeader, stagingPath); err != nil {
		return errorJSON(c, common.WrapError(err, "save upload"))
	}

	record, err := s.processor.Process(c.Context(), stagingPath)
	if err != nil {
		s.removeStaging(stagingPath)
		s.logger.Error("upload.process failed", "filename", fileHeader.Filename, "error", err)
		return errorJSON(c, err)
	}

	doc := &entity.Document{
		Vendor:    record.VendorName,
		Data:      record.Description,
		Amount:    record.Amount,
		Category:  record.Category,
		CreatedAt: llm.ParseTxDate(record.Date),
	}
	inserted, err := s.repo.Insert(c.Context(), doc)
	if err != nil {
		s.removeStaging(stagingPath)
		return errorJSON(c, err)
	}

	finalPath := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%d%s", inserted.ID, ext))
	if err := os.Rename(stagingPath, finalPath); err != nil {
		s.logger.Error("upload.commit rename failed", "id", inserted.ID, "error", err)
	}

	s.logger.Info("upload.ok",
		"id", inserted.ID,
		"filename", fileHeader.Filename,
		"vendor", inserted.Vendor,
		"amount", inserted.Amount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "document processed successfully",
		"id":             inserted.ID,
		"extracted_data": record,
	})
}

func (s *Server) removeStaging(path string) {
	if err := os.Remove(path); err != nil {
		s.logger.Warn("upload.staging cleanup failed", "path", path, "error", err)
	}
}
