package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

// Format names accepted by Export.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatExcel = "excel"
)

const baseFilename = "filtered_receipts"

// Result carries the rendered file plus the metadata the HTTP layer needs
// to build the attachment response.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service renders filtered documents into downloadable files.
type Service struct {
	repo   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(repo repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Export runs the filter without paging and renders every match in the
// requested format. An empty result set reports ErrNotFound so callers can
// answer 404 instead of shipping an empty file.
func (s *Service) Export(ctx context.Context, format string, filter entity.DocumentFilter) (*Result, error) {
	start := time.Now()

	docs, _, err := s.repo.Filter(ctx, filter, 0, repository.DefaultFilterLimit)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents match the given filters", common.ErrNotFound)
	}

	var res *Result
	switch strings.ToLower(format) {
	case FormatCSV:
		res, err = renderCSV(docs)
	case FormatJSON:
		res, err = renderJSON(docs)
	case FormatExcel:
		res, err = renderXLSX(docs)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", common.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.ok",
		"format", format,
		"rows", len(docs),
		"bytes", len(res.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

var exportHeaders = []string{"vendor", "date", "amount", "category"}

func renderCSV(docs []*entity.Document) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, d := range docs {
		row := []string{
			d.Vendor,
			d.CreatedAt.Format("2006-01-02"),
			strconv.FormatFloat(d.Amount, 'f', 2, 64),
			d.Category,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return &Result{
		Filename:    baseFilename + ".csv",
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func renderJSON(docs []*entity.Document) (*Result, error) {
	type row struct {
		Vendor   string  `json:"vendor"`
		Date     string  `json:"date"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
	}
	rows := make([]row, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, row{
			Vendor:   d.Vendor,
			Date:     d.CreatedAt.Format("2006-01-02"),
			Amount:   d.Amount,
			Category: d.Category,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return &Result{
		Filename:    baseFilename + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func renderXLSX(docs []*entity.Document) (*Result, error) {
	f := excelize.NewFile()
	const sheet = "Receipts"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	for rowIdx, d := range docs {
		values := []any{
			d.Vendor,
			d.CreatedAt.Format("2006-01-02"),
			d.Amount,
			d.Category,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return &Result{
		Filename:    baseFilename + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
