package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
)

type stubRepo struct {
	docs []*entity.Document
	err  error
}

func (s *stubRepo) Insert(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	return doc, nil
}

func (s *stubRepo) List(ctx context.Context, offset, limit int) ([]*entity.Document, error) {
	return s.docs, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	return nil, common.ErrNotFound
}

func (s *stubRepo) UpdateByID(ctx context.Context, id int64, doc *entity.Document) error {
	return nil
}

func (s *stubRepo) DeleteByID(ctx context.Context, id int64) error {
	return nil
}

func (s *stubRepo) Filter(ctx context.Context, f entity.DocumentFilter, offset, limit int) ([]*entity.Document, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.docs, len(s.docs), nil
}

func sampleDocs(t *testing.T) []*entity.Document {
	t.Helper()
	d1, _ := time.Parse("2006-01-02", "2024-01-15")
	d2, _ := time.Parse("2006-01-02", "2024-02-01")
	return []*entity.Document{
		{ID: 2, Vendor: "Metro Transit", Data: "monthly pass", Amount: 90, Category: "Transport", CreatedAt: d2},
		{ID: 1, Vendor: "Acme Corp", Data: "coffee beans", Amount: 42.5, Category: "Food", CreatedAt: d1},
	}
}

func TestExportCSV(t *testing.T) {
	svc := NewService(&stubRepo{docs: sampleDocs(t)}, nil)

	res, err := svc.Export(context.Background(), "csv", entity.DocumentFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Filename != "filtered_receipts.csv" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.ContentType != "text/csv" {
		t.Errorf("content type = %q", res.ContentType)
	}

	rows, err := csv.NewReader(bytes.NewReader(res.Data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "vendor,date,amount,category" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Metro Transit" || rows[1][2] != "90.00" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][1] != "2024-01-15" || rows[2][3] != "Food" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestExportJSON(t *testing.T) {
	svc := NewService(&stubRepo{docs: sampleDocs(t)}, nil)

	res, err := svc.Export(context.Background(), "json", entity.DocumentFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Filename != "filtered_receipts.json" {
		t.Errorf("filename = %q", res.Filename)
	}

	var rows []map[string]any
	if err := json.Unmarshal(res.Data, &rows); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["vendor"] != "Acme Corp" || rows[1]["amount"] != 42.5 {
		t.Errorf("row = %v", rows[1])
	}
	if _, ok := rows[0]["id"]; ok {
		t.Error("id should not be exported")
	}
}

func TestExportExcel(t *testing.T) {
	svc := NewService(&stubRepo{docs: sampleDocs(t)}, nil)

	res, err := svc.Export(context.Background(), "excel", entity.DocumentFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Filename != "filtered_receipts.xlsx" {
		t.Errorf("filename = %q", res.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "vendor" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][0] != "Acme Corp" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestExportEmptyResult(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	_, err := svc.Export(context.Background(), "csv", entity.DocumentFilter{Vendor: "nobody"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(&stubRepo{docs: sampleDocs(t)}, nil)

	_, err := svc.Export(context.Background(), "pdf", entity.DocumentFilter{})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
