package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/export"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/ocr"
	processor "github.com/UVARAJAND/Receipt-Analyzer/internal/pipeline"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

type stubExtractor struct {
	fields llm.ReceiptFields
	err    error
}

func (s *stubExtractor) ExtractFields(ctx context.Context, text string) (llm.ReceiptFields, error) {
	if s.err != nil {
		return llm.ReceiptFields{}, s.err
	}
	return s.fields, nil
}

func newTestServer(t *testing.T, fields llm.FieldExtractor) (*Server, repository.DocumentRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := common.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		DialTimeout: 5 * time.Second,
	}
	db, err := repository.Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.Migrate(context.Background(), db, cfg.Driver, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := repository.NewDocumentRepository(db, cfg.Driver, logger)

	extractor := ocr.NewExtractor(ocr.Config{}, logger)
	proc := processor.NewProcessor(extractor, fields, logger)
	exporter := export.NewService(repo, logger)

	ping := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, db, logger)
	}
	srv := NewServer(common.ServerConfig{
		Addr:      ":0",
		UploadDir: t.TempDir(),
	}, repo, proc, exporter, ping, logger)
	return srv, repo
}

func seedDocument(t *testing.T, repo repository.DocumentRepository, vendor string, amount float64, category, date string) *entity.Document {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	doc, err := repo.Insert(context.Background(), &entity.Document{
		Vendor:    vendor,
		Data:      "seeded",
		Amount:    amount,
		Category:  category,
		CreatedAt: d.UTC(),
	})
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	return doc
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{})
	resp := doJSON(t, srv, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestUploadTextReceipt(t *testing.T) {
	fields := llm.ReceiptFields{
		Vendor:      "Acme Corp",
		Date:        "2024-01-15",
		Amount:      "$42.00",
		Category:    "Food",
		Description: "coffee order",
	}
	srv, _ := newTestServer(t, &stubExtractor{fields: fields})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "receipt.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fmt.Fprint(part, "Acme Corp\n2024-01-15\nTotal: $42.00")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var upload struct {
		ID        int64            `json:"id"`
		Message   string           `json:"message"`
		Extracted processor.Record `json:"extracted_data"`
	}
	decodeJSON(t, resp, &upload)
	if upload.ID == 0 {
		t.Fatal("expected a document id")
	}
	if upload.Extracted.VendorName != "Acme Corp" || upload.Extracted.Amount != 42.0 {
		t.Errorf("extracted = %+v", upload.Extracted)
	}

	getResp := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/documents/%d", upload.ID), nil)
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", getResp.StatusCode)
	}
	var doc documentResponse
	decodeJSON(t, getResp, &doc)
	if doc.Vendor != "Acme Corp" {
		t.Errorf("vendor = %q", doc.Vendor)
	}
	if doc.Amount != 42.0 {
		t.Errorf("amount = %v", doc.Amount)
	}
	if doc.Date != "2024-01-15" {
		t.Errorf("date = %q", doc.Date)
	}

	finalPath := filepath.Join(srv.cfg.UploadDir, fmt.Sprintf("%d.txt", upload.ID))
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("expected committed upload at %s: %v", finalPath, err)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "receipt.docx")
	fmt.Fprint(part, "not supported")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadCleansStagingOnExtractionFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{err: common.ErrExtraction})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "receipt.txt")
	fmt.Fprint(part, "some text")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	entries, err := os.ReadDir(srv.cfg.UploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload dir not cleaned, found %d entries", len(entries))
	}
}

func TestDocumentCRUD(t *testing.T) {
	srv, repo := newTestServer(t, &stubExtractor{})
	doc := seedDocument(t, repo, "Acme Corp", 42.5, "Food", "2024-01-15")
	seedDocument(t, repo, "Metro Transit", 90, "Transport", "2024-02-01")

	listResp := doJSON(t, srv, http.MethodGet, "/documents", nil)
	var listed []documentResponse
	decodeJSON(t, listResp, &listed)
	if len(listed) != 2 {
		t.Fatalf("listed %d documents, want 2", len(listed))
	}

	update := documentRequest{
		Vendor:   "Acme Coffee Co",
		Data:     "updated",
		Amount:   45,
		Category: "Food",
		Date:     "2024-01-16",
	}
	updResp := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/documents/%d", doc.ID), update)
	if updResp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", updResp.StatusCode)
	}
	var updated documentResponse
	decodeJSON(t, updResp, &updated)
	if updated.Vendor != "Acme Coffee Co" || updated.Date != "2024-01-16" {
		t.Errorf("updated = %+v", updated)
	}

	delResp := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/documents/%d", doc.ID), nil)
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}
	getResp := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/documents/%d", doc.ID), nil)
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", getResp.StatusCode)
	}
}

func TestDocumentNotFoundAndBadID(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{})

	resp := doJSON(t, srv, http.MethodGet, "/documents/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, srv, http.MethodGet, "/documents/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", resp.StatusCode)
	}
}

func TestFilterDocuments(t *testing.T) {
	srv, repo := newTestServer(t, &stubExtractor{})
	seedDocument(t, repo, "Acme Corp", 42.5, "Food", "2024-01-15")
	seedDocument(t, repo, "Metro Transit", 90, "Transport", "2024-02-01")
	seedDocument(t, repo, "Acme Pharmacy", 12.99, "Health", "2024-02-20")

	resp := doJSON(t, srv, http.MethodPost, "/filter_documents", filterRequest{Vendor: "acme"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Total     int                `json:"total"`
		Documents []documentResponse `json:"documents"`
	}
	decodeJSON(t, resp, &body)
	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	if len(body.Documents) != 2 || body.Documents[0].Vendor != "Acme Pharmacy" {
		t.Errorf("documents = %+v", body.Documents)
	}

	resp = doJSON(t, srv, http.MethodPost, "/filter_documents", filterRequest{StartDate: "bad-date"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", resp.StatusCode)
	}
}

func TestDownloadCSV(t *testing.T) {
	srv, repo := newTestServer(t, &stubExtractor{})
	seedDocument(t, repo, "Acme Corp", 42.5, "Food", "2024-01-15")

	resp := doJSON(t, srv, http.MethodGet, "/download?format=csv&vendor=acme", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="filtered_receipts.csv"` {
		t.Errorf("content disposition = %q", got)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("Acme Corp")) {
		t.Errorf("csv body = %s", data)
	}
}

func TestDownloadPostBodyFilter(t *testing.T) {
	srv, repo := newTestServer(t, &stubExtractor{})
	seedDocument(t, repo, "Acme Corp", 42.5, "Food", "2024-01-15")
	seedDocument(t, repo, "Metro Transit", 90, "Transport", "2024-02-01")

	resp := doJSON(t, srv, http.MethodPost, "/download?format=csv", filterRequest{Vendor: "acme"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("Acme Corp")) {
		t.Errorf("csv body = %s", data)
	}
	if bytes.Contains(data, []byte("Metro Transit")) {
		t.Errorf("body filter ignored, csv includes non-matching vendor: %s", data)
	}
}

func TestDownloadNoMatches(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{})

	resp := doJSON(t, srv, http.MethodGet, "/download?format=csv", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownloadBadFormat(t *testing.T) {
	srv, repo := newTestServer(t, &stubExtractor{})
	seedDocument(t, repo, "Acme Corp", 42.5, "Food", "2024-01-15")

	resp := doJSON(t, srv, http.MethodGet, "/download?format=pdf", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
