package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
)

func newTestRepo(t *testing.T) DocumentRepository {
	t.Helper()
	cfg := common.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		DialTimeout: 5 * time.Second,
	}
	db, err := Open(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(context.Background(), db, cfg.Driver, slog.Default()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDocumentRepository(db, cfg.Driver, slog.Default())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return ts.UTC()
}

func seedDocuments(t *testing.T, repo DocumentRepository) []*entity.Document {
	t.Helper()
	seed := []*entity.Document{
		{Vendor: "Acme Corp", Data: "coffee beans", Amount: 42.50, Category: "Food", CreatedAt: day(t, "2024-01-15")},
		{Vendor: "Metro Transit", Data: "monthly pass", Amount: 90.00, Category: "Transport", CreatedAt: day(t, "2024-02-01")},
		{Vendor: "Acme Pharmacy", Data: "vitamins", Amount: 12.99, Category: "Health", CreatedAt: day(t, "2024-02-20")},
		{Vendor: "PowerGrid Inc", Data: "electricity bill", Amount: 130.10, Category: "Utilities", CreatedAt: day(t, "2024-03-05")},
	}
	out := make([]*entity.Document, 0, len(seed))
	for _, doc := range seed {
		inserted, err := repo.Insert(context.Background(), doc)
		if err != nil {
			t.Fatalf("insert %q: %v", doc.Vendor, err)
		}
		out = append(out, inserted)
	}
	return out
}

func TestInsertAndGetByID(t *testing.T) {
	repo := newTestRepo(t)
	in := &entity.Document{
		Vendor:    "Acme Corp",
		Data:      "coffee beans",
		Amount:    42.50,
		Category:  "Food",
		CreatedAt: day(t, "2024-01-15"),
	}
	inserted, err := repo.Insert(context.Background(), in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("expected a generated id")
	}

	got, err := repo.GetByID(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Vendor != in.Vendor || got.Data != in.Data || got.Amount != in.Amount || got.Category != in.Category {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo)

	page, err := repo.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(page))
	}
	if page[0].Vendor != "Metro Transit" || page[1].Vendor != "Acme Pharmacy" {
		t.Errorf("unexpected page order: %q, %q", page[0].Vendor, page[1].Vendor)
	}
}

func TestUpdateByID(t *testing.T) {
	repo := newTestRepo(t)
	docs := seedDocuments(t, repo)

	target := docs[0]
	target.Vendor = "Acme Coffee Co"
	target.Amount = 45.00
	if err := repo.UpdateByID(context.Background(), target.ID, target); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Vendor != "Acme Coffee Co" || got.Amount != 45.00 {
		t.Errorf("update not applied: %+v", got)
	}

	if err := repo.UpdateByID(context.Background(), 999, target); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	repo := newTestRepo(t)
	docs := seedDocuments(t, repo)

	if err := repo.DeleteByID(context.Background(), docs[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), docs[1].ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteByID(context.Background(), docs[1].ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo)

	minAmt := func(v float64) *float64 { return &v }
	datePtr := func(s string) *time.Time {
		d := day(t, s)
		return &d
	}

	tests := []struct {
		name        string
		filter      entity.DocumentFilter
		wantVendors []string
		wantTotal   int
	}{
		{
			name:        "no criteria returns everything newest first",
			filter:      entity.DocumentFilter{},
			wantVendors: []string{"PowerGrid Inc", "Acme Pharmacy", "Metro Transit", "Acme Corp"},
			wantTotal:   4,
		},
		{
			name:        "vendor substring is case insensitive",
			filter:      entity.DocumentFilter{Vendor: "acme"},
			wantVendors: []string{"Acme Pharmacy", "Acme Corp"},
			wantTotal:   2,
		},
		{
			name:        "category substring",
			filter:      entity.DocumentFilter{Category: "trans"},
			wantVendors: []string{"Metro Transit"},
			wantTotal:   1,
		},
		{
			name:        "date range is inclusive",
			filter:      entity.DocumentFilter{StartDate: datePtr("2024-02-01"), EndDate: datePtr("2024-02-20")},
			wantVendors: []string{"Acme Pharmacy", "Metro Transit"},
			wantTotal:   2,
		},
		{
			name:        "amount range is inclusive",
			filter:      entity.DocumentFilter{MinAmount: minAmt(42.50), MaxAmount: minAmt(90.00)},
			wantVendors: []string{"Metro Transit", "Acme Corp"},
			wantTotal:   2,
		},
		{
			name:        "combined criteria",
			filter:      entity.DocumentFilter{Vendor: "acme", MinAmount: minAmt(20)},
			wantVendors: []string{"Acme Corp"},
			wantTotal:   1,
		},
		{
			name:        "no matches",
			filter:      entity.DocumentFilter{Vendor: "nonexistent"},
			wantVendors: nil,
			wantTotal:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			docs, total, err := repo.Filter(context.Background(), tc.filter, 0, 0)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			if total != tc.wantTotal {
				t.Errorf("total = %d, want %d", total, tc.wantTotal)
			}
			if len(docs) != len(tc.wantVendors) {
				t.Fatalf("got %d documents, want %d", len(docs), len(tc.wantVendors))
			}
			for i, want := range tc.wantVendors {
				if docs[i].Vendor != want {
					t.Errorf("docs[%d].Vendor = %q, want %q", i, docs[i].Vendor, want)
				}
			}
		})
	}
}

func TestFilterTotalIgnoresPaging(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo)

	docs, total, err := repo.Filter(context.Background(), entity.DocumentFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(docs) != 2 {
		t.Errorf("page size = %d, want 2", len(docs))
	}
	if docs[0].Vendor != "Acme Pharmacy" {
		t.Errorf("docs[0].Vendor = %q, want %q", docs[0].Vendor, "Acme Pharmacy")
	}
}
