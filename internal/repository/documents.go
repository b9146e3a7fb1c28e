package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
)

// DefaultFilterLimit caps unpaginated filter queries (exports pass limit 0).
const DefaultFilterLimit = 2000

var documentColumns = []string{"id", "vendor", "data", "amount", "category", "created_at"}

type DocumentRepository interface {
	Insert(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	List(ctx context.Context, offset, limit int) ([]*entity.Document, error)
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	UpdateByID(ctx context.Context, id int64, doc *entity.Document) error
	DeleteByID(ctx context.Context, id int64) error
	Filter(ctx context.Context, f entity.DocumentFilter, offset, limit int) ([]*entity.Document, int, error)
}

type documentRepository struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, driver string, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholderFormat(driver)),
		logger: logger,
	}
}

func placeholderFormat(driver string) sq.PlaceholderFormat {
	if driver == "postgres" {
		return sq.Dollar
	}
	return sq.Question
}

func (r *documentRepository) Insert(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	query := r.sb.Insert("documents").
		Columns("vendor", "data", "amount", "category", "created_at").
		Values(doc.Vendor, doc.Data, doc.Amount, doc.Category, doc.CreatedAt).
		Suffix("RETURNING id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		r.logger.Error("failed to insert document", "vendor", doc.Vendor, "error", err)
		return nil, common.WrapError(err, "insert document")
	}
	out := *doc
	out.ID = id
	r.logger.Info("document inserted", "id", id, "vendor", out.Vendor, "amount", out.Amount)
	return &out, nil
}

func (r *documentRepository) List(ctx context.Context, offset, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.sb.Select(documentColumns...).
		From("documents").
		OrderBy("id").
		Offset(uint64(offset)).
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Error("failed to list documents", "error", err)
		return nil, common.WrapError(err, "list documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *documentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := r.sb.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc entity.Document
	err = r.db.QueryRowContext(ctx, sqlStr, args...).
		Scan(&doc.ID, &doc.Vendor, &doc.Data, &doc.Amount, &doc.Category, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document", "id", id, "error", err)
		return nil, common.WrapError(err, "get document")
	}
	return &doc, nil
}

// UpdateByID replaces every mutable field of the row. A missing id reports
// ErrNotFound rather than failing.
func (r *documentRepository) UpdateByID(ctx context.Context, id int64, doc *entity.Document) error {
	query := r.sb.Update("documents").
		Set("vendor", doc.Vendor).
		Set("data", doc.Data).
		Set("amount", doc.Amount).
		Set("category", doc.Category).
		Set("created_at", doc.CreatedAt).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Error("failed to update document", "id", id, "error", err)
		return common.WrapError(err, "update document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "update document rows affected")
	}
	if n == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("document updated", "id", id)
	return nil
}

func (r *documentRepository) DeleteByID(ctx context.Context, id int64) error {
	query := r.sb.Delete("documents").Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Error("failed to delete document", "id", id, "error", err)
		return common.WrapError(err, "delete document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "delete document rows affected")
	}
	if n == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("document deleted", "id", id)
	return nil
}

// Filter applies whichever criteria are present, combined with AND, and
// returns the page plus the total matching count independent of paging.
func (r *documentRepository) Filter(ctx context.Context, f entity.DocumentFilter, offset, limit int) ([]*entity.Document, int, error) {
	if limit <= 0 {
		limit = DefaultFilterLimit
	}
	conds := filterConditions(f)

	countQuery := r.sb.Select("COUNT(*)").From("documents")
	for _, c := range conds {
		countQuery = countQuery.Where(c)
	}
	sqlStr, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count filtered documents", "error", err)
		return nil, 0, common.WrapError(err, "count documents")
	}

	query := r.sb.Select(documentColumns...).
		From("documents").
		OrderBy("created_at DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit))
	for _, c := range conds {
		query = query.Where(c)
	}
	sqlStr, args, err = query.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Error("failed to filter documents", "error", err)
		return nil, 0, common.WrapError(err, "filter documents")
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func filterConditions(f entity.DocumentFilter) []sq.Sqlizer {
	var conds []sq.Sqlizer
	if v := strings.TrimSpace(f.Vendor); v != "" {
		conds = append(conds, sq.Expr("LOWER(vendor) LIKE ?", "%"+strings.ToLower(v)+"%"))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		conds = append(conds, sq.Expr("LOWER(category) LIKE ?", "%"+strings.ToLower(c)+"%"))
	}
	if f.StartDate != nil {
		conds = append(conds, sq.GtOrEq{"created_at": *f.StartDate})
	}
	if f.EndDate != nil {
		conds = append(conds, sq.LtOrEq{"created_at": *f.EndDate})
	}
	if f.MinAmount != nil {
		conds = append(conds, sq.GtOrEq{"amount": *f.MinAmount})
	}
	if f.MaxAmount != nil {
		conds = append(conds, sq.LtOrEq{"amount": *f.MaxAmount})
	}
	return conds
}

func scanDocuments(rows *sql.Rows) ([]*entity.Document, error) {
	var docs []*entity.Document
	for rows.Next() {
		var doc entity.Document
		if err := rows.Scan(&doc.ID, &doc.Vendor, &doc.Data, &doc.Amount, &doc.Category, &doc.CreatedAt); err != nil {
			return nil, common.WrapError(err, "scan document")
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate documents")
	}
	return docs, nil
}
