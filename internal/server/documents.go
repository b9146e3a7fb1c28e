package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/entity"
)

const dateLayout = "2006-01-02"

// documentResponse is the wire shape of a stored document. date is the
// transaction date, rendered date-only.
type documentResponse struct {
	ID       int64   `json:"id"`
	Vendor   string  `json:"vendor"`
	Data     string  `json:"data"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

type documentRequest struct {
	Vendor   string  `json:"vendor"`
	Data     string  `json:"data"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

type filterRequest struct {
	Vendor    string   `json:"vendor"`
	Category  string   `json:"category"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	MinAmount *float64 `json:"minAmount"`
	MaxAmount *float64 `json:"maxAmount"`
	Offset    int      `json:"offset"`
	Limit     int      `json:"limit"`
}

func toDocumentResponse(d *entity.Document) documentResponse {
	return documentResponse{
		ID:       d.ID,
		Vendor:   d.Vendor,
		Data:     d.Data,
		Amount:   d.Amount,
		Category: d.Category,
		Date:     d.CreatedAt.Format(dateLayout),
	}
}

func toDocumentResponses(docs []*entity.Document) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid document id %q", common.ErrInvalidInput, c.Params("id"))
	}
	return id, nil
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)

	docs, err := s.repo.List(c.Context(), offset, limit)
	if err != nil {
		s.logger.Error("documents.list failed", "error", err)
		return errorJSON(c, err)
	}
	return c.JSON(toDocumentResponses(docs))
}

func (s *Server) handleGetDocument(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	doc, err := s.repo.GetByID(c.Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

func (s *Server) handleUpdateDocument(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	txDate, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return errorJSON(c, fmt.Errorf("%w: invalid date %q", common.ErrInvalidInput, req.Date))
	}

	doc := &entity.Document{
		ID:        id,
		Vendor:    req.Vendor,
		Data:      req.Data,
		Amount:    req.Amount,
		Category:  req.Category,
		CreatedAt: txDate.UTC(),
	}
	if err := s.repo.UpdateByID(c.Context(), id, doc); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	if err := s.repo.DeleteByID(c.Context(), id); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"message": "document deleted"})
}

func (s *Server) handleFilterDocuments(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	filter, err := req.toFilter()
	if err != nil {
		return errorJSON(c, err)
	}

	docs, total, err := s.repo.Filter(c.Context(), filter, req.Offset, req.Limit)
	if err != nil {
		s.logger.Error("documents.filter failed", "error", err)
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     total,
		"documents": toDocumentResponses(docs),
	})
}

func (r filterRequest) toFilter() (entity.DocumentFilter, error) {
	filter := entity.DocumentFilter{
		Vendor:    r.Vendor,
		Category:  r.Category,
		MinAmount: r.MinAmount,
		MaxAmount: r.MaxAmount,
	}
	parse := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", common.ErrInvalidInput, s)
		}
		u := t.UTC()
		return &u, nil
	}
	var err error
	if filter.StartDate, err = parse(r.StartDate); err != nil {
		return entity.DocumentFilter{}, err
	}
	if filter.EndDate, err = parse(r.EndDate); err != nil {
		return entity.DocumentFilter{}, err
	}
	if filter.MinAmount != nil && filter.MaxAmount != nil && *filter.MinAmount > *filter.MaxAmount {
		return entity.DocumentFilter{}, fmt.Errorf("%w: minAmount exceeds maxAmount", common.ErrInvalidInput)
	}
	return filter, nil
}
