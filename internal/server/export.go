package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
)

// handleDownload renders the filtered document set as an attachment.
// POST carries the filter as a JSON body; GET passes the same criteria
// as query parameters alongside format.
func (s *Server) handleDownload(c *fiber.Ctx) error {
	format := c.Query("format", "csv")

	req := filterRequest{
		Vendor:    c.Query("vendor"),
		Category:  c.Query("category"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	if v := c.Query("minAmount"); v != "" {
		f := c.QueryFloat("minAmount")
		req.MinAmount = &f
	}
	if v := c.Query("maxAmount"); v != "" {
		f := c.QueryFloat("maxAmount")
		req.MaxAmount = &f
	}
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		}
	}

	filter, err := req.toFilter()
	if err != nil {
		return errorJSON(c, err)
	}

	res, err := s.exporter.Export(c.Context(), format, filter)
	if err != nil {
		s.logger.Error("download failed", "format", format, "error", err)
		return errorJSON(c, err)
	}

	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Send(res.Data)
}
