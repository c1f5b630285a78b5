package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/condaura/portal/internal/core/domain"
)

// ImportService implements ports.ImportService.
type ImportService struct {
	c *Client
}

func NewImportService(c *Client) *ImportService {
	return &ImportService{c: c}
}

func (s *ImportService) ImportUsers(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	var out domain.ImportResult
	if err := s.c.upload(ctx, "users.import", "/users/import/", filename, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ImportService) ImportAccess(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	var out domain.ImportResult
	if err := s.c.upload(ctx, "access.import", "/access/import/", filename, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportService implements ports.ReportService.
type ReportService struct {
	c *Client
}

func NewReportService(c *Client) *ReportService {
	return &ReportService{c: c}
}

// Export downloads GET /reports/export/{excel|pdf}/ with the review filter.
func (s *ReportService) Export(ctx context.Context, format domain.ExportFormat, filter domain.ReviewFilter) (*domain.Export, error) {
	if format != domain.ExportExcel && format != domain.ExportPDF {
		return nil, fmt.Errorf("reports.export: %w: %q", domain.ErrInvalidExportFormat, format)
	}
	return s.c.getBlob(ctx, "reports.export", "/reports/export/"+string(format)+"/", filterQuery(filter))
}
