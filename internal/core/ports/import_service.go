package ports

import (
	"context"
	"io"

	"github.com/condaura/portal/internal/core/domain"
)

// ImportService uploads CSV files; row validation happens server-side.
type ImportService interface {
	ImportUsers(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
	ImportAccess(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

// ReportService downloads cross-campaign reports.
type ReportService interface {
	Export(ctx context.Context, format domain.ExportFormat, filter domain.ReviewFilter) (*domain.Export, error)
}
