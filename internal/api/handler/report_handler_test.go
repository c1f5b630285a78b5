package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
)

type stubReports struct {
	exportFn func(ctx context.Context, format domain.ExportFormat, f domain.ReviewFilter) (*domain.Export, error)
}

func (s *stubReports) Export(ctx context.Context, format domain.ExportFormat, f domain.ReviewFilter) (*domain.Export, error) {
	return s.exportFn(ctx, format, f)
}

func neverExport(t *testing.T) *stubReports {
	return &stubReports{exportFn: func(context.Context, domain.ExportFormat, domain.ReviewFilter) (*domain.Export, error) {
		t.Fatalf("backend must not be called")
		return nil, nil
	}}
}

func TestReportHandler_ShowInvalidDateNeverCallsBackend(t *testing.T) {
	reviews := &stubReviews{statsFn: func(context.Context, domain.ReviewFilter) (*domain.ReviewStats, error) {
		t.Fatalf("backend must not be called")
		return nil, nil
	}}
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, reviews, neverExport(t), zerolog.Nop())
	c, rec := newReviewContext(t, http.MethodGet, "/reports?date_from=03/01/2024", nil)

	if err := h.Show(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "date from must be a date (YYYY-MM-DD)") {
		t.Errorf("expected inline date error, got %d", rec.Code)
	}
}

func TestReportHandler_ShowStats(t *testing.T) {
	var got domain.ReviewFilter
	reviews := &stubReviews{statsFn: func(_ context.Context, f domain.ReviewFilter) (*domain.ReviewStats, error) {
		got = f
		return &domain.ReviewStats{Total: 40, Approved: 30, Revoked: 10}, nil
	}}
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, reviews, neverExport(t), zerolog.Nop())
	c, rec := newReviewContext(t, http.MethodGet, "/reports?campaign=3&department=IT&date_from=2024-01-01", nil)

	if err := h.Show(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.CampaignID != 3 || got.Department != "IT" || got.DateFrom != "2024-01-01" {
		t.Errorf("unexpected filter %+v", got)
	}
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "Failed to fetch statistics") {
		t.Errorf("expected stats page, got %d", rec.Code)
	}
}

func TestReportHandler_StatsFailure(t *testing.T) {
	reviews := &stubReviews{statsFn: func(context.Context, domain.ReviewFilter) (*domain.ReviewStats, error) {
		return nil, errors.New("dial tcp: refused")
	}}
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, reviews, neverExport(t), zerolog.Nop())
	c, rec := newReviewContext(t, http.MethodGet, "/reports", nil)

	if err := h.Show(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Failed to fetch statistics") {
		t.Errorf("expected fallback message")
	}
}

func TestReportHandler_ExportUnknownFormat(t *testing.T) {
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, &stubReviews{}, neverExport(t), zerolog.Nop())
	c, _ := newReviewContext(t, http.MethodGet, "/reports/export/csv", nil)
	c.SetParamNames("format")
	c.SetParamValues("csv")

	var he *echo.HTTPError
	if err := h.Export(c); !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestReportHandler_Export(t *testing.T) {
	var gotFormat domain.ExportFormat
	reports := &stubReports{exportFn: func(_ context.Context, format domain.ExportFormat, _ domain.ReviewFilter) (*domain.Export, error) {
		gotFormat = format
		return &domain.Export{ContentType: "application/vnd.ms-excel", Data: []byte("xlsx")}, nil
	}}
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, &stubReviews{}, reports, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	c, rec := newReviewContext(t, http.MethodGet, "/reports/export/excel?campaign=3", nil)
	c.SetParamNames("format")
	c.SetParamValues("excel")

	if err := h.Export(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotFormat != domain.ExportExcel || rec.Body.String() != "xlsx" {
		t.Errorf("unexpected export %q %q", gotFormat, rec.Body.String())
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="access-review-report-2024-03-15.xlsx"` {
		t.Errorf("unexpected disposition %q", cd)
	}
}

func TestReportHandler_ExportFailure(t *testing.T) {
	reports := &stubReports{exportFn: func(context.Context, domain.ExportFormat, domain.ReviewFilter) (*domain.Export, error) {
		return nil, errors.New("reports.export: timeout")
	}}
	h := NewReportHandler(NewPages(nil, zerolog.Nop()), &stubCampaigns{}, &stubReviews{}, reports, zerolog.Nop())
	c, rec := newReviewContext(t, http.MethodGet, "/reports/export/pdf?campaign=3", nil)
	c.SetParamNames("format")
	c.SetParamValues("pdf")

	if err := h.Export(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get(echo.HeaderLocation) != "/reports?campaign=3" {
		t.Errorf("expected redirect back to the filtered report, got %s", rec.Header().Get(echo.HeaderLocation))
	}
	if flashOf(t, rec) != "error:Failed to export report. Please try again." {
		t.Errorf("unexpected flash %q", flashOf(t, rec))
	}
}
