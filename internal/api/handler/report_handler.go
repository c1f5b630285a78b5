package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

// reportDepartments are the department filter choices offered on the page.
var reportDepartments = []string{"IT", "HR", "Finance", "Marketing", "Operations"}

// ReportHandler serves the administrator report page and its exports.
type ReportHandler struct {
	pages     *Pages
	campaigns ports.CampaignService
	reviews   ports.ReviewService
	reports   ports.ReportService
	log       zerolog.Logger
	now       func() time.Time
}

func NewReportHandler(pages *Pages, campaigns ports.CampaignService, reviews ports.ReviewService, reports ports.ReportService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{pages: pages, campaigns: campaigns, reviews: reviews, reports: reports, log: log, now: time.Now}
}

type reportData struct {
	Filter      reportFilterForm
	Campaigns   []domain.Campaign
	Departments []string
	Stats       *domain.ReviewStats
	// Query re-encodes the validated filter for export links.
	Query template.URL
}

// Show renders review statistics for the filter in the query string.
func (h *ReportHandler) Show(c echo.Context) error {
	var f reportFilterForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
	}
	data := reportData{Filter: f, Departments: reportDepartments, Query: template.URL(f.query().Encode())}
	v := View{Title: "Reports"}
	if err := c.Validate(&f); err != nil {
		fe, ok := asFieldErrors(err)
		if !ok {
			return err
		}
		v.Fields = fe
		v.Data = data
		return h.pages.Render(c, http.StatusUnprocessableEntity, "reports", v)
	}

	ctx := c.Request().Context()
	if list, err := h.campaigns.List(ctx); err != nil {
		h.log.Debug().Err(err).Msg("report campaigns unavailable")
	} else {
		data.Campaigns = list
	}
	if stats, err := h.reviews.Stats(ctx, f.filter()); err != nil {
		h.log.Warn().Err(err).Msg("report stats unavailable")
		v.Error = userMessage(err, "Failed to fetch statistics")
	} else {
		data.Stats = stats
	}
	v.Data = data
	return h.pages.Render(c, http.StatusOK, "reports", v)
}

// Export downloads the filtered report as excel or pdf.
func (h *ReportHandler) Export(c echo.Context) error {
	format := domain.ExportFormat(c.Param("format"))
	if format != domain.ExportExcel && format != domain.ExportPDF {
		return echo.NewHTTPError(http.StatusNotFound, "unknown export format")
	}
	var f reportFilterForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
	}
	if err := c.Validate(&f); err != nil {
		if fe, ok := asFieldErrors(err); ok {
			return redirectWith(c, "/reports", flashError, fe.Error())
		}
		return err
	}

	exp, err := h.reports.Export(c.Request().Context(), format, f.filter())
	if err != nil {
		h.log.Warn().Err(err).Str("format", string(format)).Msg("report export failed")
		return redirectWith(c, "/reports?"+f.query().Encode(), flashError, "Failed to export report. Please try again.")
	}
	name := fmt.Sprintf("access-review-report-%s.%s", h.now().Format(dateLayout), format.Extension())
	return sendExport(c, name, exp)
}
