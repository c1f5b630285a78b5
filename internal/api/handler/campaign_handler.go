package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

// CampaignHandler serves the campaign list, detail, creation and lifecycle
// actions.
type CampaignHandler struct {
	pages     *Pages
	campaigns ports.CampaignService
	reviews   ports.ReviewService
	log       zerolog.Logger
}

func NewCampaignHandler(pages *Pages, campaigns ports.CampaignService, reviews ports.ReviewService, log zerolog.Logger) *CampaignHandler {
	return &CampaignHandler{pages: pages, campaigns: campaigns, reviews: reviews, log: log}
}

type campaignListData struct {
	Campaigns []domain.Campaign
	Status    string
}

type campaignDetailData struct {
	Campaign *domain.Campaign
	Stats    *domain.CampaignStats
	Reviews  []domain.Review
	Formats  []domain.ExportFormat
}

// List renders all campaigns, optionally narrowed by ?status=.
func (h *CampaignHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	list, err := h.campaigns.List(c.Request().Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("campaign list unavailable")
		return h.pages.Render(c, http.StatusOK, "campaigns", View{
			Title: "Campaigns",
			Error: userMessage(err, "Failed to fetch campaigns"),
			Data:  campaignListData{Status: status},
		})
	}

	if status != "" {
		kept := list[:0]
		for _, cp := range list {
			if string(cp.Status) == status {
				kept = append(kept, cp)
			}
		}
		list = kept
	}
	return h.pages.Render(c, http.StatusOK, "campaigns", View{
		Title: "Campaigns",
		Data:  campaignListData{Campaigns: list, Status: status},
	})
}

// Show renders one campaign with its stats and pending reviews. Missing
// stats do not prevent the page from rendering.
func (h *CampaignHandler) Show(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	cp, err := h.campaigns.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrForbidden) {
			return err
		}
		return h.pages.Render(c, http.StatusOK, "campaign_detail", View{
			Title: "Campaign",
			Error: userMessage(err, "Failed to load campaign details"),
			Data:  campaignDetailData{},
		})
	}

	data := campaignDetailData{
		Campaign: cp,
		Formats:  []domain.ExportFormat{domain.ExportPDF, domain.ExportExcel, domain.ExportCSV},
	}
	if stats, err := h.campaigns.Stats(ctx, id); err != nil {
		h.log.Debug().Err(err).Int64("campaign_id", id).Msg("campaign stats unavailable")
	} else {
		data.Stats = stats
	}
	if page, err := h.reviews.List(ctx, domain.ReviewFilter{CampaignID: id, Decision: domain.DecisionPending, Page: 1}); err != nil {
		h.log.Debug().Err(err).Int64("campaign_id", id).Msg("campaign reviews unavailable")
	} else {
		data.Reviews = page.Results
	}

	return h.pages.Render(c, http.StatusOK, "campaign_detail", View{Title: cp.Name, Data: data})
}

// NewPage renders the creation form.
func (h *CampaignHandler) NewPage(c echo.Context) error {
	return h.pages.Render(c, http.StatusOK, "campaign_new", View{
		Title: "New campaign",
		Data:  campaignForm{AssignmentMethod: domain.AssignManual},
	})
}

// Create validates the form and creates a draft campaign.
func (h *CampaignHandler) Create(c echo.Context) error {
	var f campaignForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&f); err != nil {
		fe, ok := asFieldErrors(err)
		if !ok {
			return err
		}
		return h.pages.Render(c, http.StatusUnprocessableEntity, "campaign_new", View{Title: "New campaign", Fields: fe, Data: f})
	}

	cp, err := h.campaigns.Create(c.Request().Context(), f.input())
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrForbidden) {
			return err
		}
		return h.pages.Render(c, http.StatusUnprocessableEntity, "campaign_new", View{
			Title: "New campaign",
			Error: userMessage(err, "Failed to create campaign"),
			Data:  f,
		})
	}
	return redirectWith(c, campaignPath(cp.ID), flashSuccess, "Campaign created successfully")
}

func (h *CampaignHandler) Start(c echo.Context) error {
	return h.transition(c, h.campaigns.Start, "Campaign started successfully", "Failed to start campaign")
}

func (h *CampaignHandler) Complete(c echo.Context) error {
	return h.transition(c, h.campaigns.Complete, "Campaign completed successfully", "Failed to complete campaign")
}

// Archive moves the campaign out of the active lists and returns to them.
func (h *CampaignHandler) Archive(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.campaigns.Archive(c.Request().Context(), id); err != nil {
		return redirectWith(c, campaignPath(id), flashError, userMessage(err, "Failed to archive campaign"))
	}
	return redirectWith(c, "/campaigns", flashSuccess, "Campaign archived successfully")
}

type campaignTransition func(ctx context.Context, id int64) (*domain.Campaign, error)

func (h *CampaignHandler) transition(c echo.Context, call campaignTransition, okMsg, failMsg string) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := call(c.Request().Context(), id); err != nil {
		h.log.Warn().Err(err).Int64("campaign_id", id).Msg(failMsg)
		return redirectWith(c, campaignPath(id), flashError, userMessage(err, failMsg))
	}
	return redirectWith(c, campaignPath(id), flashSuccess, okMsg)
}

// Export streams the campaign report as a download.
func (h *CampaignHandler) Export(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	format := domain.ExportFormat(c.Param("format"))
	if !format.Valid() {
		return echo.NewHTTPError(http.StatusNotFound, "unknown export format")
	}

	exp, err := h.campaigns.Export(c.Request().Context(), id, format)
	if err != nil {
		return redirectWith(c, campaignPath(id), flashError, fmt.Sprintf("Failed to export %s report", format))
	}
	return sendExport(c, fmt.Sprintf("campaign_%d_report.%s", id, format.Extension()), exp)
}

func sendExport(c echo.Context, filename string, exp *domain.Export) error {
	ct := exp.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, ct, exp.Data)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return id, nil
}

func campaignPath(id int64) string {
	return "/campaigns/" + strconv.FormatInt(id, 10)
}
