package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

// reviewPageSize is the backend's page size for review listings.
const reviewPageSize = 10

// ReviewHandler serves the pending-review queue and decision actions.
type ReviewHandler struct {
	pages   *Pages
	reviews ports.ReviewService
	log     zerolog.Logger
}

func NewReviewHandler(pages *Pages, reviews ports.ReviewService, log zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{pages: pages, reviews: reviews, log: log}
}

type reviewListData struct {
	Reviews    []domain.Review
	Campaign   int64
	Page       int
	TotalPages int
	Decisions  []domain.Decision
}

func (d reviewListData) PrevPage() int { return d.Page - 1 }
func (d reviewListData) NextPage() int { return d.Page + 1 }
func (d reviewListData) HasNext() bool { return d.Page < d.TotalPages }

// List renders pending reviews, optionally for one campaign (?campaign=).
func (h *ReviewHandler) List(c echo.Context) error {
	page := atoiDefault(c.QueryParam("page"), 1)
	campaign, _ := strconv.ParseInt(c.QueryParam("campaign"), 10, 64)

	data := reviewListData{
		Campaign:  campaign,
		Page:      page,
		Decisions: []domain.Decision{domain.DecisionApproved, domain.DecisionRevoked, domain.DecisionDeferred},
	}
	res, err := h.reviews.List(c.Request().Context(), domain.ReviewFilter{
		CampaignID: campaign,
		Decision:   domain.DecisionPending,
		Page:       page,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("review list unavailable")
		return h.pages.Render(c, http.StatusOK, "reviews", View{
			Title: "Reviews",
			Error: userMessage(err, "Failed to fetch reviews"),
			Data:  data,
		})
	}

	data.Reviews = res.Results
	data.TotalPages = (res.Count + reviewPageSize - 1) / reviewPageSize
	return h.pages.Render(c, http.StatusOK, "reviews", View{Title: "Reviews", Data: data})
}

// Decide records one decision and returns to the queue it came from.
func (h *ReviewHandler) Decide(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var f decisionForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	back := reviewsReturn(f.Campaign)
	if err := c.Validate(&f); err != nil {
		if fe, ok := asFieldErrors(err); ok {
			return redirectWith(c, back, flashError, fe.Error())
		}
		return err
	}

	_, err = h.reviews.Decide(c.Request().Context(), id, domain.ReviewDecision{
		Decision: domain.Decision(f.Decision),
		Comment:  f.Comment,
	})
	if err != nil {
		h.log.Warn().Err(err).Int64("review_id", id).Msg("decision failed")
		return redirectWith(c, back, flashError, "Failed to submit decision: "+userMessage(err, "Unknown error"))
	}
	return redirectWith(c, back, flashSuccess, "Decision recorded")
}

// Bulk approves or revokes the selected reviews with a shared comment.
func (h *ReviewHandler) Bulk(c echo.Context) error {
	var f bulkForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	back := reviewsReturn(f.Campaign)
	if err := c.Validate(&f); err != nil {
		if fe, ok := asFieldErrors(err); ok {
			return redirectWith(c, back, flashError, fe.Error())
		}
		return err
	}

	b := domain.BulkDecision{ReviewIDs: f.ReviewIDs, Comment: f.Comment}
	ctx := c.Request().Context()
	var err error
	if f.Action == "approve" {
		err = h.reviews.BulkApprove(ctx, b)
	} else {
		err = h.reviews.BulkRevoke(ctx, b)
	}
	if err != nil {
		h.log.Warn().Err(err).Str("action", f.Action).Int("count", len(f.ReviewIDs)).Msg("bulk decision failed")
		return redirectWith(c, back, flashError, "Failed to bulk "+f.Action+": "+userMessage(err, "Unknown error"))
	}
	return redirectWith(c, back, flashSuccess, strconv.Itoa(len(f.ReviewIDs))+" reviews updated")
}

func reviewsReturn(campaign int64) string {
	if campaign > 0 {
		return campaignPath(campaign)
	}
	return "/reviews"
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
