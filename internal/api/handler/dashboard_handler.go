package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

const dashboardListSize = 5

// DashboardHandler renders the landing page for signed-in users.
type DashboardHandler struct {
	pages         *Pages
	campaigns     ports.CampaignService
	reviews       ports.ReviewService
	notifications ports.NotificationService
	log           zerolog.Logger
	now           func() time.Time
}

func NewDashboardHandler(pages *Pages, campaigns ports.CampaignService, reviews ports.ReviewService, notifications ports.NotificationService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		pages:         pages,
		campaigns:     campaigns,
		reviews:       reviews,
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

type activeCampaign struct {
	domain.Campaign
	DaysLeft int
}

type dashboardData struct {
	Campaigns     []activeCampaign
	Stats         domain.ReviewStats
	Completion    int
	Notifications []domain.Notification
}

// Show loads active campaigns, review stats and unread notifications one
// after the other. A failing section is logged and left empty.
func (h *DashboardHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()
	var data dashboardData
	var failed bool

	if list, err := h.campaigns.List(ctx); err != nil {
		h.log.Warn().Err(err).Msg("dashboard: campaigns unavailable")
		failed = true
	} else {
		for _, cp := range list {
			if cp.Status != domain.CampaignActive {
				continue
			}
			data.Campaigns = append(data.Campaigns, activeCampaign{Campaign: cp, DaysLeft: h.daysLeft(cp.EndDate)})
			if len(data.Campaigns) == dashboardListSize {
				break
			}
		}
	}

	if stats, err := h.reviews.Stats(ctx, domain.ReviewFilter{}); err != nil {
		h.log.Warn().Err(err).Msg("dashboard: review stats unavailable")
		failed = true
	} else {
		data.Stats = *stats
		data.Completion = completion(*stats)
	}

	if page, err := h.notifications.List(ctx, 1, true); err != nil {
		h.log.Warn().Err(err).Msg("dashboard: notifications unavailable")
		failed = true
	} else {
		data.Notifications = page.Results
		if len(data.Notifications) > dashboardListSize {
			data.Notifications = data.Notifications[:dashboardListSize]
		}
	}

	v := View{Title: "Dashboard", Data: data}
	if failed {
		v.Error = "Some dashboard data could not be loaded."
	}
	return h.pages.Render(c, http.StatusOK, "dashboard", v)
}

func (h *DashboardHandler) daysLeft(end string) int {
	t, err := time.Parse(dateLayout, end)
	if err != nil {
		return 0
	}
	return int(math.Ceil(t.Sub(h.now()).Hours() / 24))
}

// completion is the decided share of all reviews, in whole percent.
func completion(s domain.ReviewStats) int {
	if s.Total == 0 {
		return 0
	}
	decided := s.Count(domain.DecisionApproved) + s.Count(domain.DecisionRevoked)
	return int(math.Round(float64(decided) * 100 / float64(s.Total)))
}
