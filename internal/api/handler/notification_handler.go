package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	pages         *Pages
	notifications ports.NotificationService
	log           zerolog.Logger
}

func NewNotificationHandler(pages *Pages, notifications ports.NotificationService, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{pages: pages, notifications: notifications, log: log}
}

type notificationListData struct {
	Notifications []domain.Notification
	Page          int
	UnreadOnly    bool
	HasNext       bool
}

// List renders one page of notifications; ?unread=true hides read ones.
func (h *NotificationHandler) List(c echo.Context) error {
	data := notificationListData{
		Page:       atoiDefault(c.QueryParam("page"), 1),
		UnreadOnly: c.QueryParam("unread") == "true",
	}
	res, err := h.notifications.List(c.Request().Context(), data.Page, data.UnreadOnly)
	if err != nil {
		h.log.Warn().Err(err).Msg("notifications unavailable")
		return h.pages.Render(c, http.StatusOK, "notifications", View{
			Title: "Notifications",
			Error: userMessage(err, "Failed to fetch notifications"),
			Data:  data,
		})
	}
	data.Notifications = res.Results
	data.HasNext = res.Next != nil
	return h.pages.Render(c, http.StatusOK, "notifications", View{Title: "Notifications", Data: data})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.notifications.MarkRead(c.Request().Context(), id); err != nil {
		return redirectWith(c, "/notifications", flashError, userMessage(err, "Failed to mark notification as read"))
	}
	return c.Redirect(http.StatusSeeOther, "/notifications")
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context()); err != nil {
		return redirectWith(c, "/notifications", flashError, userMessage(err, "Failed to mark notifications as read"))
	}
	return redirectWith(c, "/notifications", flashSuccess, "All notifications marked as read")
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Request().Context(), id); err != nil {
		return redirectWith(c, "/notifications", flashError, userMessage(err, "Failed to delete notification"))
	}
	return c.Redirect(http.StatusSeeOther, "/notifications")
}
