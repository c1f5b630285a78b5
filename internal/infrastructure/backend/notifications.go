package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/condaura/portal/internal/core/domain"
)

const notificationsRoot = "/notifications/notifications/"

// NotificationService implements ports.NotificationService.
type NotificationService struct {
	c *Client
}

func NewNotificationService(c *Client) *NotificationService {
	return &NotificationService{c: c}
}

func (s *NotificationService) List(ctx context.Context, page int, onlyUnread bool) (*domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"page": {strconv.Itoa(page)}}
	if onlyUnread {
		q.Set("unread", "true")
	}
	var out domain.NotificationPage
	if err := s.c.getJSON(ctx, "notifications.list", notificationsRoot, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64) (*domain.Notification, error) {
	var out domain.Notification
	path := notificationsRoot + strconv.FormatInt(id, 10) + "/read/"
	if err := s.c.sendJSON(ctx, "notifications.read", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.c.sendJSON(ctx, "notifications.read_all", http.MethodPost, notificationsRoot+"mark-all-read/", nil, nil)
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.c.getJSON(ctx, "notifications.unread_count", notificationsRoot+"unread-count/", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	path := notificationsRoot + strconv.FormatInt(id, 10) + "/"
	return s.c.sendJSON(ctx, "notifications.delete", http.MethodDelete, path, nil, nil)
}
