package ports

import (
	"context"

	"github.com/condaura/portal/internal/core/domain"
)

// NotificationService maps one method to one notification endpoint.
type NotificationService interface {
	List(ctx context.Context, page int, onlyUnread bool) (*domain.NotificationPage, error)
	MarkRead(ctx context.Context, id int64) (*domain.Notification, error)
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}
