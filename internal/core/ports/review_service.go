package ports

import (
	"context"

	"github.com/condaura/portal/internal/core/domain"
)

// ReviewService maps one method to one review endpoint.
type ReviewService interface {
	List(ctx context.Context, filter domain.ReviewFilter) (*domain.ReviewPage, error)
	Get(ctx context.Context, id int64) (*domain.Review, error)
	Decide(ctx context.Context, id int64, d domain.ReviewDecision) (*domain.Review, error)
	BulkApprove(ctx context.Context, b domain.BulkDecision) error
	BulkRevoke(ctx context.Context, b domain.BulkDecision) error
	Mine(ctx context.Context, decision domain.Decision) (*domain.ReviewPage, error)
	Stats(ctx context.Context, filter domain.ReviewFilter) (*domain.ReviewStats, error)
}
