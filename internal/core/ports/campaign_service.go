package ports

import (
	"context"

	"github.com/condaura/portal/internal/core/domain"
)

// CampaignService maps one method to one campaign endpoint.
type CampaignService interface {
	List(ctx context.Context) ([]domain.Campaign, error)
	Get(ctx context.Context, id int64) (*domain.Campaign, error)
	Create(ctx context.Context, in domain.CampaignInput) (*domain.Campaign, error)
	Update(ctx context.Context, id int64, in domain.CampaignInput) (*domain.Campaign, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, id int64) (*domain.CampaignStats, error)
	Start(ctx context.Context, id int64) (*domain.Campaign, error)
	Complete(ctx context.Context, id int64) (*domain.Campaign, error)
	Archive(ctx context.Context, id int64) (*domain.Campaign, error)
	Export(ctx context.Context, id int64, format domain.ExportFormat) (*domain.Export, error)
}
