package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/condaura/portal/internal/core/domain"
)

// CampaignService implements ports.CampaignService.
type CampaignService struct {
	c *Client
}

func NewCampaignService(c *Client) *CampaignService {
	return &CampaignService{c: c}
}

func (s *CampaignService) List(ctx context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	if err := s.c.getJSON(ctx, "campaigns.list", "/campaigns/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CampaignService) Get(ctx context.Context, id int64) (*domain.Campaign, error) {
	var out domain.Campaign
	if err := s.c.getJSON(ctx, "campaigns.get", idPath("/campaigns/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CampaignService) Create(ctx context.Context, in domain.CampaignInput) (*domain.Campaign, error) {
	var out domain.Campaign
	if err := s.c.sendJSON(ctx, "campaigns.create", http.MethodPost, "/campaigns/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CampaignService) Update(ctx context.Context, id int64, in domain.CampaignInput) (*domain.Campaign, error) {
	var out domain.Campaign
	if err := s.c.sendJSON(ctx, "campaigns.update", http.MethodPut, idPath("/campaigns/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CampaignService) Delete(ctx context.Context, id int64) error {
	return s.c.sendJSON(ctx, "campaigns.delete", http.MethodDelete, idPath("/campaigns/%d/", id), nil, nil)
}

func (s *CampaignService) Stats(ctx context.Context, id int64) (*domain.CampaignStats, error) {
	var out domain.CampaignStats
	if err := s.c.getJSON(ctx, "campaigns.stats", idPath("/campaigns/%d/stats/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CampaignService) Start(ctx context.Context, id int64) (*domain.Campaign, error) {
	return s.transition(ctx, id, "start")
}

func (s *CampaignService) Complete(ctx context.Context, id int64) (*domain.Campaign, error) {
	return s.transition(ctx, id, "complete")
}

func (s *CampaignService) Archive(ctx context.Context, id int64) (*domain.Campaign, error) {
	return s.transition(ctx, id, "archive")
}

func (s *CampaignService) transition(ctx context.Context, id int64, action string) (*domain.Campaign, error) {
	var out domain.Campaign
	path := fmt.Sprintf("/campaigns/%d/%s/", id, action)
	if err := s.c.sendJSON(ctx, "campaigns."+action, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads GET /campaigns/{id}/export/{format}/.
func (s *CampaignService) Export(ctx context.Context, id int64, format domain.ExportFormat) (*domain.Export, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("campaigns.export: %w: %q", domain.ErrInvalidExportFormat, format)
	}
	path := fmt.Sprintf("/campaigns/%d/export/%s/", id, format)
	return s.c.getBlob(ctx, "campaigns.export", path, nil)
}
