package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/condaura/portal/internal/core/domain"
)

// ReviewService implements ports.ReviewService.
type ReviewService struct {
	c *Client
}

func NewReviewService(c *Client) *ReviewService {
	return &ReviewService{c: c}
}

func (s *ReviewService) List(ctx context.Context, filter domain.ReviewFilter) (*domain.ReviewPage, error) {
	q := filterQuery(filter)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	var out domain.ReviewPage
	if err := s.c.getJSON(ctx, "reviews.list", "/reviews/", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*domain.Review, error) {
	var out domain.Review
	if err := s.c.getJSON(ctx, "reviews.get", idPath("/reviews/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) Decide(ctx context.Context, id int64, d domain.ReviewDecision) (*domain.Review, error) {
	var out domain.Review
	if err := s.c.sendJSON(ctx, "reviews.decide", http.MethodPost, idPath("/reviews/%d/decide/", id), d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) BulkApprove(ctx context.Context, b domain.BulkDecision) error {
	return s.c.sendJSON(ctx, "reviews.bulk_approve", http.MethodPost, "/reviews/bulk-approve/", b, nil)
}

func (s *ReviewService) BulkRevoke(ctx context.Context, b domain.BulkDecision) error {
	return s.c.sendJSON(ctx, "reviews.bulk_revoke", http.MethodPost, "/reviews/bulk-revoke/", b, nil)
}

// Mine lists the reviews assigned to the caller.
func (s *ReviewService) Mine(ctx context.Context, decision domain.Decision) (*domain.ReviewPage, error) {
	q := url.Values{}
	if decision != "" {
		q.Set("decision", string(decision))
	}
	var out domain.ReviewPage
	if err := s.c.getJSON(ctx, "reviews.mine", "/reviews/my-reviews/", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) Stats(ctx context.Context, filter domain.ReviewFilter) (*domain.ReviewStats, error) {
	var out domain.ReviewStats
	if err := s.c.getJSON(ctx, "reviews.stats", "/reviews/stats/", filterQuery(filter), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// filterQuery renders the non-zero filter fields with the backend's
// parameter names. Page is left to the caller.
func filterQuery(f domain.ReviewFilter) url.Values {
	q := url.Values{}
	if f.CampaignID > 0 {
		q.Set("campaign", strconv.FormatInt(f.CampaignID, 10))
	}
	if f.Decision != "" {
		q.Set("decision", string(f.Decision))
	}
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	return q
}
