package domain

import "time"

// CampaignStatus mirrors the backend campaign lifecycle.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignActive    CampaignStatus = "Active"
	CampaignCompleted CampaignStatus = "Completed"
	CampaignArchived  CampaignStatus = "Archived"
)

// Campaign is a time-boxed access review exercise.
type Campaign struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Status      CampaignStatus `json:"status"`
	CreatedBy   int64          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Assignment methods for reviewers of a new campaign.
const (
	AssignManual        = "manual"
	AssignManager       = "manager"
	AssignResourceOwner = "resource_owner"
)

// CampaignInput is the payload for creating or updating a campaign.
// Optional scoping fields are omitted from the request when empty.
type CampaignInput struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Department       string   `json:"department,omitempty"`
	ResourceType     string   `json:"resource_type,omitempty"`
	AccessLevel      string   `json:"access_level,omitempty"`
	Reviewers        []string `json:"reviewers,omitempty"`
	AssignmentMethod string   `json:"assignment_method,omitempty"`
}

// CampaignStats is the per-campaign progress summary.
type CampaignStats struct {
	TotalReviews         int     `json:"total_reviews"`
	CompletedReviews     int     `json:"completed_reviews"`
	ApprovedCount        int     `json:"approved_count"`
	RevokedCount         int     `json:"revoked_count"`
	PendingCount         int     `json:"pending_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// ExportFormat is a report file type produced by the backend.
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "excel"
	ExportCSV   ExportFormat = "csv"
)

// Valid reports whether f is a known format.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportPDF, ExportExcel, ExportCSV:
		return true
	}
	return false
}

// Extension returns the file extension used for downloads.
func (f ExportFormat) Extension() string {
	switch f {
	case ExportExcel:
		return "xlsx"
	default:
		return string(f)
	}
}

// Export is a binary report downloaded from the backend.
type Export struct {
	ContentType string
	Data        []byte
}
