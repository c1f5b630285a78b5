package domain

// Decision is the outcome of a single access review.
type Decision string

const (
	DecisionPending  Decision = "Pending"
	DecisionApproved Decision = "Approved"
	DecisionRevoked  Decision = "Revoked"
	DecisionDeferred Decision = "Deferred"
)

// AccessOwner is the user holding an access grant.
type AccessOwner struct {
	ID         int64  `json:"id"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

// Access is one entitlement under review.
type Access struct {
	ID           int64       `json:"id"`
	AccessID     string      `json:"access_id"`
	User         AccessOwner `json:"user"`
	ResourceName string      `json:"resource_name"`
	ResourceType string      `json:"resource_type"`
	AccessLevel  string      `json:"access_level"`
	GrantedDate  string      `json:"granted_date"`
	LastUsed     *string     `json:"last_used"`
}

// Review is a reviewer's judgment on one access grant.
type Review struct {
	ID         int64    `json:"id"`
	Campaign   int64    `json:"campaign"`
	Access     Access   `json:"access"`
	Reviewer   int64    `json:"reviewer"`
	Decision   Decision `json:"decision"`
	Comment    *string  `json:"comment"`
	ReviewedAt *string  `json:"reviewed_at"`
}

// ReviewDecision is the body of a single decide call.
type ReviewDecision struct {
	Decision Decision `json:"decision"`
	Comment  string   `json:"comment"`
}

// BulkDecision is the body of bulk approve/revoke calls.
type BulkDecision struct {
	ReviewIDs []int64 `json:"review_ids"`
	Comment   string  `json:"comment"`
}

// ReviewPage is one page of the paginated review listing.
type ReviewPage struct {
	Count    int      `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Review `json:"results"`
}

// ReviewFilter narrows review listings and statistics. Zero values are
// not sent.
type ReviewFilter struct {
	CampaignID int64
	Decision   Decision
	Department string
	DateFrom   string
	DateTo     string
	Page       int
}

// DecisionCount is one bucket of the by-decision breakdown.
type DecisionCount struct {
	Decision Decision `json:"decision"`
	Count    int      `json:"count"`
}

// ResourceTypeCount is one bucket of the by-resource-type breakdown.
type ResourceTypeCount struct {
	ResourceType string `json:"access__resource_type"`
	Count        int    `json:"count"`
}

// ReviewStats aggregates review decisions visible to the caller.
type ReviewStats struct {
	Total          int                 `json:"total"`
	Pending        int                 `json:"pending,omitempty"`
	Approved       int                 `json:"approved,omitempty"`
	Revoked        int                 `json:"revoked,omitempty"`
	Deferred       int                 `json:"deferred,omitempty"`
	ByDecision     []DecisionCount     `json:"by_decision,omitempty"`
	ByResourceType []ResourceTypeCount `json:"by_resource_type,omitempty"`
}

// Count returns the number of reviews with decision d, preferring the
// breakdown when the backend sent one.
func (s ReviewStats) Count(d Decision) int {
	for _, b := range s.ByDecision {
		if b.Decision == d {
			return b.Count
		}
	}
	switch d {
	case DecisionPending:
		return s.Pending
	case DecisionApproved:
		return s.Approved
	case DecisionRevoked:
		return s.Revoked
	case DecisionDeferred:
		return s.Deferred
	}
	return 0
}
