package domain

import "time"

// Notification is a message addressed to the current user.
type Notification struct {
	ID                int64     `json:"id"`
	User              int64     `json:"user"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	Type              string    `json:"type"`
	IsRead            bool      `json:"is_read"`
	RelatedObjectType *string   `json:"related_object_type"`
	RelatedObjectID   *int64    `json:"related_object_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// NotificationPage is one page of the notification listing.
type NotificationPage struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []Notification `json:"results"`
}

// ImportResult summarises a CSV import. Only one of the created counters
// is set, depending on the import kind.
type ImportResult struct {
	UsersCreated    int      `json:"users_created,omitempty"`
	AccessesCreated int      `json:"accesses_created,omitempty"`
	Errors          []string `json:"errors"`
}

// Created returns the number of records created regardless of kind.
func (r ImportResult) Created() int {
	return r.UsersCreated + r.AccessesCreated
}
