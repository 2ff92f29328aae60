package entity

import "time"

// Item represents a lost or found item report held by an organization
type Item struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	EnterpriseID   string    `json:"enterprise_id"`
	OrganizationID string    `json:"organization_id"`
	ReportedBy     string    `json:"reported_by"`
	Description    string    `json:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Location       string    `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsOpen returns true while the item is still available for matching or claims
func (i *Item) IsOpen() bool {
	return i.Status == ItemStatusOpen
}
