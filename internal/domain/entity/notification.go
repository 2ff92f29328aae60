package entity

import "time"

// Notification is a queued message to an approver or requester. The
// notification worker drains PENDING rows and records delivery attempts.
type Notification struct {
	ID        string     `json:"id"`
	Recipient string     `json:"recipient"`
	Channel   string     `json:"channel"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	RequestID string     `json:"request_id,omitempty"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
