package entity

import "time"

// ApprovalRecord is one entry in a request's audit trail: who acted, at
// which chain step, and with what outcome. Records are append-only.
type ApprovalRecord struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	StepIndex  int       `json:"step_index"`
	Action     string    `json:"action"`
	ActorEmail string    `json:"actor_email"`
	ActorRole  string    `json:"actor_role,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
