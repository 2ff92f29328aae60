package entity

import "time"

// WorkRequest represents a cross-enterprise work request routed through an
// ordered approval chain. The chain is computed once at creation and never
// recomputed; Version guards concurrent step advances.
type WorkRequest struct {
	ID          string      `json:"id"`
	RequestType RequestType `json:"request_type"`
	Status      string      `json:"status"`
	Priority    Priority    `json:"priority"`

	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`

	RequesterEnterpriseID   string `json:"requester_enterprise_id"`
	RequesterOrganizationID string `json:"requester_organization_id"`
	TargetEnterpriseID      string `json:"target_enterprise_id"`
	TargetOrganizationID    string `json:"target_organization_id"`

	ItemHoldingEnterpriseType string  `json:"item_holding_enterprise_type,omitempty"`
	EstimatedValue            float64 `json:"estimated_value"`

	Description string `json:"description,omitempty"`

	Chain       []string `json:"chain"`
	ChainStep   int      `json:"chain_step"`
	CurrentRole string   `json:"current_role,omitempty"`
	Version     int64    `json:"version"`

	Payload RequestPayload `json:"payload"`

	DecidedBy      string     `json:"decided_by,omitempty"`
	DecisionReason string     `json:"decision_reason,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal returns true once the request reached a final status
func (r *WorkRequest) IsTerminal() bool {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsLastStep returns true if the current chain step is the final approval
func (r *WorkRequest) IsLastStep() bool {
	return r.ChainStep >= len(r.Chain)-1
}

// RoleAtCurrentStep returns the role required to act on the request now,
// or an empty string when the chain position is out of range.
func (r *WorkRequest) RoleAtCurrentStep() string {
	if r.ChainStep < 0 || r.ChainStep >= len(r.Chain) {
		return ""
	}
	return r.Chain[r.ChainStep]
}

// TouchesOrganization returns true if the request routes through the given
// organization as target or origin.
func (r *WorkRequest) TouchesOrganization(organizationID string) bool {
	return r.TargetOrganizationID == organizationID || r.RequesterOrganizationID == organizationID
}
