package entity

import "time"

// ClaimScreening is the advisory AI consistency check of a claim against
// the item it references. It never changes the request's approval status.
type ClaimScreening struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Verdict    string    `json:"verdict"`
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary,omitempty"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScreeningInput bundles what the screener reads for one claim
type ScreeningInput struct {
	RequestID        string   `json:"request_id"`
	ClaimDescription string   `json:"claim_description"`
	ProofDescription string   `json:"proof_description"`
	ItemTitle        string   `json:"item_title"`
	ItemDescription  string   `json:"item_description"`
	ItemTags         []string `json:"item_tags,omitempty"`
	EvidenceTexts    []string `json:"evidence_texts,omitempty"`
}
