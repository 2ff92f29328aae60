package entity

import "time"

// MatchSuggestion records a scored pairing of a lost-item report with a
// found item, unique per pair. Suggestions are advisory; claims stay manual.
type MatchSuggestion struct {
	ID          string    `json:"id"`
	LostItemID  string    `json:"lost_item_id"`
	FoundItemID string    `json:"found_item_id"`
	Score       float64   `json:"score"`
	Reasons     []string  `json:"reasons,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
