package entity

import "time"

// ReleaseForm records a generated custody release document for an approved claim
type ReleaseForm struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	ItemID      string    `json:"item_id"`
	FilePath    string    `json:"file_path"`
	GeneratedAt time.Time `json:"generated_at"`
}
