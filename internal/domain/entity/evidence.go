package entity

import "time"

// EvidenceFile is a document attached to a claim request. PDF uploads get
// their text extracted for the advisory screening pass.
type EvidenceFile struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	FileName      string    `json:"file_name"`
	StoredPath    string    `json:"stored_path"`
	ContentType   string    `json:"content_type,omitempty"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}
