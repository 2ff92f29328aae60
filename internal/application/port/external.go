package port

import (
	"context"

	"github.com/unifound/lostfound/internal/domain/entity"
)

// Messenger delivers chat messages to users addressed by email
type Messenger interface {
	SendText(ctx context.Context, recipientEmail, text string) error
}

// EmailSender delivers plain email
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ScreeningResult is the screener's advisory read of one claim
type ScreeningResult struct {
	Verdict    string
	Confidence float64
	Summary    string
	Model      string
}

// ClaimScreener defines the advisory consistency check of a claim against
// the item it references
type ClaimScreener interface {
	Screen(ctx context.Context, in *entity.ScreeningInput) (*ScreeningResult, error)
}

// TextExtractor defines plain-text extraction from uploaded documents
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}
