package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
)

// DefaultMaxChars caps the text handed to the claim screener. Receipts and
// proof-of-purchase PDFs rarely need more than a few pages of text.
const DefaultMaxChars = 20000

// PDFTextExtractor implements port.TextExtractor using mupdf
type PDFTextExtractor struct {
	maxChars int
	logger   *zap.Logger
}

// NewPDFTextExtractor creates a new PDF text extractor. maxChars <= 0
// falls back to DefaultMaxChars.
func NewPDFTextExtractor(maxChars int, logger *zap.Logger) *PDFTextExtractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &PDFTextExtractor{
		maxChars: maxChars,
		logger:   logger,
	}
}

// ExtractText pulls the text layer out of a PDF held in memory
func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		if sb.Len() >= e.maxChars {
			break
		}
	}

	result := strings.TrimSpace(sb.String())
	if len(result) > e.maxChars {
		result = result[:e.maxChars]
	}

	e.logger.Debug("Extracted PDF text",
		zap.Int("pages", pageCount),
		zap.Int("chars", len(result)))

	return result, nil
}

// Verify interface compliance
var _ port.TextExtractor = (*PDFTextExtractor)(nil)
