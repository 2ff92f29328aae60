package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// ScreeningService runs the advisory AI consistency check of a claim against
// the item it references. A screening never changes the request's status.
type ScreeningService interface {
	// ScreenClaim screens one claim request and stores the result. Returns
	// nil without error when screening is disabled.
	ScreenClaim(ctx context.Context, requestID string) (*entity.ClaimScreening, error)
	GetLatest(ctx context.Context, requestID string) (*entity.ClaimScreening, error)
}

type screeningServiceImpl struct {
	requestRepo   port.RequestRepository
	itemRepo      port.ItemRepository
	evidenceRepo  port.EvidenceRepository
	screeningRepo port.ScreeningRepository
	screener      port.ClaimScreener
	logger        Logger
}

// NewScreeningService creates a new ScreeningService. screener may be nil
// when the AI backend is disabled; ScreenClaim then becomes a no-op.
func NewScreeningService(
	requestRepo port.RequestRepository,
	itemRepo port.ItemRepository,
	evidenceRepo port.EvidenceRepository,
	screeningRepo port.ScreeningRepository,
	screener port.ClaimScreener,
	logger Logger,
) ScreeningService {
	return &screeningServiceImpl{
		requestRepo:   requestRepo,
		itemRepo:      itemRepo,
		evidenceRepo:  evidenceRepo,
		screeningRepo: screeningRepo,
		screener:      screener,
		logger:        logger,
	}
}

// ScreenClaim screens one claim request and stores the verdict
func (s *screeningServiceImpl) ScreenClaim(ctx context.Context, requestID string) (*entity.ClaimScreening, error) {
	if s.screener == nil {
		return nil, nil
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}
	if req.RequestType != entity.RequestTypeItemClaim {
		return nil, NewValidationError("request_type", "screening applies only to item claims")
	}

	claim, ok := req.Payload.(*entity.ItemClaimPayload)
	if !ok {
		return nil, fmt.Errorf("request %s has no claim payload", requestID)
	}

	input := &entity.ScreeningInput{
		RequestID:        requestID,
		ClaimDescription: req.Description,
		ProofDescription: claim.ProofDescription,
		ItemTitle:        claim.ItemTitle,
	}

	item, err := s.itemRepo.GetByID(ctx, claim.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item != nil {
		input.ItemTitle = item.Title
		input.ItemDescription = item.Description
		input.ItemTags = item.Tags
	}

	evidence, err := s.evidenceRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	for _, f := range evidence {
		if f.ExtractedText != "" {
			input.EvidenceTexts = append(input.EvidenceTexts, f.ExtractedText)
		}
	}

	result, err := s.screener.Screen(ctx, input)
	if err != nil {
		s.logger.Error("Claim screening failed", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("screen claim: %w", err)
	}

	screening := &entity.ClaimScreening{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		Verdict:    result.Verdict,
		Confidence: result.Confidence,
		Summary:    result.Summary,
		Model:      result.Model,
		CreatedAt:  time.Now(),
	}
	if err := s.screeningRepo.Create(ctx, screening); err != nil {
		s.logger.Error("Failed to store screening", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("create screening: %w", err)
	}

	s.logger.Info("Claim screened",
		"request_id", requestID,
		"verdict", screening.Verdict,
		"confidence", screening.Confidence,
		"evidence_texts", len(input.EvidenceTexts),
	)
	return screening, nil
}

// GetLatest retrieves the most recent screening for a request
func (s *screeningServiceImpl) GetLatest(ctx context.Context, requestID string) (*entity.ClaimScreening, error) {
	screening, err := s.screeningRepo.GetLatestByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get screening: %w", err)
	}
	if screening == nil {
		return nil, NewNotFoundError("screening", requestID)
	}
	return screening, nil
}
