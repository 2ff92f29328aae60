package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/dispatcher"
	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/domain/event"
)

// ItemMatcher scores how likely a lost report and a found item describe
// the same physical object
type ItemMatcher interface {
	Score(lost, found *entity.Item) (float64, []string)
}

// MatchService pairs open lost reports with open found items
type MatchService interface {
	// ScanOnce compares every open lost report against every open found
	// item and records suggestions at or above the score threshold.
	// Returns the number of new suggestions created.
	ScanOnce(ctx context.Context) (int, error)
}

type matchServiceImpl struct {
	itemRepo   port.ItemRepository
	matchRepo  port.MatchRepository
	matcher    ItemMatcher
	dispatcher dispatcher.Dispatcher
	minScore   float64
	logger     Logger
}

// NewMatchService creates a new MatchService
func NewMatchService(
	itemRepo port.ItemRepository,
	matchRepo port.MatchRepository,
	matcher ItemMatcher,
	dispatcher dispatcher.Dispatcher,
	minScore float64,
	logger Logger,
) MatchService {
	if minScore <= 0 {
		minScore = 0.5
	}
	return &matchServiceImpl{
		itemRepo:   itemRepo,
		matchRepo:  matchRepo,
		matcher:    matcher,
		dispatcher: dispatcher,
		minScore:   minScore,
		logger:     logger,
	}
}

// ScanOnce runs a full pass over open lost and found items
func (s *matchServiceImpl) ScanOnce(ctx context.Context) (int, error) {
	lostItems, err := s.itemRepo.List(ctx, entity.ItemTypeLost, entity.ItemStatusOpen, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list lost items: %w", err)
	}
	foundItems, err := s.itemRepo.List(ctx, entity.ItemTypeFound, entity.ItemStatusOpen, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list found items: %w", err)
	}
	if len(lostItems) == 0 || len(foundItems) == 0 {
		return 0, nil
	}

	created := 0
	for _, lost := range lostItems {
		for _, found := range foundItems {
			select {
			case <-ctx.Done():
				return created, ctx.Err()
			default:
			}

			score, reasons := s.matcher.Score(lost, found)
			if score < s.minScore {
				continue
			}

			suggestion := &entity.MatchSuggestion{
				ID:          uuid.NewString(),
				LostItemID:  lost.ID,
				FoundItemID: found.ID,
				Score:       score,
				Reasons:     reasons,
				CreatedAt:   time.Now(),
			}
			isNew, err := s.matchRepo.Upsert(ctx, suggestion)
			if err != nil {
				s.logger.Error("Failed to record match suggestion", "error", err,
					"lost_item_id", lost.ID, "found_item_id", found.ID)
				continue
			}
			if !isNew {
				continue
			}

			created++
			s.logger.Info("Match suggestion created",
				"suggestion_id", suggestion.ID,
				"lost_item_id", lost.ID,
				"found_item_id", found.ID,
				"score", score)
			s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeMatchFound, "", map[string]interface{}{
				"suggestion_id": suggestion.ID,
				"lost_item_id":  lost.ID,
				"found_item_id": found.ID,
				"score":         score,
			}))
		}
	}
	return created, nil
}
