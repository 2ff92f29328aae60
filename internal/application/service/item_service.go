package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/pkg/utils"
)

// ReportItemInput carries a new lost or found item report
type ReportItemInput struct {
	Title          string
	Category       string
	Type           string
	EnterpriseID   string
	OrganizationID string
	ReportedBy     string
	Description    string
	Tags           []string
	Location       string
}

// UpdateItemInput carries the editable fields of an item report.
// Nil pointers leave the stored value untouched.
type UpdateItemInput struct {
	ItemID      string
	Title       *string
	Category    *string
	Description *string
	Tags        []string
	Location    *string
}

// ItemService manages lost and found item reports
type ItemService interface {
	Report(ctx context.Context, input *ReportItemInput) (*entity.Item, error)
	GetItem(ctx context.Context, id string) (*entity.Item, error)
	UpdateItem(ctx context.Context, input *UpdateItemInput) (*entity.Item, error)
	ListItems(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error)
	ListByReporter(ctx context.Context, email string) ([]*entity.Item, error)
	ListMatches(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error)
	// SyncClaimItem aligns an item's status with its claim request: a fresh
	// claim parks the item at PENDING_CLAIM, an approved claim marks it
	// CLAIMED, a rejected or cancelled claim reopens it.
	SyncClaimItem(ctx context.Context, requestID string) error
}

type itemServiceImpl struct {
	itemRepo    port.ItemRepository
	requestRepo port.RequestRepository
	matchRepo   port.MatchRepository
	logger      Logger
}

// NewItemService creates a new ItemService
func NewItemService(
	itemRepo port.ItemRepository,
	requestRepo port.RequestRepository,
	matchRepo port.MatchRepository,
	logger Logger,
) ItemService {
	return &itemServiceImpl{
		itemRepo:    itemRepo,
		requestRepo: requestRepo,
		matchRepo:   matchRepo,
		logger:      logger,
	}
}

// Report records a new lost or found item
func (s *itemServiceImpl) Report(ctx context.Context, input *ReportItemInput) (*entity.Item, error) {
	if input == nil {
		return nil, NewValidationError("", "missing request body")
	}
	if input.Title == "" {
		return nil, NewValidationError("title", "title is required")
	}
	if input.Type != entity.ItemTypeLost && input.Type != entity.ItemTypeFound {
		return nil, NewValidationError("type", fmt.Sprintf("item type must be %s or %s", entity.ItemTypeLost, entity.ItemTypeFound))
	}
	if err := utils.ValidateEmail(input.ReportedBy); err != nil {
		return nil, NewValidationError("reported_by", err.Error())
	}
	if input.OrganizationID == "" {
		return nil, NewValidationError("organization_id", "organization id is required")
	}

	now := time.Now()
	item := &entity.Item{
		ID:             uuid.NewString(),
		Title:          utils.SanitizeString(input.Title),
		Category:       input.Category,
		Type:           input.Type,
		Status:         entity.ItemStatusOpen,
		EnterpriseID:   input.EnterpriseID,
		OrganizationID: input.OrganizationID,
		ReportedBy:     input.ReportedBy,
		Description:    utils.SanitizeString(input.Description),
		Tags:           input.Tags,
		Location:       input.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		s.logger.Error("Failed to create item", "error", err, "title", input.Title)
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info("Item reported", "item_id", item.ID, "type", item.Type, "organization_id", item.OrganizationID)
	return item, nil
}

// GetItem retrieves one item
func (s *itemServiceImpl) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, NewNotFoundError("item", id)
	}
	return item, nil
}

// UpdateItem edits the descriptive fields of an item report
func (s *itemServiceImpl) UpdateItem(ctx context.Context, input *UpdateItemInput) (*entity.Item, error) {
	if input == nil {
		return nil, NewValidationError("", "missing request body")
	}

	item, err := s.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, NewValidationError("title", "title cannot be empty")
		}
		item.Title = utils.SanitizeString(*input.Title)
	}
	if input.Category != nil {
		item.Category = *input.Category
	}
	if input.Description != nil {
		item.Description = utils.SanitizeString(*input.Description)
	}
	if input.Tags != nil {
		item.Tags = input.Tags
	}
	if input.Location != nil {
		item.Location = *input.Location
	}
	item.UpdatedAt = time.Now()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		s.logger.Error("Failed to update item", "error", err, "item_id", item.ID)
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.logger.Info("Item updated", "item_id", item.ID)
	return item, nil
}

// ListItems retrieves items filtered by type and status
func (s *itemServiceImpl) ListItems(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error) {
	items, err := s.itemRepo.List(ctx, itemType, status, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list items", "error", err)
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListByReporter retrieves items reported by the given email
func (s *itemServiceImpl) ListByReporter(ctx context.Context, email string) ([]*entity.Item, error) {
	items, err := s.itemRepo.ListByReporter(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list items by reporter: %w", err)
	}
	return items, nil
}

// ListMatches retrieves match suggestions touching the given item
func (s *itemServiceImpl) ListMatches(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, NewNotFoundError("item", itemID)
	}

	matches, err := s.matchRepo.ListForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// SyncClaimItem aligns the claimed item's status with the claim request
func (s *itemServiceImpl) SyncClaimItem(ctx context.Context, requestID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req == nil || req.RequestType != entity.RequestTypeItemClaim || req.Payload == nil {
		return nil
	}

	itemID := req.Payload.ItemRef()
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		s.logger.Info("Claimed item not on record, skipping status sync", "request_id", requestID, "item_id", itemID)
		return nil
	}

	var target string
	switch req.Status {
	case entity.StatusPending, entity.StatusInProgress:
		if item.Status != entity.ItemStatusOpen {
			return nil
		}
		target = entity.ItemStatusPendingClaim
	case entity.StatusApproved:
		target = entity.ItemStatusClaimed
	case entity.StatusRejected, entity.StatusCancelled:
		if item.Status != entity.ItemStatusPendingClaim {
			return nil
		}
		target = entity.ItemStatusOpen
	default:
		return nil
	}

	if item.Status == target {
		return nil
	}
	if err := s.itemRepo.UpdateStatus(ctx, itemID, target); err != nil {
		s.logger.Error("Failed to sync item status", "error", err, "item_id", itemID, "target", target)
		return fmt.Errorf("update item status: %w", err)
	}

	s.logger.Info("Item status synced with claim", "item_id", itemID, "request_id", requestID, "status", target)
	return nil
}
