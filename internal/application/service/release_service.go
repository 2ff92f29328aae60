package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/release"
)

// ReleaseFormRenderer renders a custody release workbook
type ReleaseFormRenderer interface {
	Render(data *release.FormData) ([]byte, error)
}

// ReleaseService generates custody release forms for approved claims
type ReleaseService interface {
	// GenerateForRequest renders and stores the release form for an
	// approved claim. Generating twice returns the existing form.
	GenerateForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error)
	GetForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error)
	// Download returns the form row plus the stored workbook bytes.
	Download(ctx context.Context, requestID string) (*entity.ReleaseForm, []byte, error)
}

type releaseServiceImpl struct {
	requestRepo   port.RequestRepository
	recordRepo    port.ApprovalRecordRepository
	itemRepo      port.ItemRepository
	directoryRepo port.DirectoryRepository
	releaseRepo   port.ReleaseFormRepository
	fileStorage   port.FileStorage
	renderer      ReleaseFormRenderer
	logger        Logger
}

// NewReleaseService creates a new ReleaseService
func NewReleaseService(
	requestRepo port.RequestRepository,
	recordRepo port.ApprovalRecordRepository,
	itemRepo port.ItemRepository,
	directoryRepo port.DirectoryRepository,
	releaseRepo port.ReleaseFormRepository,
	fileStorage port.FileStorage,
	renderer ReleaseFormRenderer,
	logger Logger,
) ReleaseService {
	return &releaseServiceImpl{
		requestRepo:   requestRepo,
		recordRepo:    recordRepo,
		itemRepo:      itemRepo,
		directoryRepo: directoryRepo,
		releaseRepo:   releaseRepo,
		fileStorage:   fileStorage,
		renderer:      renderer,
		logger:        logger,
	}
}

// GenerateForRequest renders and stores the custody release form
func (s *releaseServiceImpl) GenerateForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}
	if req.RequestType != entity.RequestTypeItemClaim {
		return nil, NewValidationError("request_type", "release forms apply only to item claims")
	}
	if req.Status != entity.StatusApproved {
		return nil, NewValidationError("status", "release forms require an approved claim")
	}

	existing, err := s.releaseRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get release form: %w", err)
	}
	if existing != nil {
		s.logger.Info("Release form already generated", "request_id", requestID, "form_id", existing.ID)
		return existing, nil
	}

	claim, ok := req.Payload.(*entity.ItemClaimPayload)
	if !ok {
		return nil, fmt.Errorf("request %s has no claim payload", requestID)
	}

	item, err := s.itemRepo.GetByID(ctx, claim.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	records, err := s.recordRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	var approvals []*entity.ApprovalRecord
	for _, rec := range records {
		if rec.Action == entity.ActionApprove || rec.Action == entity.ActionConfirmPickup {
			approvals = append(approvals, rec)
		}
	}

	holdingOrgName := req.TargetOrganizationID
	if org, err := s.directoryRepo.GetOrganization(ctx, req.TargetOrganizationID); err == nil && org != nil {
		holdingOrgName = org.Name
	}

	formID := uuid.NewString()
	now := time.Now()
	data := &release.FormData{
		FormID:         formID,
		GeneratedAt:    now,
		Request:        req,
		Claim:          claim,
		Item:           item,
		HoldingOrgName: holdingOrgName,
		Approvals:      approvals,
	}

	content, err := s.renderer.Render(data)
	if err != nil {
		s.logger.Error("Failed to render release form", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("render release form: %w", err)
	}

	storedPath := filepath.Join("releases", now.Format("2006-01-02"), fmt.Sprintf("release_%s.xlsx", requestID))
	if err := s.fileStorage.Save(ctx, storedPath, content); err != nil {
		s.logger.Error("Failed to store release form", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("store release form: %w", err)
	}

	form := &entity.ReleaseForm{
		ID:          formID,
		RequestID:   requestID,
		ItemID:      claim.ItemID,
		FilePath:    storedPath,
		GeneratedAt: now,
	}
	if err := s.releaseRepo.Create(ctx, form); err != nil {
		s.logger.Error("Failed to record release form", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("create release form record: %w", err)
	}

	s.logger.Info("Release form generated", "request_id", requestID, "form_id", form.ID, "path", storedPath)
	return form, nil
}

// GetForRequest retrieves the release form generated for a request
func (s *releaseServiceImpl) GetForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	form, err := s.releaseRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get release form: %w", err)
	}
	if form == nil {
		return nil, NewNotFoundError("release form", requestID)
	}
	return form, nil
}

// Download loads the stored workbook for a generated release form
func (s *releaseServiceImpl) Download(ctx context.Context, requestID string) (*entity.ReleaseForm, []byte, error) {
	form, err := s.GetForRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.fileStorage.Read(ctx, form.FilePath)
	if err != nil {
		s.logger.Error("Failed to read stored release form",
			"error", err, "request_id", requestID, "path", form.FilePath)
		return nil, nil, fmt.Errorf("read release form %s: %w", form.ID, err)
	}
	return form, content, nil
}
