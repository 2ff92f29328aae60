package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// EvidenceService stores claim evidence uploads and extracts text from PDFs
// for the advisory screening pass
type EvidenceService interface {
	Upload(ctx context.Context, requestID, fileName, contentType string, data []byte, uploadedBy string) (*entity.EvidenceFile, error)
	List(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error)
}

type evidenceServiceImpl struct {
	requestRepo  port.RequestRepository
	evidenceRepo port.EvidenceRepository
	fileStorage  port.FileStorage
	extractor    port.TextExtractor
	logger       Logger
}

// NewEvidenceService creates a new EvidenceService. extractor may be nil
// when PDF text extraction is not available.
func NewEvidenceService(
	requestRepo port.RequestRepository,
	evidenceRepo port.EvidenceRepository,
	fileStorage port.FileStorage,
	extractor port.TextExtractor,
	logger Logger,
) EvidenceService {
	return &evidenceServiceImpl{
		requestRepo:  requestRepo,
		evidenceRepo: evidenceRepo,
		fileStorage:  fileStorage,
		extractor:    extractor,
		logger:       logger,
	}
}

// Upload stores one evidence file under the storage root and records it
func (s *evidenceServiceImpl) Upload(ctx context.Context, requestID, fileName, contentType string, data []byte, uploadedBy string) (*entity.EvidenceFile, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}
	if req.RequestType != entity.RequestTypeItemClaim {
		return nil, NewValidationError("request_type", "evidence uploads apply only to item claims")
	}
	if len(data) == 0 {
		return nil, NewValidationError("file", "file is empty")
	}

	cleanName := filepath.Base(fileName)
	if cleanName == "." || cleanName == ".." || cleanName == "" || cleanName != fileName {
		return nil, NewValidationError("file_name", "invalid file name")
	}

	id := uuid.NewString()
	storedPath := filepath.Join("evidence", time.Now().Format("2006-01-02"), fmt.Sprintf("%s_%s", id, cleanName))

	if err := s.fileStorage.Save(ctx, storedPath, data); err != nil {
		s.logger.Error("Failed to store evidence file", "error", err, "request_id", requestID, "file_name", cleanName)
		return nil, fmt.Errorf("store evidence: %w", err)
	}

	file := &entity.EvidenceFile{
		ID:          id,
		RequestID:   requestID,
		FileName:    cleanName,
		StoredPath:  storedPath,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now(),
	}

	if s.isPDF(cleanName, contentType) && s.extractor != nil {
		text, err := s.extractor.ExtractText(ctx, data)
		if err != nil {
			// Extraction is advisory, the upload still succeeds
			s.logger.Error("PDF text extraction failed", "error", err, "request_id", requestID, "file_name", cleanName)
		} else {
			file.ExtractedText = text
		}
	}

	if err := s.evidenceRepo.Create(ctx, file); err != nil {
		s.logger.Error("Failed to record evidence file", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("create evidence record: %w", err)
	}

	s.logger.Info("Evidence uploaded",
		"request_id", requestID,
		"evidence_id", file.ID,
		"file_name", cleanName,
		"size_bytes", len(data),
		"extracted_chars", len(file.ExtractedText),
	)
	return file, nil
}

// List retrieves the evidence files attached to a request
func (s *evidenceServiceImpl) List(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}

	files, err := s.evidenceRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return files, nil
}

func (s *evidenceServiceImpl) isPDF(fileName, contentType string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}
