package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// EvidenceRepository implements port.EvidenceRepository
type EvidenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEvidenceRepository creates a new evidence file repository
func NewEvidenceRepository(db *sql.DB, logger *zap.Logger) port.EvidenceRepository {
	return &EvidenceRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an uploaded evidence file
func (r *EvidenceRepository) Create(ctx context.Context, f *entity.EvidenceFile) error {
	query := `
		INSERT INTO evidence_files (
			id, request_id, file_name, stored_path, content_type,
			extracted_text, uploaded_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		f.ID,
		f.RequestID,
		f.FileName,
		f.StoredPath,
		f.ContentType,
		f.ExtractedText,
		f.UploadedBy,
		f.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create evidence file",
			zap.String("request_id", f.RequestID),
			zap.String("file_name", f.FileName),
			zap.Error(err))
		return fmt.Errorf("failed to create evidence file: %w", err)
	}
	return nil
}

// GetByID retrieves one evidence file, or nil when the id is unknown
func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (*entity.EvidenceFile, error) {
	query := `
		SELECT id, request_id, file_name, stored_path, content_type,
			extracted_text, uploaded_by, created_at
		FROM evidence_files
		WHERE id = ?
	`

	f, err := r.scanEvidence(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get evidence file", zap.String("evidence_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get evidence file: %w", err)
	}
	return f, nil
}

// ListByRequestID retrieves a request's evidence files oldest first
func (r *EvidenceRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error) {
	query := `
		SELECT id, request_id, file_name, stored_path, content_type,
			extracted_text, uploaded_by, created_at
		FROM evidence_files
		WHERE request_id = ?
		ORDER BY created_at ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list evidence files", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list evidence files: %w", err)
	}
	defer rows.Close()

	var files []*entity.EvidenceFile
	for rows.Next() {
		f, err := r.scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *EvidenceRepository) scanEvidence(row scanner) (*entity.EvidenceFile, error) {
	var f entity.EvidenceFile
	var contentType, extractedText sql.NullString

	err := row.Scan(
		&f.ID,
		&f.RequestID,
		&f.FileName,
		&f.StoredPath,
		&contentType,
		&extractedText,
		&f.UploadedBy,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.ContentType = contentType.String
	f.ExtractedText = extractedText.String
	return &f, nil
}

// Verify interface compliance
var _ port.EvidenceRepository = (*EvidenceRepository)(nil)
