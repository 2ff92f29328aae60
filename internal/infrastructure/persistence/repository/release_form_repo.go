package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// ReleaseFormRepository implements port.ReleaseFormRepository
type ReleaseFormRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReleaseFormRepository creates a new release form repository
func NewReleaseFormRepository(db *sql.DB, logger *zap.Logger) port.ReleaseFormRepository {
	return &ReleaseFormRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a generated release form. request_id is unique, so a
// second generation for the same request fails here.
func (r *ReleaseFormRepository) Create(ctx context.Context, f *entity.ReleaseForm) error {
	query := `
		INSERT INTO release_forms (id, request_id, item_id, file_path, generated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		f.ID,
		f.RequestID,
		f.ItemID,
		f.FilePath,
		f.GeneratedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create release form",
			zap.String("request_id", f.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create release form: %w", err)
	}
	return nil
}

// GetByRequestID retrieves the form generated for a request, or nil
func (r *ReleaseFormRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	query := `
		SELECT id, request_id, item_id, file_path, generated_at
		FROM release_forms
		WHERE request_id = ?
	`

	var f entity.ReleaseForm
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, requestID).Scan(
		&f.ID,
		&f.RequestID,
		&f.ItemID,
		&f.FilePath,
		&f.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get release form", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get release form: %w", err)
	}
	return &f, nil
}

// Verify interface compliance
var _ port.ReleaseFormRepository = (*ReleaseFormRepository)(nil)
