package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// ScreeningRepository implements port.ScreeningRepository
type ScreeningRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewScreeningRepository creates a new claim screening repository
func NewScreeningRepository(db *sql.DB, logger *zap.Logger) port.ScreeningRepository {
	return &ScreeningRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores one screening result
func (r *ScreeningRepository) Create(ctx context.Context, s *entity.ClaimScreening) error {
	query := `
		INSERT INTO claim_screenings (
			id, request_id, verdict, confidence, summary, model, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.RequestID,
		s.Verdict,
		s.Confidence,
		s.Summary,
		s.Model,
		s.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim screening",
			zap.String("request_id", s.RequestID),
			zap.String("verdict", s.Verdict),
			zap.Error(err))
		return fmt.Errorf("failed to create claim screening: %w", err)
	}
	return nil
}

// GetLatestByRequestID retrieves the most recent screening, or nil when
// the request was never screened
func (r *ScreeningRepository) GetLatestByRequestID(ctx context.Context, requestID string) (*entity.ClaimScreening, error) {
	query := `
		SELECT id, request_id, verdict, confidence, summary, model, created_at
		FROM claim_screenings
		WHERE request_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	var s entity.ClaimScreening
	var summary, model sql.NullString
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, requestID).Scan(
		&s.ID,
		&s.RequestID,
		&s.Verdict,
		&s.Confidence,
		&summary,
		&model,
		&s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim screening", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim screening: %w", err)
	}
	s.Summary = summary.String
	s.Model = model.String
	return &s, nil
}

// Verify interface compliance
var _ port.ScreeningRepository = (*ScreeningRepository)(nil)
