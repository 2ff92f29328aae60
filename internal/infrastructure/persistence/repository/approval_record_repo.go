package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// ApprovalRecordRepository implements port.ApprovalRecordRepository
type ApprovalRecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRecordRepository creates a new audit trail repository
func NewApprovalRecordRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRecordRepository {
	return &ApprovalRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit record. Records are never updated or deleted.
func (r *ApprovalRecordRepository) Create(ctx context.Context, rec *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (
			id, request_id, step_index, action, actor_email, actor_role,
			from_status, to_status, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rec.ID,
		rec.RequestID,
		rec.StepIndex,
		rec.Action,
		rec.ActorEmail,
		rec.ActorRole,
		rec.FromStatus,
		rec.ToStatus,
		rec.Note,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval record",
			zap.String("request_id", rec.RequestID),
			zap.String("action", rec.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}
	return nil
}

// ListByRequestID retrieves a request's audit trail oldest first
func (r *ApprovalRecordRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, request_id, step_index, action, actor_email, actor_role,
			from_status, to_status, note, created_at
		FROM approval_records
		WHERE request_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list approval records", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var rec entity.ApprovalRecord
		var actorRole, fromStatus, toStatus, note sql.NullString
		err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.StepIndex,
			&rec.Action,
			&rec.ActorEmail,
			&actorRole,
			&fromStatus,
			&toStatus,
			&note,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		rec.ActorRole = actorRole.String
		rec.FromStatus = fromStatus.String
		rec.ToStatus = toStatus.String
		rec.Note = note.String
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalRecordRepository = (*ApprovalRecordRepository)(nil)
