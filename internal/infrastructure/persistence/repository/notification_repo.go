package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification queue repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create queues one outbound notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient, channel, subject, body, request_id,
			status, attempts, last_error, sent_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var sentAt sql.NullTime
	if n.SentAt != nil {
		sentAt = sql.NullTime{Time: *n.SentAt, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		n.ID,
		n.Recipient,
		n.Channel,
		n.Subject,
		n.Body,
		n.RequestID,
		n.Status,
		n.Attempts,
		n.LastError,
		sentAt,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("recipient", n.Recipient),
			zap.String("channel", n.Channel),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListPending retrieves queued notifications oldest first
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient, channel, subject, body, request_id,
			status, attempts, last_error, sent_at, created_at
		FROM notifications
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	if limit <= 0 {
		limit = 50
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to list pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var subject, body, requestID, lastError sql.NullString
		var sentAt sql.NullTime
		err := rows.Scan(
			&n.ID,
			&n.Recipient,
			&n.Channel,
			&subject,
			&body,
			&requestID,
			&n.Status,
			&n.Attempts,
			&lastError,
			&sentAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Subject = subject.String
		n.Body = body.String
		n.RequestID = requestID.String
		n.LastError = lastError.String
		if sentAt.Valid {
			t := sentAt.Time
			n.SentAt = &t
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent closes out a delivered notification
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = ?, sent_at = ?, attempts = attempts + 1
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, sentAt, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.String("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure. A final failure moves the row
// to FAILED; otherwise it stays PENDING for the next worker pass.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, lastError string, final bool) error {
	status := entity.NotificationStatusPending
	if final {
		status = entity.NotificationStatusFailed
	}

	query := `
		UPDATE notifications
		SET status = ?, last_error = ?, attempts = attempts + 1
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, lastError, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.String("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
