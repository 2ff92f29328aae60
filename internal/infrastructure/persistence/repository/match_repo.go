package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// MatchRepository implements port.MatchRepository
type MatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMatchRepository creates a new match suggestion repository
func NewMatchRepository(db *sql.DB, logger *zap.Logger) port.MatchRepository {
	return &MatchRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the suggestion or refreshes an existing (lost, found)
// pair. Returns true when the pair was new.
func (r *MatchRepository) Upsert(ctx context.Context, m *entity.MatchSuggestion) (bool, error) {
	reasonsJSON, err := json.Marshal(m.Reasons)
	if err != nil {
		return false, fmt.Errorf("failed to encode reasons: %w", err)
	}

	insert := `
		INSERT INTO match_suggestions (
			id, lost_item_id, found_item_id, score, reasons, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(lost_item_id, found_item_id) DO NOTHING
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, insert,
		m.ID,
		m.LostItemID,
		m.FoundItemID,
		m.Score,
		string(reasonsJSON),
		m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert match suggestion",
			zap.String("lost_item_id", m.LostItemID),
			zap.String("found_item_id", m.FoundItemID),
			zap.Error(err))
		return false, fmt.Errorf("failed to upsert match suggestion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Pair already suggested; refresh the score
	update := `
		UPDATE match_suggestions
		SET score = ?, reasons = ?
		WHERE lost_item_id = ? AND found_item_id = ?
	`
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, update,
		m.Score, string(reasonsJSON), m.LostItemID, m.FoundItemID)
	if err != nil {
		return false, fmt.Errorf("failed to refresh match suggestion: %w", err)
	}
	return false, nil
}

// ListForItem returns suggestions touching itemID, highest score first
func (r *MatchRepository) ListForItem(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error) {
	query := `
		SELECT id, lost_item_id, found_item_id, score, reasons, created_at
		FROM match_suggestions
		WHERE lost_item_id = ? OR found_item_id = ?
		ORDER BY score DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, itemID, itemID)
	if err != nil {
		r.logger.Error("Failed to list match suggestions", zap.String("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("failed to list match suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*entity.MatchSuggestion
	for rows.Next() {
		var m entity.MatchSuggestion
		var reasonsJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.Score, &reasonsJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match suggestion: %w", err)
		}
		if reasonsJSON.Valid && reasonsJSON.String != "" {
			if err := json.Unmarshal([]byte(reasonsJSON.String), &m.Reasons); err != nil {
				return nil, fmt.Errorf("failed to decode reasons: %w", err)
			}
		}
		suggestions = append(suggestions, &m)
	}
	return suggestions, rows.Err()
}

// Verify interface compliance
var _ port.MatchRepository = (*MatchRepository)(nil)
