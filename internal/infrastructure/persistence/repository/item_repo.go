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

const itemColumns = `
	id, title, category, type, status,
	enterprise_id, organization_id, reported_by,
	description, tags, location,
	created_at, updated_at
`

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new lost and found item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new item report
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Category,
		item.Type,
		item.Status,
		item.EnterpriseID,
		item.OrganizationID,
		item.ReportedBy,
		item.Description,
		string(tagsJSON),
		item.Location,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create item",
			zap.String("item_id", item.ID),
			zap.String("type", item.Type),
			zap.Error(err))
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves an item, or nil when the id is unknown
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := r.scanItem(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get item", zap.String("item_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Update persists the editable fields of an item
func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET
			title = ?,
			category = ?,
			status = ?,
			description = ?,
			tags = ?,
			location = ?,
			updated_at = ?
		WHERE id = ?
	`

	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		item.Title,
		item.Category,
		item.Status,
		item.Description,
		string(tagsJSON),
		item.Location,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update item", zap.String("item_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// UpdateStatus moves an item through its custody lifecycle
func (r *ItemRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update item status",
			zap.String("item_id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return nil
}

// List filters items by type and status; empty strings match everything
func (r *ItemRepository) List(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	args := []interface{}{}

	if itemType != "" {
		query += " AND type = ?"
		args = append(args, itemType)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list items",
			zap.String("type", itemType),
			zap.String("status", status),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

// ListByReporter retrieves every item reported by one user
func (r *ItemRepository) ListByReporter(ctx context.Context, email string) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE reported_by = ? ORDER BY created_at DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to list items by reporter", zap.String("reported_by", email), zap.Error(err))
		return nil, fmt.Errorf("failed to list items by reporter: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

func (r *ItemRepository) scanItem(row scanner) (*entity.Item, error) {
	var item entity.Item
	var description, tagsJSON, location sql.NullString

	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Category,
		&item.Type,
		&item.Status,
		&item.EnterpriseID,
		&item.OrganizationID,
		&item.ReportedBy,
		&description,
		&tagsJSON,
		&location,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Location = location.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	return &item, nil
}

func (r *ItemRepository) collectItems(rows *sql.Rows) ([]*entity.Item, error) {
	var items []*entity.Item
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Verify interface compliance
var _ port.ItemRepository = (*ItemRepository)(nil)
