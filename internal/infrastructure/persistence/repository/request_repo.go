package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/infrastructure/persistence/sqlite"
)

// requestColumns is the shared select list; scanRequest must match it
const requestColumns = `
	id, request_type, status, priority,
	requester_id, requester_name,
	requester_enterprise_id, requester_organization_id,
	target_enterprise_id, target_organization_id,
	item_holding_enterprise_type, estimated_value, description,
	chain, chain_step, current_role, version, payload,
	decided_by, decision_reason, decided_at,
	created_at, updated_at
`

// priorityRank orders queue listings URGENT first. Priorities live in the
// row as text, so the rank is computed in SQL.
const priorityRank = `
	CASE priority
		WHEN 'URGENT' THEN 4
		WHEN 'HIGH' THEN 3
		WHEN 'NORMAL' THEN 2
		WHEN 'LOW' THEN 1
		ELSE 0
	END
`

// RequestRepository implements port.RequestRepository on SQLite
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new work request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new work request at version 1
func (r *RequestRepository) Create(ctx context.Context, req *entity.WorkRequest) error {
	query := `
		INSERT INTO work_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	chainJSON, err := json.Marshal(req.Chain)
	if err != nil {
		return fmt.Errorf("failed to encode chain: %w", err)
	}
	payloadJSON, err := entity.EncodePayload(req.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var decidedAt sql.NullTime
	if req.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *req.DecidedAt, Valid: true}
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		string(req.RequestType),
		req.Status,
		string(req.Priority),
		req.RequesterID,
		req.RequesterName,
		req.RequesterEnterpriseID,
		req.RequesterOrganizationID,
		req.TargetEnterpriseID,
		req.TargetOrganizationID,
		req.ItemHoldingEnterpriseType,
		req.EstimatedValue,
		req.Description,
		string(chainJSON),
		req.ChainStep,
		req.CurrentRole,
		req.Version,
		string(payloadJSON),
		req.DecidedBy,
		req.DecisionReason,
		decidedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create work request",
			zap.String("request_id", req.ID),
			zap.String("request_type", string(req.RequestType)),
			zap.Error(err))
		return fmt.Errorf("failed to create work request: %w", err)
	}
	return nil
}

// GetByID retrieves a work request, or nil when the id is unknown
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.WorkRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM work_requests WHERE id = ?`

	req, err := r.scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get work request", zap.String("request_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get work request: %w", err)
	}
	return req, nil
}

// Update persists the mutable fields of req guarded by expectedVersion.
// The stored version increments by one; zero matched rows means another
// writer advanced the request first.
func (r *RequestRepository) Update(ctx context.Context, req *entity.WorkRequest, expectedVersion int64) error {
	query := `
		UPDATE work_requests SET
			status = ?,
			priority = ?,
			description = ?,
			chain_step = ?,
			current_role = ?,
			version = version + 1,
			payload = ?,
			decided_by = ?,
			decision_reason = ?,
			decided_at = ?,
			updated_at = ?
		WHERE id = ? AND version = ?
	`

	payloadJSON, err := entity.EncodePayload(req.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var decidedAt sql.NullTime
	if req.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *req.DecidedAt, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Status,
		string(req.Priority),
		req.Description,
		req.ChainStep,
		req.CurrentRole,
		string(payloadJSON),
		req.DecidedBy,
		req.DecisionReason,
		decidedAt,
		req.UpdatedAt,
		req.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update work request",
			zap.String("request_id", req.ID),
			zap.Int64("expected_version", expectedVersion),
			zap.Error(err))
		return fmt.Errorf("failed to update work request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

// ListForRole returns the live queue for one role at one organization
func (r *RequestRepository) ListForRole(ctx context.Context, role, orgID string) ([]*entity.WorkRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM work_requests
		WHERE status IN (?, ?)
		  AND current_role = ?
		  AND (requester_organization_id = ? OR target_organization_id = ?)
		ORDER BY ` + priorityRank + ` DESC, created_at DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query,
		entity.StatusPending, entity.StatusInProgress, role, orgID, orgID)
	if err != nil {
		r.logger.Error("Failed to list requests for role",
			zap.String("role", role),
			zap.String("organization_id", orgID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list requests for role: %w", err)
	}
	defer rows.Close()

	return r.collectRequests(rows)
}

// ListForRequester returns every request created by email, any status
func (r *RequestRepository) ListForRequester(ctx context.Context, email string) ([]*entity.WorkRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM work_requests
		WHERE requester_id = ?
		ORDER BY ` + priorityRank + ` DESC, created_at DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to list requests for requester",
			zap.String("requester_id", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list requests for requester: %w", err)
	}
	defer rows.Close()

	return r.collectRequests(rows)
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *RequestRepository) scanRequest(row scanner) (*entity.WorkRequest, error) {
	var req entity.WorkRequest
	var requestType, priority string
	var chainJSON, payloadJSON string
	var requesterName, holdingType, description sql.NullString
	var targetEnterprise, currentRole sql.NullString
	var decidedBy, decisionReason sql.NullString
	var decidedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&requestType,
		&req.Status,
		&priority,
		&req.RequesterID,
		&requesterName,
		&req.RequesterEnterpriseID,
		&req.RequesterOrganizationID,
		&targetEnterprise,
		&req.TargetOrganizationID,
		&holdingType,
		&req.EstimatedValue,
		&description,
		&chainJSON,
		&req.ChainStep,
		&currentRole,
		&req.Version,
		&payloadJSON,
		&decidedBy,
		&decisionReason,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.RequestType = entity.RequestType(requestType)
	req.Priority = entity.Priority(priority)
	req.RequesterName = requesterName.String
	req.TargetEnterpriseID = targetEnterprise.String
	req.ItemHoldingEnterpriseType = holdingType.String
	req.Description = description.String
	req.CurrentRole = currentRole.String
	req.DecidedBy = decidedBy.String
	req.DecisionReason = decisionReason.String
	if decidedAt.Valid {
		t := decidedAt.Time
		req.DecidedAt = &t
	}

	if err := json.Unmarshal([]byte(chainJSON), &req.Chain); err != nil {
		return nil, fmt.Errorf("failed to decode chain: %w", err)
	}
	payload, err := entity.DecodePayload(req.RequestType, []byte(payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	req.Payload = payload

	return &req, nil
}

func (r *RequestRepository) collectRequests(rows *sql.Rows) ([]*entity.WorkRequest, error) {
	var requests []*entity.WorkRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// getExecutor returns the transaction carried by ctx, or the shared pool
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
