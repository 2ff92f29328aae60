package service

import (
	"context"
	"fmt"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// QueryService is the read side of the request store. It shares the write
// side's database handle, so a caller always reads its own committed writes.
type QueryService interface {
	GetRequestByID(ctx context.Context, id string) (*entity.WorkRequest, error)
	// GetRequestsForRole returns the actionable queue for one role at one
	// organization: non-terminal requests whose CURRENT step requires the
	// role. A request whose chain merely contains the role further ahead
	// is not included.
	GetRequestsForRole(ctx context.Context, role, organizationID string) ([]*entity.WorkRequest, error)
	// GetRequestsForUser returns every request the user created, any
	// status. roleName is accepted for interface compatibility and only
	// logged.
	GetRequestsForUser(ctx context.Context, email, roleName string) ([]*entity.WorkRequest, error)
	GetHistory(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error)
}

type queryServiceImpl struct {
	requestRepo port.RequestRepository
	recordRepo  port.ApprovalRecordRepository
	logger      Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	requestRepo port.RequestRepository,
	recordRepo port.ApprovalRecordRepository,
	logger Logger,
) QueryService {
	return &queryServiceImpl{
		requestRepo: requestRepo,
		recordRepo:  recordRepo,
		logger:      logger,
	}
}

// GetRequestByID retrieves one request
func (s *queryServiceImpl) GetRequestByID(ctx context.Context, id string) (*entity.WorkRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "request_id", id)
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", id)
	}
	return req, nil
}

// GetRequestsForRole retrieves the pending queue for a role at an organization
func (s *queryServiceImpl) GetRequestsForRole(ctx context.Context, role, organizationID string) ([]*entity.WorkRequest, error) {
	if role == "" {
		return nil, NewValidationError("role", "role is required")
	}
	if organizationID == "" {
		return nil, NewValidationError("organization_id", "organization id is required")
	}

	requests, err := s.requestRepo.ListForRole(ctx, role, organizationID)
	if err != nil {
		s.logger.Error("Failed to list requests for role", "error", err, "role", role, "organization_id", organizationID)
		return nil, fmt.Errorf("list requests for role: %w", err)
	}
	return requests, nil
}

// GetRequestsForUser retrieves every request created by the given email
func (s *queryServiceImpl) GetRequestsForUser(ctx context.Context, email, roleName string) ([]*entity.WorkRequest, error) {
	if email == "" {
		return nil, NewValidationError("email", "email is required")
	}

	requests, err := s.requestRepo.ListForRequester(ctx, email)
	if err != nil {
		s.logger.Error("Failed to list requests for user", "error", err, "email", email)
		return nil, fmt.Errorf("list requests for user: %w", err)
	}

	s.logger.Info("Listed requests for user", "email", email, "role_name", roleName, "count", len(requests))
	return requests, nil
}

// GetHistory retrieves the audit trail oldest first
func (s *queryServiceImpl) GetHistory(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}

	records, err := s.recordRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return records, nil
}
