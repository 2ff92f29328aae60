package port

import (
	"context"
	"errors"
	"time"

	"github.com/unifound/lostfound/internal/domain/entity"
)

// ErrVersionConflict is returned by RequestRepository.Update when the stored
// version no longer matches the caller's snapshot. The service layer maps it
// to AlreadyAdvancedError after re-checking the row.
var ErrVersionConflict = errors.New("request version conflict")

// RequestRepository defines persistence operations for WorkRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.WorkRequest) error
	GetByID(ctx context.Context, id string) (*entity.WorkRequest, error)
	// Update persists every mutable field of req guarded by expectedVersion
	// (WHERE id AND version); the stored version increments by one. Returns
	// ErrVersionConflict when no row matched.
	Update(ctx context.Context, req *entity.WorkRequest, expectedVersion int64) error
	// ListForRole returns non-terminal requests whose current step requires
	// role and whose requester or target organization is orgID, sorted by
	// priority rank descending then created_at descending.
	ListForRole(ctx context.Context, role, orgID string) ([]*entity.WorkRequest, error)
	// ListForRequester returns requests created by email in any status,
	// same sort contract as ListForRole.
	ListForRequester(ctx context.Context, email string) ([]*entity.WorkRequest, error)
}

// ApprovalRecordRepository defines persistence operations for the audit trail
type ApprovalRecordRepository interface {
	Create(ctx context.Context, rec *entity.ApprovalRecord) error
	ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error)
}

// ItemRepository defines persistence operations for Item
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	UpdateStatus(ctx context.Context, id, status string) error
	// List filters by itemType and status; empty strings match everything.
	// limit <= 0 means no limit.
	List(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error)
	ListByReporter(ctx context.Context, email string) ([]*entity.Item, error)
}

// DirectoryRepository defines persistence operations for enterprises,
// organizations, and role assignments
type DirectoryRepository interface {
	CreateEnterprise(ctx context.Context, ent *entity.Enterprise) error
	CreateOrganization(ctx context.Context, org *entity.Organization) error
	CreateRoleAssignment(ctx context.Context, ra *entity.RoleAssignment) error
	GetEnterprise(ctx context.Context, id string) (*entity.Enterprise, error)
	GetOrganization(ctx context.Context, id string) (*entity.Organization, error)
	ListEnterprises(ctx context.Context) ([]*entity.Enterprise, error)
	// ListOrganizations scopes to one enterprise; empty enterpriseID lists all.
	ListOrganizations(ctx context.Context, enterpriseID string) ([]*entity.Organization, error)
	// HasRole reports whether email holds role in any organization.
	HasRole(ctx context.Context, email, role string) (bool, error)
	ListRoleHolders(ctx context.Context, role string) ([]*entity.RoleAssignment, error)
	ListRolesForEmail(ctx context.Context, email string) ([]*entity.RoleAssignment, error)
}

// NotificationRepository defines persistence operations for the
// notification queue
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// ListPending returns PENDING rows oldest first, at most limit.
	ListPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// MarkFailed increments the attempt counter and records lastError;
	// final moves the row to FAILED, otherwise it stays PENDING for retry.
	MarkFailed(ctx context.Context, id, lastError string, final bool) error
}

// EvidenceRepository defines persistence operations for EvidenceFile
type EvidenceRepository interface {
	Create(ctx context.Context, f *entity.EvidenceFile) error
	GetByID(ctx context.Context, id string) (*entity.EvidenceFile, error)
	ListByRequestID(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error)
}

// ScreeningRepository defines persistence operations for ClaimScreening
type ScreeningRepository interface {
	Create(ctx context.Context, s *entity.ClaimScreening) error
	GetLatestByRequestID(ctx context.Context, requestID string) (*entity.ClaimScreening, error)
}

// MatchRepository defines persistence operations for MatchSuggestion
type MatchRepository interface {
	// Upsert inserts the suggestion or refreshes the score of an existing
	// (lost, found) pair. Returns true when the pair was new.
	Upsert(ctx context.Context, m *entity.MatchSuggestion) (bool, error)
	// ListForItem returns suggestions where itemID is either side of the
	// pair, highest score first.
	ListForItem(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error)
}

// ReleaseFormRepository defines persistence operations for ReleaseForm
type ReleaseFormRepository interface {
	Create(ctx context.Context, f *entity.ReleaseForm) error
	GetByRequestID(ctx context.Context, requestID string) (*entity.ReleaseForm, error)
}

// TransactionManager defines transaction boundary operations
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
