package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/pkg/utils"
)

// DirectoryService manages the enterprise and organization registry that
// routing and authorization read from
type DirectoryService interface {
	CreateEnterprise(ctx context.Context, name, enterpriseType, coordinatorRole string) (*entity.Enterprise, error)
	CreateOrganization(ctx context.Context, enterpriseID, name, ownerRole string) (*entity.Organization, error)
	AssignRole(ctx context.Context, email, role, organizationID string) (*entity.RoleAssignment, error)
	ListEnterprises(ctx context.Context) ([]*entity.Enterprise, error)
	ListOrganizations(ctx context.Context, enterpriseID string) ([]*entity.Organization, error)
}

type directoryServiceImpl struct {
	directoryRepo port.DirectoryRepository
	logger        Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(directoryRepo port.DirectoryRepository, logger Logger) DirectoryService {
	return &directoryServiceImpl{directoryRepo: directoryRepo, logger: logger}
}

var validEnterpriseTypes = map[string]bool{
	entity.EnterpriseTypeUniversity: true,
	entity.EnterpriseTypeTransit:    true,
	entity.EnterpriseTypeAirport:    true,
	entity.EnterpriseTypePolice:     true,
}

// CreateEnterprise registers a top-level enterprise
func (s *directoryServiceImpl) CreateEnterprise(ctx context.Context, name, enterpriseType, coordinatorRole string) (*entity.Enterprise, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if !validEnterpriseTypes[enterpriseType] {
		return nil, NewValidationError("type", fmt.Sprintf("unknown enterprise type: %s", enterpriseType))
	}

	ent := &entity.Enterprise{
		ID:              uuid.NewString(),
		Name:            name,
		Type:            enterpriseType,
		CoordinatorRole: coordinatorRole,
		CreatedAt:       time.Now(),
	}
	if err := s.directoryRepo.CreateEnterprise(ctx, ent); err != nil {
		s.logger.Error("Failed to create enterprise", "error", err, "name", name)
		return nil, fmt.Errorf("create enterprise: %w", err)
	}

	s.logger.Info("Enterprise created", "enterprise_id", ent.ID, "type", ent.Type)
	return ent, nil
}

// CreateOrganization registers an organization under an enterprise
func (s *directoryServiceImpl) CreateOrganization(ctx context.Context, enterpriseID, name, ownerRole string) (*entity.Organization, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if ownerRole == "" {
		return nil, NewValidationError("owner_role", "owner role is required")
	}

	ent, err := s.directoryRepo.GetEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, fmt.Errorf("get enterprise: %w", err)
	}
	if ent == nil {
		return nil, NewNotFoundError("enterprise", enterpriseID)
	}

	org := &entity.Organization{
		ID:           uuid.NewString(),
		EnterpriseID: enterpriseID,
		Name:         name,
		OwnerRole:    ownerRole,
		CreatedAt:    time.Now(),
	}
	if err := s.directoryRepo.CreateOrganization(ctx, org); err != nil {
		s.logger.Error("Failed to create organization", "error", err, "name", name)
		return nil, fmt.Errorf("create organization: %w", err)
	}

	s.logger.Info("Organization created", "organization_id", org.ID, "enterprise_id", enterpriseID)
	return org, nil
}

// AssignRole grants a role to a user within an organization
func (s *directoryServiceImpl) AssignRole(ctx context.Context, email, role, organizationID string) (*entity.RoleAssignment, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, NewValidationError("email", err.Error())
	}
	if role == "" {
		return nil, NewValidationError("role", "role is required")
	}

	org, err := s.directoryRepo.GetOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	if org == nil {
		return nil, NewNotFoundError("organization", organizationID)
	}

	ra := &entity.RoleAssignment{
		ID:             uuid.NewString(),
		Email:          email,
		Role:           role,
		OrganizationID: org.ID,
		EnterpriseID:   org.EnterpriseID,
		CreatedAt:      time.Now(),
	}
	if err := s.directoryRepo.CreateRoleAssignment(ctx, ra); err != nil {
		s.logger.Error("Failed to assign role", "error", err, "email", email, "role", role)
		return nil, fmt.Errorf("create role assignment: %w", err)
	}

	s.logger.Info("Role assigned", "email", email, "role", role, "organization_id", org.ID)
	return ra, nil
}

// ListEnterprises retrieves all enterprises
func (s *directoryServiceImpl) ListEnterprises(ctx context.Context) ([]*entity.Enterprise, error) {
	enterprises, err := s.directoryRepo.ListEnterprises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enterprises: %w", err)
	}
	return enterprises, nil
}

// ListOrganizations retrieves organizations, optionally scoped to one enterprise
func (s *directoryServiceImpl) ListOrganizations(ctx context.Context, enterpriseID string) ([]*entity.Organization, error) {
	organizations, err := s.directoryRepo.ListOrganizations(ctx, enterpriseID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return organizations, nil
}
