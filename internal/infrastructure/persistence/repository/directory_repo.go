package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// DirectoryRepository implements port.DirectoryRepository
type DirectoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sql.DB, logger *zap.Logger) port.DirectoryRepository {
	return &DirectoryRepository{
		db:     db,
		logger: logger,
	}
}

// CreateEnterprise registers a top-level enterprise
func (r *DirectoryRepository) CreateEnterprise(ctx context.Context, ent *entity.Enterprise) error {
	query := `
		INSERT INTO enterprises (id, name, type, coordinator_role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		ent.ID, ent.Name, ent.Type, ent.CoordinatorRole, ent.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create enterprise", zap.String("name", ent.Name), zap.Error(err))
		return fmt.Errorf("failed to create enterprise: %w", err)
	}
	return nil
}

// CreateOrganization registers an organization under an enterprise
func (r *DirectoryRepository) CreateOrganization(ctx context.Context, org *entity.Organization) error {
	query := `
		INSERT INTO organizations (id, enterprise_id, name, owner_role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		org.ID, org.EnterpriseID, org.Name, org.OwnerRole, org.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create organization", zap.String("name", org.Name), zap.Error(err))
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// CreateRoleAssignment grants a role to a user
func (r *DirectoryRepository) CreateRoleAssignment(ctx context.Context, ra *entity.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (id, email, role, organization_id, enterprise_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		ra.ID, ra.Email, ra.Role, ra.OrganizationID, ra.EnterpriseID, ra.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create role assignment",
			zap.String("email", ra.Email),
			zap.String("role", ra.Role),
			zap.Error(err))
		return fmt.Errorf("failed to create role assignment: %w", err)
	}
	return nil
}

// GetEnterprise retrieves an enterprise, or nil when the id is unknown
func (r *DirectoryRepository) GetEnterprise(ctx context.Context, id string) (*entity.Enterprise, error) {
	query := `SELECT id, name, type, coordinator_role, created_at FROM enterprises WHERE id = ?`

	var ent entity.Enterprise
	var coordinatorRole sql.NullString
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&ent.ID, &ent.Name, &ent.Type, &coordinatorRole, &ent.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get enterprise", zap.String("enterprise_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get enterprise: %w", err)
	}
	ent.CoordinatorRole = coordinatorRole.String
	return &ent, nil
}

// GetOrganization retrieves an organization, or nil when the id is unknown
func (r *DirectoryRepository) GetOrganization(ctx context.Context, id string) (*entity.Organization, error) {
	query := `SELECT id, enterprise_id, name, owner_role, created_at FROM organizations WHERE id = ?`

	var org entity.Organization
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.EnterpriseID, &org.Name, &org.OwnerRole, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get organization", zap.String("organization_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// ListEnterprises retrieves all enterprises
func (r *DirectoryRepository) ListEnterprises(ctx context.Context) ([]*entity.Enterprise, error) {
	query := `SELECT id, name, type, coordinator_role, created_at FROM enterprises ORDER BY name ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list enterprises", zap.Error(err))
		return nil, fmt.Errorf("failed to list enterprises: %w", err)
	}
	defer rows.Close()

	var enterprises []*entity.Enterprise
	for rows.Next() {
		var ent entity.Enterprise
		var coordinatorRole sql.NullString
		if err := rows.Scan(&ent.ID, &ent.Name, &ent.Type, &coordinatorRole, &ent.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enterprise: %w", err)
		}
		ent.CoordinatorRole = coordinatorRole.String
		enterprises = append(enterprises, &ent)
	}
	return enterprises, rows.Err()
}

// ListOrganizations scopes to one enterprise; empty enterpriseID lists all
func (r *DirectoryRepository) ListOrganizations(ctx context.Context, enterpriseID string) ([]*entity.Organization, error) {
	query := `SELECT id, enterprise_id, name, owner_role, created_at FROM organizations`
	args := []interface{}{}
	if enterpriseID != "" {
		query += " WHERE enterprise_id = ?"
		args = append(args, enterpriseID)
	}
	query += " ORDER BY name ASC"

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list organizations", zap.String("enterprise_id", enterpriseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var organizations []*entity.Organization
	for rows.Next() {
		var org entity.Organization
		if err := rows.Scan(&org.ID, &org.EnterpriseID, &org.Name, &org.OwnerRole, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, &org)
	}
	return organizations, rows.Err()
}

// HasRole reports whether email holds role in any organization
func (r *DirectoryRepository) HasRole(ctx context.Context, email, role string) (bool, error) {
	query := `SELECT COUNT(1) FROM role_assignments WHERE email = ? AND role = ?`

	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, email, role).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check role",
			zap.String("email", email),
			zap.String("role", role),
			zap.Error(err))
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return count > 0, nil
}

// ListRoleHolders retrieves every assignment of one role
func (r *DirectoryRepository) ListRoleHolders(ctx context.Context, role string) ([]*entity.RoleAssignment, error) {
	query := `
		SELECT id, email, role, organization_id, enterprise_id, created_at
		FROM role_assignments
		WHERE role = ?
		ORDER BY email ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to list role holders", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to list role holders: %w", err)
	}
	defer rows.Close()

	return r.collectAssignments(rows)
}

// ListRolesForEmail retrieves every role held by one user
func (r *DirectoryRepository) ListRolesForEmail(ctx context.Context, email string) ([]*entity.RoleAssignment, error) {
	query := `
		SELECT id, email, role, organization_id, enterprise_id, created_at
		FROM role_assignments
		WHERE email = ?
		ORDER BY role ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to list roles for email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to list roles for email: %w", err)
	}
	defer rows.Close()

	return r.collectAssignments(rows)
}

func (r *DirectoryRepository) collectAssignments(rows *sql.Rows) ([]*entity.RoleAssignment, error) {
	var assignments []*entity.RoleAssignment
	for rows.Next() {
		var ra entity.RoleAssignment
		if err := rows.Scan(&ra.ID, &ra.Email, &ra.Role, &ra.OrganizationID, &ra.EnterpriseID, &ra.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		assignments = append(assignments, &ra)
	}
	return assignments, rows.Err()
}

// Verify interface compliance
var _ port.DirectoryRepository = (*DirectoryRepository)(nil)
