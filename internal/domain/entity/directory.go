package entity

import "time"

// Enterprise is a top-level organization (a university, the MBTA, an
// airport, a police department) that owns one or more organizations.
type Enterprise struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	CoordinatorRole string    `json:"coordinator_role"`
	CreatedAt       time.Time `json:"created_at"`
}

// Organization is a department, station, or campus office within an
// enterprise; the custodian of physical items.
type Organization struct {
	ID           string    `json:"id"`
	EnterpriseID string    `json:"enterprise_id"`
	Name         string    `json:"name"`
	OwnerRole    string    `json:"owner_role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleAssignment grants a role to a user within an organization
type RoleAssignment struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	OrganizationID string    `json:"organization_id"`
	EnterpriseID   string    `json:"enterprise_id"`
	CreatedAt      time.Time `json:"created_at"`
}
