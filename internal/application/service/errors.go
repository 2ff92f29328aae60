package service

import "fmt"

// ValidationError reports invalid caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a named field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a lookup for a resource that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NotAuthorizedError reports an actor without standing for the attempted
// action. For approvals the required role is the current chain step's role.
type NotAuthorizedError struct {
	ActorEmail   string
	RequiredRole string
	RequestID    string
}

func (e *NotAuthorizedError) Error() string {
	if e.RequiredRole == "" {
		return fmt.Sprintf("%s is not authorized to act on request %s", e.ActorEmail, e.RequestID)
	}
	return fmt.Sprintf("%s does not hold role %s required by request %s", e.ActorEmail, e.RequiredRole, e.RequestID)
}

// AlreadyTerminalError reports a mutation against a request that already
// reached a final status
type AlreadyTerminalError struct {
	RequestID string
	Status    string
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("request %s is already %s", e.RequestID, e.Status)
}

// AlreadyAdvancedError reports a lost optimistic-concurrency race: another
// writer advanced the request between this caller's load and store
type AlreadyAdvancedError struct {
	RequestID string
}

func (e *AlreadyAdvancedError) Error() string {
	return fmt.Sprintf("request %s was advanced by a concurrent update", e.RequestID)
}
