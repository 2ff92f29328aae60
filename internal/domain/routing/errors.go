package routing

import "fmt"

// RoutingError indicates an approval chain could not be resolved. Requests
// that cannot be routed are rejected at creation rather than stored with a
// hole in their chain.
type RoutingError struct {
	RequestID   string
	RequestType string
	Reason      string
}

func (e *RoutingError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("routing failed for request %s (%s): %s", e.RequestID, e.RequestType, e.Reason)
	}
	return fmt.Sprintf("routing failed for %s request: %s", e.RequestType, e.Reason)
}

// NewRoutingError builds a RoutingError for a request type and reason
func NewRoutingError(requestType, reason string) *RoutingError {
	return &RoutingError{RequestType: requestType, Reason: reason}
}
