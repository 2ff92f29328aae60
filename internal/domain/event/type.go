package event

// Type names a domain event. Request lifecycle events carry the ID of
// the request they concern; match events carry the item pair in the
// payload instead.
type Type string

const (
	TypeRequestCreated   Type = "request.created"
	TypeRequestAdvanced  Type = "request.advanced"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeRequestCancelled Type = "request.cancelled"
	TypeMatchFound       Type = "match.found"
)
