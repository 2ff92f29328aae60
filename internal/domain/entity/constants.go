package entity

// RequestType identifies the concrete work request variant. The set is
// closed; switches over it are expected to cover every member.
type RequestType string

const (
	RequestTypeItemClaim           RequestType = "ITEM_CLAIM"
	RequestTypeCrossCampusTransfer RequestType = "CROSS_CAMPUS_TRANSFER"
	RequestTypeTransitTransfer     RequestType = "TRANSIT_TO_UNIVERSITY_TRANSFER"
	RequestTypeAirportTransfer     RequestType = "AIRPORT_TO_UNIVERSITY_TRANSFER"
	RequestTypePoliceEvidence      RequestType = "POLICE_EVIDENCE_REQUEST"
	RequestTypeMBTAEmergency       RequestType = "MBTA_TO_AIRPORT_EMERGENCY"
	RequestTypeDispute             RequestType = "MULTI_ENTERPRISE_DISPUTE"
)

// AllRequestTypes lists every known request variant.
var AllRequestTypes = []RequestType{
	RequestTypeItemClaim,
	RequestTypeCrossCampusTransfer,
	RequestTypeTransitTransfer,
	RequestTypeAirportTransfer,
	RequestTypePoliceEvidence,
	RequestTypeMBTAEmergency,
	RequestTypeDispute,
}

// IsValid returns true if the request type is a known variant
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeItemClaim, RequestTypeCrossCampusTransfer,
		RequestTypeTransitTransfer, RequestTypeAirportTransfer,
		RequestTypePoliceEvidence, RequestTypeMBTAEmergency,
		RequestTypeDispute:
		return true
	}
	return false
}

// IsTransfer returns true for the custody transfer variants
func (t RequestType) IsTransfer() bool {
	switch t {
	case RequestTypeCrossCampusTransfer, RequestTypeTransitTransfer, RequestTypeAirportTransfer:
		return true
	}
	return false
}

// Priority orders requests in approval queues. It is set at creation and
// never changed automatically.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Rank maps a priority to its sort weight; larger sorts first
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// IsValid returns true if the priority is a known level
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Status constants for WorkRequest
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusCancelled  = "CANCELLED"
)

// Item type constants
const (
	ItemTypeLost  = "LOST"
	ItemTypeFound = "FOUND"
)

// Item status constants
const (
	ItemStatusOpen         = "OPEN"
	ItemStatusPendingClaim = "PENDING_CLAIM"
	ItemStatusVerified     = "VERIFIED"
	ItemStatusClaimed      = "CLAIMED"
	ItemStatusCancelled    = "CANCELLED"
)

// Enterprise type constants
const (
	EnterpriseTypeUniversity = "UNIVERSITY"
	EnterpriseTypeTransit    = "TRANSIT"
	EnterpriseTypeAirport    = "AIRPORT"
	EnterpriseTypePolice     = "POLICE"
)

// Audit action constants for ApprovalRecord
const (
	ActionCreate          = "CREATE"
	ActionApprove         = "APPROVE"
	ActionReject          = "REJECT"
	ActionCancel          = "CANCEL"
	ActionUpdate          = "UPDATE"
	ActionConfirmPickup   = "CONFIRM_PICKUP"
	ActionDispatchCourier = "DISPATCH_COURIER"
	ActionContactTraveler = "CONTACT_TRAVELER"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification channel constants
const (
	NotificationChannelLark  = "LARK"
	NotificationChannelEmail = "EMAIL"
)

// Screening verdict constants
const (
	ScreeningVerdictConsistent   = "CONSISTENT"
	ScreeningVerdictInconsistent = "INCONSISTENT"
	ScreeningVerdictUncertain    = "UNCERTAIN"
)
