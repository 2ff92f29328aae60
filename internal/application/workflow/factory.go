package workflow

import (
	"context"

	"github.com/unifound/lostfound/internal/domain/entity"
	domainwf "github.com/unifound/lostfound/internal/domain/workflow"
)

// BuildRequestStateMachine creates a state machine positioned at the
// request's current status. Firing APPROVE on the last chain step completes
// the request; on an earlier step it lands in IN_PROGRESS and the caller
// advances the step counter. The MBTA emergency handoff also accepts
// CONFIRM_PICKUP from PENDING to acknowledge custody without approving.
func BuildRequestStateMachine(req *entity.WorkRequest) *domainwf.Machine {
	lastStep := req.IsLastStep()
	onFinalStep := domainwf.Guard(func(ctx context.Context) bool { return lastStep })
	beforeFinalStep := domainwf.Guard(func(ctx context.Context) bool { return !lastStep })

	rules := []domainwf.Rule{
		{From: domainwf.StatePending, Trigger: domainwf.TriggerApprove, To: domainwf.StateApproved, When: onFinalStep},
		{From: domainwf.StatePending, Trigger: domainwf.TriggerApprove, To: domainwf.StateInProgress, When: beforeFinalStep},
		{From: domainwf.StatePending, Trigger: domainwf.TriggerReject, To: domainwf.StateRejected},
		{From: domainwf.StatePending, Trigger: domainwf.TriggerCancel, To: domainwf.StateCancelled},
		{From: domainwf.StateInProgress, Trigger: domainwf.TriggerApprove, To: domainwf.StateApproved, When: onFinalStep},
		{From: domainwf.StateInProgress, Trigger: domainwf.TriggerApprove, To: domainwf.StateInProgress, When: beforeFinalStep},
		{From: domainwf.StateInProgress, Trigger: domainwf.TriggerReject, To: domainwf.StateRejected},
		{From: domainwf.StateInProgress, Trigger: domainwf.TriggerCancel, To: domainwf.StateCancelled},
	}

	// APPROVED, REJECTED and CANCELLED are terminal: no outgoing rules.
	if req.RequestType == entity.RequestTypeMBTAEmergency {
		rules = append(rules, domainwf.Rule{
			From: domainwf.StatePending, Trigger: domainwf.TriggerConfirmPickup, To: domainwf.StateInProgress,
		})
	}

	return domainwf.NewMachine(domainwf.State(req.Status), rules)
}
