package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/dispatcher"
	"github.com/unifound/lostfound/internal/application/port"
	appwf "github.com/unifound/lostfound/internal/application/workflow"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/domain/event"
	"github.com/unifound/lostfound/internal/domain/routing"
	domainwf "github.com/unifound/lostfound/internal/domain/workflow"
	"github.com/unifound/lostfound/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateRequestInput carries everything needed to open a work request
type CreateRequestInput struct {
	RequestType               entity.RequestType
	RequesterEmail            string
	RequesterName             string
	RequesterEnterpriseID     string
	RequesterOrganizationID   string
	TargetEnterpriseID        string
	TargetOrganizationID      string
	ItemHoldingEnterpriseType string
	EstimatedValue            float64
	Priority                  entity.Priority
	Description               string
	Payload                   entity.RequestPayload
}

// UpdateRequestInput carries the mutable fields of an open request.
// Nil pointers leave the stored value untouched.
type UpdateRequestInput struct {
	RequestID   string
	ActorEmail  string
	Priority    entity.Priority
	Description *string
	Payload     entity.RequestPayload
}

// RequestService manages the work request lifecycle
type RequestService interface {
	Create(ctx context.Context, input *CreateRequestInput) (*entity.WorkRequest, error)
	Approve(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error)
	Reject(ctx context.Context, requestID, approverEmail, reason string) (*entity.WorkRequest, error)
	Cancel(ctx context.Context, requestID, actorEmail, reason string) (*entity.WorkRequest, error)
	Update(ctx context.Context, input *UpdateRequestInput) (*entity.WorkRequest, error)
	ConfirmPickup(ctx context.Context, requestID, actorEmail string) (*entity.WorkRequest, error)
	RecordAction(ctx context.Context, requestID, actorEmail, action, note string) (*entity.WorkRequest, error)
}

type requestServiceImpl struct {
	requestRepo   port.RequestRepository
	recordRepo    port.ApprovalRecordRepository
	directoryRepo port.DirectoryRepository
	resolver      *routing.Resolver
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	logger        Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	recordRepo port.ApprovalRecordRepository,
	directoryRepo port.DirectoryRepository,
	resolver *routing.Resolver,
	txManager port.TransactionManager,
	disp dispatcher.Dispatcher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo:   requestRepo,
		recordRepo:    recordRepo,
		directoryRepo: directoryRepo,
		resolver:      resolver,
		txManager:     txManager,
		dispatcher:    disp,
		logger:        logger,
	}
}

// Create validates the input, resolves the approval chain, and persists the
// request with its CREATE audit record in one transaction. The chain is
// computed here once and never recomputed.
func (s *requestServiceImpl) Create(ctx context.Context, input *CreateRequestInput) (*entity.WorkRequest, error) {
	if input == nil {
		return nil, NewValidationError("", "missing request body")
	}
	if !input.RequestType.IsValid() {
		return nil, NewValidationError("request_type", fmt.Sprintf("unknown request type: %s", input.RequestType))
	}
	if err := utils.ValidateEmail(input.RequesterEmail); err != nil {
		return nil, NewValidationError("requester_email", err.Error())
	}
	if err := utils.ValidateEstimatedValue(input.EstimatedValue); err != nil {
		return nil, NewValidationError("estimated_value", err.Error())
	}
	if input.Payload == nil {
		return nil, NewValidationError("payload", "payload is required")
	}
	if input.Payload.Type() != input.RequestType {
		return nil, NewValidationError("payload", fmt.Sprintf("payload type %s does not match request type %s", input.Payload.Type(), input.RequestType))
	}
	if err := input.Payload.Validate(); err != nil {
		return nil, NewValidationError("payload", err.Error())
	}

	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, NewValidationError("priority", fmt.Sprintf("unknown priority: %s", priority))
	}

	now := time.Now()
	req := &entity.WorkRequest{
		ID:                        uuid.NewString(),
		RequestType:               input.RequestType,
		Status:                    entity.StatusPending,
		Priority:                  priority,
		RequesterID:               input.RequesterEmail,
		RequesterName:             input.RequesterName,
		RequesterEnterpriseID:     input.RequesterEnterpriseID,
		RequesterOrganizationID:   input.RequesterOrganizationID,
		TargetEnterpriseID:        input.TargetEnterpriseID,
		TargetOrganizationID:      input.TargetOrganizationID,
		ItemHoldingEnterpriseType: input.ItemHoldingEnterpriseType,
		EstimatedValue:            input.EstimatedValue,
		Description:               utils.SanitizeString(input.Description),
		ChainStep:                 0,
		Version:                   1,
		Payload:                   input.Payload,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	chain, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.logger.Error("Chain resolution failed", "error", err, "request_type", req.RequestType)
		return nil, err
	}
	req.Chain = chain
	req.CurrentRole = chain[0]

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		record := s.newRecord(req, entity.ActionCreate, input.RequesterEmail, "", "", entity.StatusPending, "")
		if err := s.recordRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "request_type", req.RequestType)
		return nil, err
	}

	s.logger.Info("Request created",
		"request_id", req.ID,
		"request_type", req.RequestType,
		"chain", strings.Join(chain, ","),
		"priority", req.Priority,
	)

	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCreated, req.ID, map[string]interface{}{
		"request_type": string(req.RequestType),
		"current_role": req.CurrentRole,
		"priority":     string(req.Priority),
	}))

	return req, nil
}

// Approve advances the request one chain step, or completes it when the
// current step is the last. Exactly one of any set of concurrent approvers
// wins the version check; the rest receive AlreadyAdvancedError.
func (s *requestServiceImpl) Approve(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error) {
	return s.decide(ctx, requestID, approverEmail, entity.ActionApprove, "")
}

// ConfirmPickup records the physical handover. For transfer requests the
// destination confirming pickup is the approval itself; for the MBTA
// emergency handoff it only acknowledges custody (PENDING to IN_PROGRESS)
// and the airport side still approves separately.
func (s *requestServiceImpl) ConfirmPickup(ctx context.Context, requestID, actorEmail string) (*entity.WorkRequest, error) {
	req, err := s.loadLive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch {
	case req.RequestType.IsTransfer():
		return s.decide(ctx, requestID, actorEmail, entity.ActionConfirmPickup, "")
	case req.RequestType == entity.RequestTypeMBTAEmergency:
		return s.confirmEmergencyPickup(ctx, req, actorEmail)
	default:
		return nil, NewValidationError("request_type", fmt.Sprintf("pickup confirmation does not apply to %s requests", req.RequestType))
	}
}

// decide runs the shared approve path for ACTION in {APPROVE, CONFIRM_PICKUP}
func (s *requestServiceImpl) decide(ctx context.Context, requestID, approverEmail, action, note string) (*entity.WorkRequest, error) {
	req, err := s.loadLive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	requiredRole, err := s.authorizeCurrentStep(ctx, req, approverEmail)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildRequestStateMachine(req)
	if err := machine.Fire(ctx, domainwf.TriggerApprove); err != nil {
		return nil, fmt.Errorf("fire approve: %w", err)
	}

	fromStatus := req.Status
	actedStep := req.ChainStep
	expected := req.Version
	now := time.Now()

	req.Status = machine.State().String()
	req.UpdatedAt = now
	if req.Status == entity.StatusApproved {
		req.DecidedBy = approverEmail
		req.DecidedAt = &now
	} else {
		req.ChainStep++
		req.CurrentRole = req.Chain[req.ChainStep]
	}

	record := s.newRecord(req, action, approverEmail, requiredRole, fromStatus, req.Status, note)
	record.StepIndex = actedStep

	if err := s.store(ctx, req, expected, record); err != nil {
		return nil, err
	}

	if req.Status == entity.StatusApproved {
		s.logger.Info("Request approved", "request_id", req.ID, "approver", approverEmail, "step", actedStep)
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestApproved, req.ID, map[string]interface{}{
			"request_type": string(req.RequestType),
			"decided_by":   approverEmail,
		}))
	} else {
		s.logger.Info("Request advanced", "request_id", req.ID, "approver", approverEmail, "step", req.ChainStep, "current_role", req.CurrentRole)
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestAdvanced, req.ID, map[string]interface{}{
			"request_type": string(req.RequestType),
			"current_role": req.CurrentRole,
			"chain_step":   req.ChainStep,
		}))
	}

	return req, nil
}

// Reject terminates the request at any chain position. The rejection reason
// is mandatory and lands in both the request and its audit record.
func (s *requestServiceImpl) Reject(ctx context.Context, requestID, approverEmail, reason string) (*entity.WorkRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("reason", "rejection reason is required")
	}

	req, err := s.loadLive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	requiredRole, err := s.authorizeCurrentStep(ctx, req, approverEmail)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildRequestStateMachine(req)
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, fmt.Errorf("fire reject: %w", err)
	}

	fromStatus := req.Status
	expected := req.Version
	now := time.Now()

	req.Status = entity.StatusRejected
	req.DecidedBy = approverEmail
	req.DecidedAt = &now
	req.DecisionReason = reason
	req.UpdatedAt = now

	record := s.newRecord(req, entity.ActionReject, approverEmail, requiredRole, fromStatus, req.Status, reason)

	if err := s.store(ctx, req, expected, record); err != nil {
		return nil, err
	}

	s.logger.Info("Request rejected", "request_id", req.ID, "approver", approverEmail, "reason", reason)
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestRejected, req.ID, map[string]interface{}{
		"request_type": string(req.RequestType),
		"decided_by":   approverEmail,
		"reason":       reason,
	}))

	return req, nil
}

// Cancel withdraws a request. The requester may cancel their own request;
// a holder of the current step's role may cancel on an org's behalf.
func (s *requestServiceImpl) Cancel(ctx context.Context, requestID, actorEmail, reason string) (*entity.WorkRequest, error) {
	req, err := s.loadLive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	actorRole, err := s.requireStanding(ctx, req, actorEmail)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildRequestStateMachine(req)
	if err := machine.Fire(ctx, domainwf.TriggerCancel); err != nil {
		return nil, fmt.Errorf("fire cancel: %w", err)
	}

	fromStatus := req.Status
	expected := req.Version
	now := time.Now()

	req.Status = entity.StatusCancelled
	req.DecidedBy = actorEmail
	req.DecidedAt = &now
	req.DecisionReason = reason
	req.UpdatedAt = now

	record := s.newRecord(req, entity.ActionCancel, actorEmail, actorRole, fromStatus, req.Status, reason)

	if err := s.store(ctx, req, expected, record); err != nil {
		return nil, err
	}

	s.logger.Info("Request cancelled", "request_id", req.ID, "actor", actorEmail)
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCancelled, req.ID, map[string]interface{}{
		"request_type": string(req.RequestType),
		"decided_by":   actorEmail,
		"reason":       reason,
	}))

	return req, nil
}

// Update edits the mutable surface of an open request: priority,
// description, and payload detail fields. Routing inputs are frozen at
// creation; changing the request type, the referenced item, or any field
// the resolver reads is rejected.
func (s *requestServiceImpl) Update(ctx context.Context, input *UpdateRequestInput) (*entity.WorkRequest, error) {
	if input == nil {
		return nil, NewValidationError("", "missing request body")
	}

	req, err := s.loadLive(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	actorRole, err := s.requireStanding(ctx, req, input.ActorEmail)
	if err != nil {
		return nil, err
	}

	var changed []string

	if input.Priority != "" {
		if !input.Priority.IsValid() {
			return nil, NewValidationError("priority", fmt.Sprintf("unknown priority: %s", input.Priority))
		}
		if input.Priority != req.Priority {
			req.Priority = input.Priority
			changed = append(changed, "priority")
		}
	}

	if input.Description != nil {
		req.Description = utils.SanitizeString(*input.Description)
		changed = append(changed, "description")
	}

	if input.Payload != nil {
		if input.Payload.Type() != req.RequestType {
			return nil, NewValidationError("payload", "request type cannot change")
		}
		if err := input.Payload.Validate(); err != nil {
			return nil, NewValidationError("payload", err.Error())
		}
		if input.Payload.ItemRef() != req.Payload.ItemRef() {
			return nil, NewValidationError("payload.item_id", "item reference cannot change")
		}
		req.Payload = input.Payload
		changed = append(changed, "payload")
	}

	if len(changed) == 0 {
		return req, nil
	}

	expected := req.Version
	req.UpdatedAt = time.Now()

	record := s.newRecord(req, entity.ActionUpdate, input.ActorEmail, actorRole, req.Status, req.Status, strings.Join(changed, ", "))

	if err := s.store(ctx, req, expected, record); err != nil {
		return nil, err
	}

	s.logger.Info("Request updated", "request_id", req.ID, "actor", input.ActorEmail, "fields", strings.Join(changed, ","))
	return req, nil
}

// RecordAction appends an audit-only sub-action for the MBTA emergency
// handoff (courier dispatched, traveler contacted). Status never changes.
func (s *requestServiceImpl) RecordAction(ctx context.Context, requestID, actorEmail, action, note string) (*entity.WorkRequest, error) {
	if action != entity.ActionDispatchCourier && action != entity.ActionContactTraveler {
		return nil, NewValidationError("action", fmt.Sprintf("unknown action: %s", action))
	}

	req, err := s.loadLive(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequestType != entity.RequestTypeMBTAEmergency {
		return nil, NewValidationError("request_type", fmt.Sprintf("%s applies only to emergency handoffs", action))
	}

	actorRole, err := s.requireStanding(ctx, req, actorEmail)
	if err != nil {
		return nil, err
	}

	record := s.newRecord(req, action, actorEmail, actorRole, req.Status, req.Status, note)
	if err := s.recordRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record action", "error", err, "request_id", requestID, "action", action)
		return nil, fmt.Errorf("create audit record: %w", err)
	}

	s.logger.Info("Action recorded", "request_id", requestID, "action", action, "actor", actorEmail)
	return req, nil
}

// confirmEmergencyPickup moves an emergency handoff from PENDING to
// IN_PROGRESS without advancing the chain
func (s *requestServiceImpl) confirmEmergencyPickup(ctx context.Context, req *entity.WorkRequest, actorEmail string) (*entity.WorkRequest, error) {
	requiredRole, err := s.authorizeCurrentStep(ctx, req, actorEmail)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildRequestStateMachine(req)
	if err := machine.Fire(ctx, domainwf.TriggerConfirmPickup); err != nil {
		return nil, fmt.Errorf("fire confirm pickup: %w", err)
	}

	fromStatus := req.Status
	expected := req.Version

	req.Status = machine.State().String()
	req.UpdatedAt = time.Now()

	record := s.newRecord(req, entity.ActionConfirmPickup, actorEmail, requiredRole, fromStatus, req.Status, "")

	if err := s.store(ctx, req, expected, record); err != nil {
		return nil, err
	}

	s.logger.Info("Emergency pickup confirmed", "request_id", req.ID, "actor", actorEmail)
	return req, nil
}

// loadLive fetches a request and rejects terminal ones
func (s *requestServiceImpl) loadLive(ctx context.Context, requestID string) (*entity.WorkRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to load request", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("request", requestID)
	}
	if req.IsTerminal() {
		return nil, &AlreadyTerminalError{RequestID: req.ID, Status: req.Status}
	}
	return req, nil
}

// authorizeCurrentStep verifies the actor holds the role the current chain
// step requires. Any holder of the role may act, not a specific assignee.
func (s *requestServiceImpl) authorizeCurrentStep(ctx context.Context, req *entity.WorkRequest, actorEmail string) (string, error) {
	requiredRole := req.RoleAtCurrentStep()
	if requiredRole == "" {
		return "", fmt.Errorf("request %s has no role at step %d", req.ID, req.ChainStep)
	}

	has, err := s.directoryRepo.HasRole(ctx, actorEmail, requiredRole)
	if err != nil {
		return "", fmt.Errorf("check role: %w", err)
	}
	if !has {
		return "", &NotAuthorizedError{ActorEmail: actorEmail, RequiredRole: requiredRole, RequestID: req.ID}
	}
	return requiredRole, nil
}

// requireStanding accepts the requester or a holder of the current step's
// role. Returns the role the actor acted under, empty for the requester.
func (s *requestServiceImpl) requireStanding(ctx context.Context, req *entity.WorkRequest, actorEmail string) (string, error) {
	if actorEmail == req.RequesterID {
		return "", nil
	}
	role, err := s.authorizeCurrentStep(ctx, req, actorEmail)
	if err != nil {
		var notAuthorized *NotAuthorizedError
		if errors.As(err, &notAuthorized) {
			return "", &NotAuthorizedError{ActorEmail: actorEmail, RequestID: req.ID}
		}
		return "", err
	}
	return role, nil
}

// store writes the mutated request and its audit record in one transaction,
// guarded by the version loaded at the start of the operation
func (s *requestServiceImpl) store(ctx context.Context, req *entity.WorkRequest, expectedVersion int64, record *entity.ApprovalRecord) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Update(txCtx, req, expectedVersion); err != nil {
			return err
		}
		if err := s.recordRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, port.ErrVersionConflict) {
			s.logger.Info("Concurrent update lost version race", "request_id", req.ID, "expected_version", expectedVersion)
			return &AlreadyAdvancedError{RequestID: req.ID}
		}
		s.logger.Error("Failed to store request", "error", err, "request_id", req.ID)
		return err
	}
	req.Version = expectedVersion + 1
	return nil
}

// newRecord builds an audit record positioned at the request's current step
func (s *requestServiceImpl) newRecord(req *entity.WorkRequest, action, actorEmail, actorRole, fromStatus, toStatus, note string) *entity.ApprovalRecord {
	return &entity.ApprovalRecord{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		StepIndex:  req.ChainStep,
		Action:     action,
		ActorEmail: actorEmail,
		ActorRole:  actorRole,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Note:       note,
		CreatedAt:  time.Now(),
	}
}
