package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// NotificationService composes recipient sets and enqueues notification
// rows. Delivery happens out of band in the notification worker.
type NotificationService interface {
	// NotifyCurrentStep queues a message for every holder of the role the
	// request currently waits on.
	NotifyCurrentStep(ctx context.Context, requestID string) error
	// NotifyOutcome tells the requester their request reached a final status.
	NotifyOutcome(ctx context.Context, requestID string) error
	// NotifyMatchFound tells a lost-item reporter about a candidate found item.
	NotifyMatchFound(ctx context.Context, suggestion *entity.MatchSuggestion) error
}

type notificationServiceImpl struct {
	requestRepo      port.RequestRepository
	notificationRepo port.NotificationRepository
	directoryRepo    port.DirectoryRepository
	itemRepo         port.ItemRepository
	txManager        port.TransactionManager
	approverChannel  string
	requesterChannel string
	logger           Logger
}

// NewNotificationService creates a new NotificationService. approverChannel
// and requesterChannel pick the delivery channel per audience.
func NewNotificationService(
	requestRepo port.RequestRepository,
	notificationRepo port.NotificationRepository,
	directoryRepo port.DirectoryRepository,
	itemRepo port.ItemRepository,
	txManager port.TransactionManager,
	approverChannel string,
	requesterChannel string,
	logger Logger,
) NotificationService {
	if approverChannel == "" {
		approverChannel = entity.NotificationChannelLark
	}
	if requesterChannel == "" {
		requesterChannel = entity.NotificationChannelEmail
	}
	return &notificationServiceImpl{
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		directoryRepo:    directoryRepo,
		itemRepo:         itemRepo,
		txManager:        txManager,
		approverChannel:  approverChannel,
		requesterChannel: requesterChannel,
		logger:           logger,
	}
}

// NotifyCurrentStep queues one notification per holder of the current role
func (s *notificationServiceImpl) NotifyCurrentStep(ctx context.Context, requestID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req == nil || req.IsTerminal() {
		return nil
	}

	role := req.RoleAtCurrentStep()
	holders, err := s.directoryRepo.ListRoleHolders(ctx, role)
	if err != nil {
		s.logger.Error("Failed to list role holders", "error", err, "role", role, "request_id", requestID)
		return fmt.Errorf("list role holders: %w", err)
	}
	if len(holders) == 0 {
		s.logger.Info("No holders for role, nothing to notify", "role", role, "request_id", requestID)
		return nil
	}

	subject := fmt.Sprintf("[%s] Approval needed: %s", req.Priority, req.RequestType)
	body := fmt.Sprintf(
		"Request %s (%s) from %s is waiting on role %s at step %d of %d.\n%s",
		req.ID, req.RequestType, req.RequesterID, role, req.ChainStep+1, len(req.Chain), req.Description,
	)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, holder := range holders {
			n := s.newNotification(holder.Email, s.approverChannel, subject, body, req.ID)
			if err := s.notificationRepo.Create(txCtx, n); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to queue step notifications", "error", err, "request_id", requestID)
		return err
	}

	s.logger.Info("Queued step notifications", "request_id", requestID, "role", role, "recipients", len(holders))
	return nil
}

// NotifyOutcome queues the terminal-status message for the requester
func (s *notificationServiceImpl) NotifyOutcome(ctx context.Context, requestID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req == nil || !req.IsTerminal() {
		return nil
	}

	subject := fmt.Sprintf("Your %s request was %s", req.RequestType, req.Status)
	body := fmt.Sprintf("Request %s reached status %s.", req.ID, req.Status)
	if req.DecisionReason != "" {
		body = fmt.Sprintf("%s\nReason: %s", body, req.DecisionReason)
	}

	n := s.newNotification(req.RequesterID, s.requesterChannel, subject, body, req.ID)
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to queue outcome notification", "error", err, "request_id", requestID)
		return fmt.Errorf("create notification: %w", err)
	}

	s.logger.Info("Queued outcome notification", "request_id", requestID, "recipient", req.RequesterID, "status", req.Status)
	return nil
}

// NotifyMatchFound queues a suggestion message for the lost-item reporter
func (s *notificationServiceImpl) NotifyMatchFound(ctx context.Context, suggestion *entity.MatchSuggestion) error {
	lost, err := s.itemRepo.GetByID(ctx, suggestion.LostItemID)
	if err != nil {
		return fmt.Errorf("get lost item: %w", err)
	}
	found, err := s.itemRepo.GetByID(ctx, suggestion.FoundItemID)
	if err != nil {
		return fmt.Errorf("get found item: %w", err)
	}
	if lost == nil || found == nil || lost.ReportedBy == "" {
		return nil
	}

	subject := fmt.Sprintf("Possible match for your lost item: %s", lost.Title)
	body := fmt.Sprintf(
		"A found item (%s, held at organization %s) scored %.0f%% against your report %s.",
		found.Title, found.OrganizationID, suggestion.Score*100, lost.ID,
	)

	n := s.newNotification(lost.ReportedBy, s.requesterChannel, subject, body, "")
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to queue match notification", "error", err, "lost_item_id", lost.ID)
		return fmt.Errorf("create notification: %w", err)
	}

	s.logger.Info("Queued match notification", "lost_item_id", lost.ID, "found_item_id", found.ID, "score", suggestion.Score)
	return nil
}

func (s *notificationServiceImpl) newNotification(recipient, channel, subject, body, requestID string) *entity.Notification {
	return &entity.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Channel:   channel,
		Subject:   subject,
		Body:      body,
		RequestID: requestID,
		Status:    entity.NotificationStatusPending,
		CreatedAt: time.Now(),
	}
}
