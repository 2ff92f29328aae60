package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// NotificationWorkerConfig holds configuration for the notification worker
type NotificationWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// DefaultNotificationWorkerConfig returns default configuration
func DefaultNotificationWorkerConfig() NotificationWorkerConfig {
	return NotificationWorkerConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
		MaxAttempts:  5,
	}
}

// NotificationWorker drains PENDING notifications and delivers each one
// over its channel. Delivery failures stay PENDING until MaxAttempts is
// reached, then the row is marked FAILED.
type NotificationWorker struct {
	config NotificationWorkerConfig

	notificationRepo port.NotificationRepository
	messenger        port.Messenger
	emailSender      port.EmailSender
	logger           *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	isRunning   bool
	sentCount   int
	failedCount int
}

// NewNotificationWorker creates a new notification worker. Messenger and
// emailSender may be nil when the channel is disabled in config; deliveries
// on a disabled channel fail and are retried like any other error.
func NewNotificationWorker(
	config NotificationWorkerConfig,
	notificationRepo port.NotificationRepository,
	messenger port.Messenger,
	emailSender port.EmailSender,
	logger *zap.Logger,
) *NotificationWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultNotificationWorkerConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultNotificationWorkerConfig().BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultNotificationWorkerConfig().MaxAttempts
	}

	return &NotificationWorker{
		config:           config,
		notificationRepo: notificationRepo,
		messenger:        messenger,
		emailSender:      emailSender,
		logger:           logger,
	}
}

// Start begins the polling loop
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("notification worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("NotificationWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_attempts", w.config.MaxAttempts))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *NotificationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("NotificationWorker stopped",
		zap.Int("sent_count", w.sentCount),
		zap.Int("failed_count", w.failedCount))

	return nil
}

// Name returns the worker name for identification
func (w *NotificationWorker) Name() string {
	return "NotificationWorker"
}

func (w *NotificationWorker) pollLoop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Notification poll loop cancelled")
			return

		case <-ticker.C:
			if err := w.DrainOnce(w.ctx); err != nil {
				w.logger.Error("Failed to drain notifications", zap.Error(err))
			}
		}
	}
}

// DrainOnce delivers one batch of pending notifications. Individual
// delivery failures are recorded on the row and do not stop the batch.
func (w *NotificationWorker) DrainOnce(ctx context.Context) error {
	pending, err := w.notificationRepo.ListPending(ctx, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending notifications: %w", err)
	}

	for _, n := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := w.deliver(ctx, n); err != nil {
			w.recordFailure(ctx, n, err)
			continue
		}

		if err := w.notificationRepo.MarkSent(ctx, n.ID, time.Now()); err != nil {
			w.logger.Error("Failed to mark notification sent",
				zap.String("notification_id", n.ID),
				zap.Error(err))
			continue
		}

		w.mu.Lock()
		w.sentCount++
		w.mu.Unlock()

		w.logger.Info("Notification delivered",
			zap.String("notification_id", n.ID),
			zap.String("channel", n.Channel),
			zap.String("recipient", n.Recipient))
	}

	return nil
}

func (w *NotificationWorker) deliver(ctx context.Context, n *entity.Notification) error {
	switch n.Channel {
	case entity.NotificationChannelLark:
		if w.messenger == nil {
			return fmt.Errorf("lark channel is not configured")
		}
		text := n.Body
		if n.Subject != "" {
			text = n.Subject + "\n" + n.Body
		}
		return w.messenger.SendText(ctx, n.Recipient, text)

	case entity.NotificationChannelEmail:
		if w.emailSender == nil {
			return fmt.Errorf("email channel is not configured")
		}
		return w.emailSender.Send(ctx, n.Recipient, n.Subject, n.Body)

	default:
		return fmt.Errorf("unknown notification channel: %s", n.Channel)
	}
}

func (w *NotificationWorker) recordFailure(ctx context.Context, n *entity.Notification, cause error) {
	final := n.Attempts+1 >= w.config.MaxAttempts

	w.logger.Warn("Notification delivery failed",
		zap.String("notification_id", n.ID),
		zap.String("channel", n.Channel),
		zap.Int("attempts", n.Attempts+1),
		zap.Bool("final", final),
		zap.Error(cause))

	if err := w.notificationRepo.MarkFailed(ctx, n.ID, cause.Error(), final); err != nil {
		w.logger.Error("Failed to record notification failure",
			zap.String("notification_id", n.ID),
			zap.Error(err))
		return
	}

	if final {
		w.mu.Lock()
		w.failedCount++
		w.mu.Unlock()
	}
}

var _ Worker = (*NotificationWorker)(nil)
