package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/service"
)

// MatchWorkerConfig holds configuration for the match scan worker
type MatchWorkerConfig struct {
	ScanInterval time.Duration
}

// DefaultMatchWorkerConfig returns default configuration
func DefaultMatchWorkerConfig() MatchWorkerConfig {
	return MatchWorkerConfig{
		ScanInterval: 5 * time.Minute,
	}
}

// MatchWorker periodically scans open lost reports against open found
// items and records match suggestions.
type MatchWorker struct {
	config  MatchWorkerConfig
	matches service.MatchService
	logger  *zap.Logger

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	scanCount int
}

// NewMatchWorker creates a new match scan worker
func NewMatchWorker(config MatchWorkerConfig, matches service.MatchService, logger *zap.Logger) *MatchWorker {
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultMatchWorkerConfig().ScanInterval
	}

	return &MatchWorker{
		config:  config,
		matches: matches,
		logger:  logger,
	}
}

// Start begins the scan loop
func (w *MatchWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("match worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("MatchWorker started",
		zap.Duration("scan_interval", w.config.ScanInterval))

	go w.scanLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *MatchWorker) Stop() error {
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

	w.logger.Info("MatchWorker stopped", zap.Int("scan_count", w.scanCount))

	return nil
}

// Name returns the worker name for identification
func (w *MatchWorker) Name() string {
	return "MatchWorker"
}

func (w *MatchWorker) scanLoop() {
	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Match scan loop cancelled")
			return

		case <-ticker.C:
			created, err := w.matches.ScanOnce(w.ctx)
			if err != nil {
				w.logger.Error("Match scan failed", zap.Error(err))
				continue
			}

			w.mu.Lock()
			w.scanCount++
			w.mu.Unlock()

			if created > 0 {
				w.logger.Info("Match scan completed",
					zap.Int("new_suggestions", created))
			}
		}
	}
}

var _ Worker = (*MatchWorker)(nil)
