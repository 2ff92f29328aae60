// Package container wires configuration, database, storage, integrations,
// services, event handlers and workers into one startable unit.
package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/dispatcher"
	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/application/service"
	"github.com/unifound/lostfound/internal/config"
	"github.com/unifound/lostfound/internal/infrastructure/persistence/sqlite"
	"github.com/unifound/lostfound/internal/infrastructure/worker"
)

// Container owns every long-lived component of the service. Start brings
// them up in dependency order, Close tears them down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	sqlDB        *sql.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle
	external     *ExternalBundle
	storage      *StorageBundle
	dispatcher   dispatcher.Dispatcher
	services     *ServiceBundle
	workers      *worker.Manager

	mu      sync.RWMutex
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// RepositoryBundle groups the persistence ports handed to the services.
type RepositoryBundle struct {
	Request      port.RequestRepository
	Record       port.ApprovalRecordRepository
	Item         port.ItemRepository
	Directory    port.DirectoryRepository
	Notification port.NotificationRepository
	Evidence     port.EvidenceRepository
	Screening    port.ScreeningRepository
	Match        port.MatchRepository
	Release      port.ReleaseFormRepository
}

// ServiceBundle groups the application services the HTTP layer and
// workers consume.
type ServiceBundle struct {
	Requests      service.RequestService
	Queries       service.QueryService
	Items         service.ItemService
	Evidence      service.EvidenceService
	Screenings    service.ScreeningService
	Releases      service.ReleaseService
	Directory     service.DirectoryService
	Matches       service.MatchService
	Notifications service.NotificationService
}

// HealthStatus is the readiness payload, one entry per component.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth reports a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer validates the configuration and returns an unstarted
// container. Nothing is connected until Start.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes every component. Order matters: services need the
// repositories, dispatcher and storage; workers need the services.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("container is closed")
	}
	if c.started {
		return errors.New("container already started")
	}

	c.runCtx, c.cancel = context.WithCancel(ctx)

	phases := []struct {
		name string
		up   func() error
	}{
		{"database", c.setupDatabase},
		{"integrations", c.setupIntegrations},
		{"storage", c.setupStorage},
		{"dispatcher", c.setupDispatcher},
		{"services", c.setupServices},
		{"workers", c.setupWorkers},
	}
	for _, phase := range phases {
		if err := phase.up(); err != nil {
			c.cancel()
			return fmt.Errorf("start %s: %w", phase.name, err)
		}
		c.logger.Info("Component ready", zap.String("component", phase.name))
	}

	c.started = true
	c.logger.Info("Container started")
	return nil
}

// Close stops workers, drains the dispatcher and closes the database.
// Later components go down first so nothing publishes into a closed
// dispatcher or queries a closed database.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("container already closed")
	}
	c.closed = true
	c.started = false

	if c.cancel != nil {
		c.cancel()
	}

	var errs []error
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed")
	return nil
}

// Ready reports whether Start completed and Close has not run
func (c *Container) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started && !c.closed
}

// Services exposes the application services to the HTTP layer.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Health reports per-component status for the readiness endpoint.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{Overall: true, Components: map[string]ComponentHealth{}}

	report := func(name string, err error) {
		if err != nil {
			status.Components[name] = ComponentHealth{Message: err.Error()}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	report("database", c.databaseHealth())
	report("repositories", initialized(c.repositories != nil))
	report("dispatcher", initialized(c.dispatcher != nil))
	report("workers", c.workerHealth())

	return status
}

func (c *Container) databaseHealth() error {
	if c.sqlDB == nil {
		return errors.New("not initialized")
	}
	if err := c.sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (c *Container) workerHealth() error {
	if c.workers == nil {
		return errors.New("not initialized")
	}
	if !c.workers.IsRunning() {
		return fmt.Errorf("stopped, %d registered", c.workers.Count())
	}
	return nil
}

func initialized(ok bool) error {
	if !ok {
		return errors.New("not initialized")
	}
	return nil
}

func (c *Container) setupDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	repos, err := ProvideRepositories(bundle.SqlDB, c.logger)
	if err != nil {
		bundle.SqlDB.Close()
		return err
	}

	c.sqlDB = bundle.SqlDB
	c.txManager = bundle.TransactionMgr
	c.repositories = repos
	return nil
}

func (c *Container) setupIntegrations() error {
	external, err := ProvideExternalClients(c.config, c.logger)
	if err != nil {
		return err
	}
	c.external = external

	c.logger.Info("Integration switches",
		zap.Bool("openai", c.config.OpenAI.Enabled),
		zap.Bool("lark", c.config.Lark.Enabled),
		zap.Bool("email", c.config.Email.Enabled))
	return nil
}

func (c *Container) setupStorage() error {
	bundle, err := ProvideStorage(c.runCtx, &c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.storage = bundle
	return nil
}

func (c *Container) setupDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	return nil
}

func (c *Container) setupServices() error {
	resolver, err := ProvideResolver(&c.config.Policy, c.repositories.Directory)
	if err != nil {
		return err
	}

	services, err := ProvideServices(&ServiceDeps{
		Repos:         c.repositories,
		TxManager:     c.txManager,
		Resolver:      resolver,
		Dispatcher:    c.dispatcher,
		External:      c.external,
		Storage:       c.storage,
		MatchMinScore: c.config.Matcher.MinScore,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	return RegisterEventHandlers(c.dispatcher, c.services)
}

func (c *Container) setupWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Repos:     c.repositories,
		External:  c.external,
		Services:  c.services,
		WorkerCfg: &c.config.Workers,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers

	return c.workers.StartAll(c.runCtx)
}

// kvLogger adapts zap to the keysAndValues Logger interfaces the service
// and dispatcher packages declare.
type kvLogger struct {
	logger *zap.Logger
}

func (l *kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toZapFields(keysAndValues)...)
}

func (l *kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toZapFields(keysAndValues)...)
}

// toZapFields pairs up keysAndValues, dropping a trailing or non-string key.
func toZapFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
