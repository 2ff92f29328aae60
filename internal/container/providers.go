package container

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/dispatcher"
	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/application/service"
	"github.com/unifound/lostfound/internal/config"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/domain/event"
	"github.com/unifound/lostfound/internal/domain/routing"
	"github.com/unifound/lostfound/internal/email"
	"github.com/unifound/lostfound/internal/evidence"
	infralark "github.com/unifound/lostfound/internal/infrastructure/external/lark"
	"github.com/unifound/lostfound/internal/infrastructure/external/openai"
	"github.com/unifound/lostfound/internal/infrastructure/persistence/repository"
	"github.com/unifound/lostfound/internal/infrastructure/persistence/sqlite"
	"github.com/unifound/lostfound/internal/infrastructure/storage"
	"github.com/unifound/lostfound/internal/infrastructure/worker"
	"github.com/unifound/lostfound/internal/matcher"
	"github.com/unifound/lostfound/internal/release"
	"github.com/unifound/lostfound/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds integration clients. Disabled integrations stay nil;
// the services treat a nil port as switched off.
type ExternalBundle struct {
	Screener    port.ClaimScreener
	Messenger   port.Messenger
	EmailSender port.EmailSender
	Extractor   port.TextExtractor
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
}

// ProvideDatabase opens the database, runs pending migrations, and wraps the
// connection in a transaction manager.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MigrationsDir != "" {
		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(cfg.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:      repository.NewRequestRepository(sqlDB, logger),
		Record:       repository.NewApprovalRecordRepository(sqlDB, logger),
		Item:         repository.NewItemRepository(sqlDB, logger),
		Directory:    repository.NewDirectoryRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
		Evidence:     repository.NewEvidenceRepository(sqlDB, logger),
		Screening:    repository.NewScreeningRepository(sqlDB, logger),
		Match:        repository.NewMatchRepository(sqlDB, logger),
		Release:      repository.NewReleaseFormRepository(sqlDB, logger),
	}, nil
}

// ProvideExternalClients creates the optional integration clients. Each is
// nil unless its config section enables it; the PDF text extractor is local
// and always available.
func ProvideExternalClients(cfg *config.Config, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ExternalBundle{
		Extractor: evidence.NewPDFTextExtractor(0, logger),
	}

	if cfg.OpenAI.Enabled {
		bundle.Screener = openai.NewScreener(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		}, logger)
	}

	if cfg.Lark.Enabled {
		bundle.Messenger = infralark.NewMessenger(infralark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	}

	if cfg.Email.Enabled {
		bundle.EmailSender = email.NewSender(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, logger)
	}

	return bundle, nil
}

// ProvideStorage creates file storage rooted at the configured base dir and
// pre-creates the folders uploads and release forms land in.
func ProvideStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	fileStorage := storage.NewLocalFileStorage(cfg.BaseDir, logger)
	folderManager := storage.NewLocalFolderManager(cfg.BaseDir, logger)

	for _, name := range []string{"evidence", "releases"} {
		if _, err := folderManager.CreateFolder(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to create %s folder: %w", name, err)
		}
	}

	return &StorageBundle{
		FileStorage:   fileStorage,
		FolderManager: folderManager,
	}, nil
}

// ProvideResolver builds the approval chain resolver from the routing policy.
func ProvideResolver(cfg *config.PolicyConfig, directoryRepo port.DirectoryRepository) (*routing.Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("policy config is required")
	}
	if directoryRepo == nil {
		return nil, fmt.Errorf("directory repository is required")
	}

	// Viper lowercases map keys during unmarshal; enterprise types are
	// stored uppercase.
	specialists := make(map[string]string, len(cfg.SpecialistRoles))
	for enterpriseType, role := range cfg.SpecialistRoles {
		specialists[strings.ToUpper(enterpriseType)] = role
	}

	policy := routing.Policy{
		PoliceValueThreshold: cfg.PoliceValueThreshold,
		PoliceRole:           cfg.PoliceRole,
		EmergencyRole:        cfg.EmergencyRole,
		EvidenceChain:        cfg.EvidenceChain,
		SpecialistRoles:      specialists,
	}

	return routing.NewResolver(directoryRepo, policy), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&kvLogger{logger: logger}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos         *RepositoryBundle
	TxManager     port.TransactionManager
	Resolver      *routing.Resolver
	Dispatcher    dispatcher.Dispatcher
	External      *ExternalBundle
	Storage       *StorageBundle
	MatchMinScore float64
	Logger        *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("chain resolver is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &kvLogger{logger: deps.Logger}

	var screener port.ClaimScreener
	var extractor port.TextExtractor
	if deps.External != nil {
		screener = deps.External.Screener
		extractor = deps.External.Extractor
	}

	return &ServiceBundle{
		Requests: service.NewRequestService(
			deps.Repos.Request,
			deps.Repos.Record,
			deps.Repos.Directory,
			deps.Resolver,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
		Queries: service.NewQueryService(
			deps.Repos.Request,
			deps.Repos.Record,
			serviceLogger,
		),
		Items: service.NewItemService(
			deps.Repos.Item,
			deps.Repos.Request,
			deps.Repos.Match,
			serviceLogger,
		),
		Evidence: service.NewEvidenceService(
			deps.Repos.Request,
			deps.Repos.Evidence,
			deps.Storage.FileStorage,
			extractor,
			serviceLogger,
		),
		Screenings: service.NewScreeningService(
			deps.Repos.Request,
			deps.Repos.Item,
			deps.Repos.Evidence,
			deps.Repos.Screening,
			screener,
			serviceLogger,
		),
		Releases: service.NewReleaseService(
			deps.Repos.Request,
			deps.Repos.Record,
			deps.Repos.Item,
			deps.Repos.Directory,
			deps.Repos.Release,
			deps.Storage.FileStorage,
			release.NewFormBuilder(deps.Logger),
			serviceLogger,
		),
		Directory: service.NewDirectoryService(
			deps.Repos.Directory,
			serviceLogger,
		),
		Matches: service.NewMatchService(
			deps.Repos.Item,
			deps.Repos.Match,
			matcher.NewKeywordMatcher(),
			deps.Dispatcher,
			deps.MatchMinScore,
			serviceLogger,
		),
		Notifications: service.NewNotificationService(
			deps.Repos.Request,
			deps.Repos.Notification,
			deps.Repos.Directory,
			deps.Repos.Item,
			deps.TxManager,
			entity.NotificationChannelLark,
			entity.NotificationChannelEmail,
			serviceLogger,
		),
	}, nil
}

// RegisterEventHandlers subscribes the side-effect handlers that react to
// request lifecycle events. Events are dispatched asynchronously, so handler
// failures are logged by the dispatcher and never fail the user operation.
func RegisterEventHandlers(disp dispatcher.Dispatcher, services *ServiceBundle) error {
	if disp == nil {
		return fmt.Errorf("dispatcher is required")
	}
	if services == nil {
		return fmt.Errorf("services are required")
	}

	stepNotifier := func(ctx context.Context, evt *event.Event) error {
		return services.Notifications.NotifyCurrentStep(ctx, evt.RequestID)
	}
	outcomeNotifier := func(ctx context.Context, evt *event.Event) error {
		return services.Notifications.NotifyOutcome(ctx, evt.RequestID)
	}
	itemSync := func(ctx context.Context, evt *event.Event) error {
		return services.Items.SyncClaimItem(ctx, evt.RequestID)
	}

	// A new request notifies its first approver role, holds the claimed
	// item, and kicks off the advisory screening.
	disp.SubscribeNamed(event.TypeRequestCreated, "step_notifier", stepNotifier)
	disp.SubscribeNamed(event.TypeRequestCreated, "item_sync", itemSync)
	disp.SubscribeNamed(event.TypeRequestCreated, "claim_screener", func(ctx context.Context, evt *event.Event) error {
		if evt.GetPayloadString("request_type") != string(entity.RequestTypeItemClaim) {
			return nil
		}
		_, err := services.Screenings.ScreenClaim(ctx, evt.RequestID)
		return err
	})

	// Each advance notifies the next approver role.
	disp.SubscribeNamed(event.TypeRequestAdvanced, "step_notifier", stepNotifier)

	// Terminal outcomes notify the requester and settle the item status.
	for _, t := range []event.Type{event.TypeRequestApproved, event.TypeRequestRejected, event.TypeRequestCancelled} {
		disp.SubscribeNamed(t, "outcome_notifier", outcomeNotifier)
		disp.SubscribeNamed(t, "item_sync", itemSync)
	}

	// Approved claims get a custody release form.
	disp.SubscribeNamed(event.TypeRequestApproved, "release_form", func(ctx context.Context, evt *event.Event) error {
		if evt.GetPayloadString("request_type") != string(entity.RequestTypeItemClaim) {
			return nil
		}
		_, err := services.Releases.GenerateForRequest(ctx, evt.RequestID)
		return err
	})

	// New match suggestions notify the lost-item reporter.
	disp.SubscribeNamed(event.TypeMatchFound, "match_notifier", func(ctx context.Context, evt *event.Event) error {
		suggestion := &entity.MatchSuggestion{
			ID:          evt.GetPayloadString("suggestion_id"),
			LostItemID:  evt.GetPayloadString("lost_item_id"),
			FoundItemID: evt.GetPayloadString("found_item_id"),
			Score:       evt.GetPayloadFloat("score"),
		}
		if suggestion.LostItemID == "" || suggestion.FoundItemID == "" {
			return fmt.Errorf("match event %s carries no item pair", evt.ID)
		}
		return services.Notifications.NotifyMatchFound(ctx, suggestion)
	})

	return nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos     *RepositoryBundle
	External  *ExternalBundle
	Services  *ServiceBundle
	WorkerCfg *config.WorkersConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates and registers all background workers.
// Returns *worker.Manager with all workers registered but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewManager(deps.Logger)

	var messenger port.Messenger
	var emailSender port.EmailSender
	if deps.External != nil {
		messenger = deps.External.Messenger
		emailSender = deps.External.EmailSender
	}

	notificationCfg := worker.NotificationWorkerConfig{
		PollInterval: time.Duration(deps.WorkerCfg.NotificationIntervalSeconds) * time.Second,
		BatchSize:    deps.WorkerCfg.NotificationBatchSize,
		MaxAttempts:  deps.WorkerCfg.NotificationMaxAttempts,
	}
	manager.Register(worker.NewNotificationWorker(
		notificationCfg,
		deps.Repos.Notification,
		messenger,
		emailSender,
		deps.Logger,
	))

	matchCfg := worker.MatchWorkerConfig{
		ScanInterval: time.Duration(deps.WorkerCfg.MatchIntervalSeconds) * time.Second,
	}
	manager.Register(worker.NewMatchWorker(
		matchCfg,
		deps.Services.Matches,
		deps.Logger,
	))

	return manager, nil
}
