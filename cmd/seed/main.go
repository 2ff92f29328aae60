// Command seed loads a demo directory into the database: the enterprises,
// organizations, role holders, and items the approval chains route across.
// Rows are keyed by fixed IDs, so re-running only fills in what is missing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/config"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/infrastructure/persistence/repository"
	"github.com/unifound/lostfound/pkg/database"
	"github.com/unifound/lostfound/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logging.Level,
		OutputPath: cfg.Logging.OutputPath,
		Format:     cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	directoryRepo := repository.NewDirectoryRepository(db.DB, logger)
	itemRepo := repository.NewItemRepository(db.DB, logger)

	ctx := context.Background()
	if err := seedDirectory(ctx, directoryRepo, logger); err != nil {
		logger.Fatal("Failed to seed directory", zap.Error(err))
	}
	if err := seedItems(ctx, itemRepo, logger); err != nil {
		logger.Fatal("Failed to seed items", zap.Error(err))
	}

	logger.Info("Seeding complete")
}

func seedDirectory(ctx context.Context, repo port.DirectoryRepository, logger *zap.Logger) error {
	now := time.Now()

	enterprises := []*entity.Enterprise{
		{ID: "ent-university", Name: "Metro State University", Type: entity.EnterpriseTypeUniversity, CoordinatorRole: "CAMPUS_COORDINATOR", CreatedAt: now},
		{ID: "ent-mbta", Name: "MBTA", Type: entity.EnterpriseTypeTransit, CoordinatorRole: "TRANSIT_LOST_FOUND_SPECIALIST", CreatedAt: now},
		{ID: "ent-airport", Name: "Logan International Airport", Type: entity.EnterpriseTypeAirport, CoordinatorRole: "AIRPORT_LOST_FOUND_SPECIALIST", CreatedAt: now},
		{ID: "ent-police", Name: "Boston Police Department", Type: entity.EnterpriseTypePolice, CoordinatorRole: "POLICE", CreatedAt: now},
	}
	for _, ent := range enterprises {
		existing, err := repo.GetEnterprise(ctx, ent.ID)
		if err != nil {
			return fmt.Errorf("get enterprise %s: %w", ent.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.CreateEnterprise(ctx, ent); err != nil {
			return fmt.Errorf("create enterprise %s: %w", ent.ID, err)
		}
		logger.Info("Seeded enterprise", zap.String("id", ent.ID), zap.String("name", ent.Name))
	}

	organizations := []*entity.Organization{
		{ID: "org-north-campus", EnterpriseID: "ent-university", Name: "North Campus Security Office", OwnerRole: "CAMPUS_SECURITY", CreatedAt: now},
		{ID: "org-west-campus", EnterpriseID: "ent-university", Name: "West Campus Security Office", OwnerRole: "CAMPUS_SECURITY", CreatedAt: now},
		{ID: "org-mbta-central", EnterpriseID: "ent-mbta", Name: "Central Lost Property Office", OwnerRole: "TRANSIT_LOST_FOUND_SPECIALIST", CreatedAt: now},
		{ID: "org-airport-terminal-b", EnterpriseID: "ent-airport", Name: "Terminal B Lost and Found", OwnerRole: "AIRPORT_LOST_FOUND_SPECIALIST", CreatedAt: now},
		{ID: "org-police-evidence", EnterpriseID: "ent-police", Name: "Evidence Unit", OwnerRole: "POLICE", CreatedAt: now},
	}
	for _, org := range organizations {
		existing, err := repo.GetOrganization(ctx, org.ID)
		if err != nil {
			return fmt.Errorf("get organization %s: %w", org.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("create organization %s: %w", org.ID, err)
		}
		logger.Info("Seeded organization", zap.String("id", org.ID), zap.String("name", org.Name))
	}

	assignments := []*entity.RoleAssignment{
		{ID: "role-north-security", Email: "security.north@metrostate.edu", Role: "CAMPUS_SECURITY", OrganizationID: "org-north-campus", EnterpriseID: "ent-university", CreatedAt: now},
		{ID: "role-west-security", Email: "security.west@metrostate.edu", Role: "CAMPUS_SECURITY", OrganizationID: "org-west-campus", EnterpriseID: "ent-university", CreatedAt: now},
		{ID: "role-campus-coordinator", Email: "coordinator@metrostate.edu", Role: "CAMPUS_COORDINATOR", OrganizationID: "org-north-campus", EnterpriseID: "ent-university", CreatedAt: now},
		{ID: "role-mbta-specialist", Email: "lostfound@mbta.com", Role: "TRANSIT_LOST_FOUND_SPECIALIST", OrganizationID: "org-mbta-central", EnterpriseID: "ent-mbta", CreatedAt: now},
		{ID: "role-airport-specialist", Email: "lostfound@massport.com", Role: "AIRPORT_LOST_FOUND_SPECIALIST", OrganizationID: "org-airport-terminal-b", EnterpriseID: "ent-airport", CreatedAt: now},
		{ID: "role-police-officer", Email: "evidence@bpd.gov", Role: "POLICE", OrganizationID: "org-police-evidence", EnterpriseID: "ent-police", CreatedAt: now},
	}
	for _, ra := range assignments {
		held, err := repo.ListRolesForEmail(ctx, ra.Email)
		if err != nil {
			return fmt.Errorf("list roles for %s: %w", ra.Email, err)
		}
		if hasAssignment(held, ra.Role, ra.OrganizationID) {
			continue
		}
		if err := repo.CreateRoleAssignment(ctx, ra); err != nil {
			return fmt.Errorf("assign %s to %s: %w", ra.Role, ra.Email, err)
		}
		logger.Info("Seeded role assignment",
			zap.String("email", ra.Email),
			zap.String("role", ra.Role),
			zap.String("organization_id", ra.OrganizationID))
	}

	return nil
}

func hasAssignment(held []*entity.RoleAssignment, role, organizationID string) bool {
	for _, ra := range held {
		if ra.Role == role && ra.OrganizationID == organizationID {
			return true
		}
	}
	return false
}

func seedItems(ctx context.Context, repo port.ItemRepository, logger *zap.Logger) error {
	now := time.Now()

	items := []*entity.Item{
		{
			ID:             "item-backpack-found",
			Title:          "Black backpack with leather straps",
			Category:       "bags",
			Type:           entity.ItemTypeFound,
			Status:         entity.ItemStatusOpen,
			EnterpriseID:   "ent-university",
			OrganizationID: "org-north-campus",
			ReportedBy:     "security.north@metrostate.edu",
			Description:    "Turned in at the library front desk. Contains textbooks and a water bottle.",
			Tags:           []string{"backpack", "black", "leather"},
			Location:       "Library west entrance",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "item-backpack-lost",
			Title:          "Black leather backpack",
			Category:       "bags",
			Type:           entity.ItemTypeLost,
			Status:         entity.ItemStatusOpen,
			EnterpriseID:   "ent-university",
			OrganizationID: "org-north-campus",
			ReportedBy:     "jordan.lee@metrostate.edu",
			Description:    "Lost somewhere between the library and the student center.",
			Tags:           []string{"backpack", "black", "leather"},
			Location:       "North campus",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "item-laptop-found",
			Title:          "Silver laptop, 14 inch",
			Category:       "electronics",
			Type:           entity.ItemTypeFound,
			Status:         entity.ItemStatusOpen,
			EnterpriseID:   "ent-mbta",
			OrganizationID: "org-mbta-central",
			ReportedBy:     "lostfound@mbta.com",
			Description:    "Left on a Red Line train. Held at the central office pending a claim.",
			Tags:           []string{"laptop", "silver", "electronics"},
			Location:       "Red Line, Park Street",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "item-passport-found",
			Title:          "Passport in a blue travel wallet",
			Category:       "documents",
			Type:           entity.ItemTypeFound,
			Status:         entity.ItemStatusOpen,
			EnterpriseID:   "ent-airport",
			OrganizationID: "org-airport-terminal-b",
			ReportedBy:     "lostfound@massport.com",
			Description:    "Found at the Terminal B security checkpoint.",
			Tags:           []string{"passport", "wallet", "documents"},
			Location:       "Terminal B checkpoint",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	for _, item := range items {
		existing, err := repo.GetByID(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("get item %s: %w", item.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.Create(ctx, item); err != nil {
			return fmt.Errorf("create item %s: %w", item.ID, err)
		}
		logger.Info("Seeded item",
			zap.String("id", item.ID),
			zap.String("type", item.Type),
			zap.String("title", item.Title))
	}

	return nil
}
