package common

import (
	"context"
	"log"
	"strings"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/database"
	"ad-rewards-go/internal/formance"
	"ad-rewards-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services bundles everything a command needs to run ledger operations
type Services struct {
	DbService     *database.Service
	Mirror        *formance.Service
	PointsService *api.PointsService
	AdminService  *api.AdminService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database, connects the optional Formance
// mirror and wires the points and admin services on top. A mirror that
// cannot be reached is logged and skipped; SQLite stays authoritative.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	services := &Services{DbService: dbService}

	var mirror api.Mirror
	if cfg.Formance.Enabled() {
		zap.L().Info("Connecting ledger mirror")
		formanceService, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			zap.L().Warn("Ledger mirror unavailable, continuing without it", zap.Error(err))
		} else {
			services.Mirror = formanceService
			mirror = formanceService
		}
	}

	if cfg.Ads.SeedOnStart {
		count, err := SeedAds(ctx, dbService, cfg.Ads.CatalogFile)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		zap.L().Info("Seeded ad catalog", zap.String("file", cfg.Ads.CatalogFile), zap.Int("count", count))
	}

	services.PointsService = api.NewPointsService(dbService, cfg.Ledger, mirror)
	services.AdminService = api.NewAdminService(dbService, services.PointsService)
	return services, nil
}

// InitializeDatabaseOnly initializes just the database service without the mirror.
// Useful for reports and operator tooling
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Mirror != nil {
		cs.Mirror.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
