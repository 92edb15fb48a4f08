package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
	datastore "github.com/Nydv01/chemviz-analytics/internal/store"
	"github.com/Nydv01/chemviz-analytics/internal/utils"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024 // 10 MB

func InitContext() (*appcontext.Context, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Warn("No .env file found, using environment variables")
	}

	logger, err := InitLogger()
	if err != nil {
		return nil, err
	}

	retentionLimit := envInt("DATASET_RETENTION", datastore.DefaultRetentionLimit)
	maxUploadBytes := int64(envInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes))

	ctx := &appcontext.Context{
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
		RetentionLimit: retentionLimit,
	}

	// Store strategy: postgres unless DATASTORE=memory or no database is
	// reachable. The selection is made once; the two strategies never serve
	// the same process.
	if strings.EqualFold(os.Getenv("DATASTORE"), "memory") {
		logger.Warn("Using in-memory datastore, all data is lost on restart")
		ctx.Datasets = datastore.NewMemoryStore(retentionLimit)
		ctx.Users = datastore.NewMemoryUserStore()
	} else {
		db, err := InitDB()
		if err != nil {
			if !strings.EqualFold(os.Getenv("DATASTORE_FALLBACK"), "memory") {
				return nil, err
			}
			logger.Warn("Database unreachable, falling back to in-memory datastore", zap.Error(err))
			ctx.Datasets = datastore.NewMemoryStore(retentionLimit)
			ctx.Users = datastore.NewMemoryUserStore()
		} else {
			ctx.DB = db
			ctx.Datasets = datastore.NewGormStore(db, retentionLimit)
			ctx.Users = datastore.NewGormUserStore(db)
		}
	}

	if bucket := os.Getenv("GCS_BUCKET_NAME"); bucket != "" {
		gcsClient, err := InitGCSClient()
		if err != nil {
			return nil, err
		}
		ctx.GCSClient = gcsClient
		ctx.GCSBucketName = bucket
	}

	if strings.EqualFold(os.Getenv("SEED_DEMO_DATA"), "true") {
		if err := SeedDemoUser(ctx); err != nil {
			logger.Warn("Failed to seed demo data", zap.Error(err))
		}
	}

	return ctx, nil
}

func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&entity.User{}, &entity.Dataset{}, &entity.Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func InitGCSClient() (*storage.Client, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}
	return client, nil
}

// SeedDemoUser creates a demo account with one sample dataset so a fresh
// deployment has something to show. Skips silently when the user exists.
func SeedDemoUser(ctx *appcontext.Context) error {
	background := context.Background()

	if _, err := ctx.Users.FindByUsername(background, "demo"); err == nil {
		return nil
	}

	hash, err := utils.HashPassword("demo1234")
	if err != nil {
		return err
	}
	demo := &entity.User{
		Username:     "demo",
		Email:        "demo@example.com",
		Name:         "Demo User",
		PasswordHash: hash,
	}
	if err := ctx.Users.Create(background, demo); err != nil {
		return err
	}

	rows := []analyticsRow{
		{"Pump-A1", "pump", 150.5, 3.2, 45.8},
		{"Valve-B2", "valve", 75.0, 2.1, 38.5},
		{"Compressor-C3", "compressor", 210.7, 5.6, 61.2},
		{"Pump-A2", "pump", 142.3, 3.0, 44.1},
		{"HeatExchanger-D4", "heat exchanger", 98.4, 1.8, 72.9},
	}
	return seedDataset(ctx, demo.ID.String(), "sample_equipment.csv", rows)
}

type analyticsRow struct {
	name     string
	kind     string
	flowrate float64
	pressure float64
	temp     float64
}
