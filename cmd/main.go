package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/Nydv01/chemviz-analytics/internal/config"
	"github.com/Nydv01/chemviz-analytics/internal/http"
)

func main() {
	// Initialize context
	ctx, err := config.InitContext()
	if err != nil {
		log.Fatalf("Failed to initialize context: %v", err)
	}

	defer func() {
		if err := ctx.Logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	// Ensure the database connection is closed when the application exits
	if ctx.DB != nil {
		sqlDB, err := ctx.DB.DB()
		if err != nil {
			ctx.Logger.Fatal("Failed to get underlying SQL DB from GORM DB", zap.Error(err))
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				ctx.Logger.Error("Failed to close database connection", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP service
	service := http.NewHTTPService(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start the server
	if err := service.Engine().Run(":" + port); err != nil {
		ctx.Logger.Fatal("Failed to start the server", zap.Error(err))
	}
}
