package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/strollio/backend/internal/cache"
	"github.com/strollio/backend/internal/router"
	"github.com/strollio/backend/pkg/config"
	"github.com/strollio/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize the public tour cache
	tourCache, err := cache.NewRedisTourCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis cache: %v", err)
	}
	defer tourCache.Close()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, tourCache)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
