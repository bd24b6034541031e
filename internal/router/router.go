package router

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/strollio/backend/internal/cache"
	"github.com/strollio/backend/internal/handlers"
	"github.com/strollio/backend/internal/middleware"
	"github.com/strollio/backend/internal/models"
	"github.com/strollio/backend/internal/repositories"
	"github.com/strollio/backend/internal/sharelink"
	"github.com/strollio/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, tourCache cache.TourCache) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Uploaded screenshots are served statically
	e.Static("/uploads", cfg.UploadDir)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	tourRepo := repositories.NewMongoTourRepository(mgClient.Database("strollio"))
	if err := tourRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create tour indexes: %v", err)
	}
	log.Println("MongoDB tour indexes ensured.")

	shareLinks := sharelink.New()

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	tourHandler := handlers.NewTourHandler(tourRepo, tourCache, shareLinks)

	// --- Anonymous playback surface (no auth) ---
	public := e.Group("/api/v1")
	tourHandler.RegisterPublicRoutes(public)
	log.Println("Public tour routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Tour authoring routes
	tourHandler.RegisterTourRoutes(api)
	log.Println("Tour routes configured.")

	// Screenshot upload route
	uploadHandler, err := handlers.NewUploadHandler(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Failed to set up upload handler: %v", err)
	}
	uploadHandler.RegisterUploadRoutes(api)
	log.Println("Upload routes configured.")

	// Analytics routes
	analyticsHandler := handlers.NewAnalyticsHandler(tourRepo)
	analyticsHandler.RegisterAnalyticsRoutes(api)
	log.Println("Analytics routes configured.")

	log.Println("All routes configured.")
}
