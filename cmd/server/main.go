package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playgrid/backend/internal/api"
	"github.com/playgrid/backend/internal/config"
	"github.com/playgrid/backend/internal/database"
	"github.com/playgrid/backend/internal/game"
	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/migrations"
	"github.com/playgrid/backend/internal/redis"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Ensure the bot account exists before anything can route a match to it
	if _, err := ledger.GetOrCreateBotUser(db); err != nil {
		log.Fatalf("Failed to ensure bot user: %v", err)
	}

	// Initialize the match manager (also reconciles timers for matches
	// left playing across a restart)
	game.InitializeManager(db, rdb, cfg)

	// Start the bot fallback worker (attaches bots to stale waiting matches)
	go game.StartBotWorker(context.Background(), db, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting PlayGrid server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
