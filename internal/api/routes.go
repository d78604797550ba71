package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playgrid/backend/internal/api/handlers"
	"github.com/playgrid/backend/internal/config"
	"github.com/playgrid/backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	// CORS middleware for browser clients
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		// Event feed; match snapshots are public
		v1.GET("/matches/:id", handlers.GetMatch())
		v1.GET("/matches/:id/ws", ws.HandleMatchEvents(rdb))

		authed := v1.Group("")
		authed.Use(handlers.AuthRequired(cfg))
		{
			authed.POST("/matches", handlers.CreateOrJoinMatch())
			authed.POST("/matches/:id/join", handlers.JoinMatch())
			authed.POST("/matches/:id/moves", handlers.PlayMove())
			authed.POST("/matches/:id/cancel", handlers.CancelMatch())
			authed.POST("/matches/:id/bot", handlers.RequestBotOpponent())

			authed.GET("/me/balance", handlers.MyBalance(db))
			authed.GET("/me/matches", handlers.MyMatches())
		}
	}
}
