package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackbutton/internal/cache"
	"hackbutton/internal/config"
	"hackbutton/internal/database"
	"hackbutton/internal/handlers"
	"hackbutton/internal/leaderboard"
	"hackbutton/internal/metrics"
	"hackbutton/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize the score store
	db, err := newDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache (optional)
	var redisCache cache.Cache
	redisCache, err = cache.NewRedisCache(cfg)
	if err != nil {
		log.Printf("Failed to connect to Redis, continuing without cache: %v", err)
		redisCache = nil
	}
	if redisCache != nil {
		defer redisCache.Close()
		log.Println("Redis cache initialized successfully")
	}

	// Initialize metrics
	var metricsManager *metrics.Manager
	if cfg.Server.EnableMetrics {
		metricsManager = metrics.NewManager()
	}

	// Initialize the leaderboard service
	service := leaderboard.NewService(db, redisCache, cfg)

	// Initialize WebSocket hub and wire it as the live-update sink
	hub := websocket.NewHub(service, metricsManager)
	service.SetNotifier(hub)
	go hub.Run()

	// Initialize handlers
	leaderboardHandler := handlers.NewLeaderboardHandler(service, metricsManager)

	// Create Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	if metricsManager != nil {
		router.Use(metricsManager.Middleware())
		router.GET("/metrics", metricsManager.Handler())
	}

	// Health check endpoint
	if cfg.Server.EnableHealthCheck {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"service": "hackbutton",
			})
		})
	}

	// WebSocket endpoint
	router.GET("/ws", hub.HandleWebSocket)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/leaderboard", leaderboardHandler.SubmitScore)
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		api.GET("/leaderboard/:mode", leaderboardHandler.GetLeaderboard)
		api.GET("/modes", leaderboardHandler.GetModes)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on %s", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}

// newDatabase picks the store implementation from configuration.
func newDatabase(cfg *config.Config) (database.Database, error) {
	d := cfg.Database
	if d.Driver == "postgres" {
		return database.NewPostgresDB(d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
	return database.NewGormDB(d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
