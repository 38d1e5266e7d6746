package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"charity-auction/internal/auth"
	"charity-auction/internal/config"
	"charity-auction/internal/database"
	"charity-auction/internal/handlers"
	"charity-auction/internal/jobs"
	"charity-auction/internal/payments"
	"charity-auction/internal/repository"
	"charity-auction/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize payment gateway client
	gateway := payments.NewClient(
		cfg.Payments.GatewayURL,
		cfg.Payments.APIKey,
		cfg.Payments.Timeout,
	)

	// Initialize services
	notifier := services.NewOutboxNotifier(repo)
	rateLimitService := services.NewRateLimitService(repo)
	lifecycleService := services.NewLifecycleService(repo, gateway, notifier)
	bidService := services.NewBidService(repo, lifecycleService, notifier)
	authService := services.NewAuthService(repo, rateLimitService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	bidHandler := handlers.NewBidHandler(bidService)
	eventHandler := handlers.NewEventHandler(repo, lifecycleService)
	adminHandler := handlers.NewAdminHandler(repo, lifecycleService)

	// Start the auction sweeper job
	sweeper := jobs.NewSweeper(lifecycleService, cfg.App.SweepInterval)
	go sweeper.Start()
	defer sweeper.Stop()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/auth/login", authHandler.Login)

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public catalogue routes
	router.GET("/api/events", eventHandler.GetEvents)
	router.GET("/api/events/:id", eventHandler.GetEvent)
	router.GET("/api/events/:id/items", eventHandler.GetEventItems)
	router.GET("/api/items/:id", eventHandler.GetItem)
	router.GET("/api/items/:id/bids", bidHandler.GetItemBids)

	// Bidding (protected, rate limited per bidder)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/items/:id/bids",
			handlers.RateLimitMiddleware(rateLimitService, services.ActionBid),
			bidHandler.PlaceBid)
	}

	// Admin routes (protected)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.POST("/events", adminHandler.CreateEvent)
		admin.POST("/events/:id/transition", eventHandler.TransitionEvent)
		admin.POST("/items", adminHandler.CreateItem)
		admin.POST("/items/:id/end", adminHandler.EndItem)
		admin.GET("/items/:id/payment", adminHandler.GetItemPayment)
		admin.POST("/sweep", adminHandler.SweepExpiredItems)
		admin.POST("/payments/:id/request", adminHandler.RequestPayment)
		admin.POST("/payments/:id/complete", adminHandler.CompletePayment)
		admin.PUT("/settings", adminHandler.UpdateSettings)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
