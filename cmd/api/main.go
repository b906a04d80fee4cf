package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"connect-api/internal/api"
	"connect-api/internal/api/handlers"
	"connect-api/internal/config"
	"connect-api/internal/database"
	"connect-api/internal/middleware"
	"connect-api/internal/repository"
	"connect-api/internal/services"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/stripe/stripe-go/v72"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Get underlying *sql.DB instance for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get underlying *sql.DB instance:", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewUsageEventRepository(db)
	creditRepo := repository.NewCreditAccountRepository(db)
	chatRepo := repository.NewChatRepository(db)
	reconRepo := repository.NewReconciliationRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	authService := services.NewAuthService(userRepo, jwtSecret)
	rateLimitService := services.NewRateLimitService(usageRepo, config.NewQuotaConfig())
	creditService := services.NewCreditService(creditRepo)
	chatService := services.NewChatService(chatRepo, creditService, reconRepo)

	// Company-data responses are cached in Redis when it is available; the
	// proxy still works without it.
	var cacheService services.CacheService
	if cache, err := services.NewRedisCacheService(config.NewCacheConfig()); err != nil {
		log.Printf("Warning: Redis unavailable, company responses will not be cached: %v", err)
	} else {
		cacheService = cache
	}
	companyService := services.NewCompanyService(cacheService)

	// Usage retention pruning runs for the lifetime of the process.
	retention := services.NewRetentionService(usageRepo)
	retention.Start(context.Background())

	// Initialize handlers
	h := api.Handlers{
		Auth:           handlers.NewAuthHandler(authService),
		Connection:     handlers.NewConnectionHandler(creditService),
		Chat:           handlers.NewChatHandler(chatService),
		Company:        handlers.NewCompanyHandler(companyService),
		Stripe:         handlers.NewStripeHandler(creditService, authService),
		Reconciliation: handlers.NewReconciliationHandler(reconRepo),
	}

	rateLimiter := middleware.NewRateLimiter(rateLimitService)
	router := api.SetupRoutes(h, authService, rateLimiter)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{os.Getenv("FRONTEND_ORIGIN")},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"X-RateLimit-Limit-Hourly",
			"X-RateLimit-Limit-Daily",
			"X-RateLimit-Remaining-Hourly",
			"X-RateLimit-Remaining-Daily",
			"Retry-After",
			"X-Redirect-To",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + getPort(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start server
	log.Printf("Server starting on port %s...", getPort())
	log.Fatal(srv.ListenAndServe())
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}
	return port
}
