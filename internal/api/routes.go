package api

import (
	"net/http"

	"connect-api/internal/api/handlers"
	"connect-api/internal/middleware"
	"connect-api/internal/models"
	"connect-api/internal/services"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth           *handlers.AuthHandler
	Connection     *handlers.ConnectionHandler
	Chat           *handlers.ChatHandler
	Company        *handlers.CompanyHandler
	Stripe         *handlers.StripeHandler
	Reconciliation *handlers.ReconciliationHandler
}

func SetupRoutes(h Handlers, authService services.AuthService, rateLimiter *middleware.RateLimiter) *mux.Router {
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/auth/register", h.Auth.Register).Methods("POST")
	router.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Stripe calls this endpoint, not browsers; it authenticates by
	// signature instead of bearer token.
	router.HandleFunc("/stripe/webhook", h.Stripe.HandleStripeWebhook).Methods("POST")

	// API routes (protected)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(authService))

	// Metered company-data proxy
	companySearch := apiRouter.PathPrefix("/companies/search").Subrouter()
	companySearch.Use(rateLimiter.Limit(models.APIClassStandard))
	companySearch.HandleFunc("", h.Company.Search).Methods("GET")

	companyMetrics := apiRouter.PathPrefix("/companies/{domain}/key-metrics").Subrouter()
	companyMetrics.Use(rateLimiter.Limit(models.APIClassKeyMetrics))
	companyMetrics.HandleFunc("", h.Company.KeyMetrics).Methods("GET")

	// Connection coins
	apiRouter.HandleFunc("/connection", h.Connection.GetBalance).Methods("GET")
	apiRouter.HandleFunc("/connection", h.Connection.Purchase).Methods("POST")
	apiRouter.HandleFunc("/stripe/checkout", h.Stripe.HandleCreateCheckout).Methods("POST")

	// Gated chat creation
	apiRouter.HandleFunc("/chats", h.Chat.CreateChat).Methods("POST")

	// Operator view of failed compensations
	apiRouter.HandleFunc("/admin/reconciliations", h.Reconciliation.ListUnresolved).Methods("GET")

	return router
}
