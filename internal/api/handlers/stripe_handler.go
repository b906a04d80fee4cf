package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"connect-api/internal/logger"
	"connect-api/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/webhook"
)

// StripeHandler sells connection coin packs. A completed checkout credits
// the purchased coins through the same upsert-add as the trusted purchase
// endpoint.
type StripeHandler struct {
	creditService services.CreditService
	authService   services.AuthService
}

func NewStripeHandler(creditService services.CreditService, authService services.AuthService) *StripeHandler {
	return &StripeHandler{
		creditService: creditService,
		authService:   authService,
	}
}

type coinPack struct {
	priceEnv string
	coins    int
}

var coinPacks = map[string]coinPack{
	"starter": {priceEnv: "STRIPE_STARTER_PACK_PRICE_ID", coins: 5},
	"growth":  {priceEnv: "STRIPE_GROWTH_PACK_PRICE_ID", coins: 25},
}

type checkoutRequest struct {
	Pack string `json:"pack"`
}

func (h *StripeHandler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pack, ok := coinPacks[req.Pack]
	if !ok {
		http.Error(w, "Unknown coin pack", http.StatusBadRequest)
		return
	}

	priceID := os.Getenv(pack.priceEnv)
	if priceID == "" {
		http.Error(w, "Coin pack not configured", http.StatusInternalServerError)
		return
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(os.Getenv("CHECKOUT_SUCCESS_URL")),
		CancelURL:  stripe.String(os.Getenv("CHECKOUT_CANCEL_URL")),
	}
	if user.StripeID != "" {
		params.Customer = stripe.String(user.StripeID)
	}
	params.AddMetadata("user_id", user.ID.String())
	params.AddMetadata("coins", strconv.Itoa(pack.coins))

	s, err := session.New(params)
	if err != nil {
		http.Error(w, "Error creating checkout session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"sessionId": s.ID})
}

func (h *StripeHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	const MaxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading request body: %v\n", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), os.Getenv("STRIPE_WEBHOOK_SECRET"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying webhook signature: %v\n", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var checkout stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing webhook JSON: %v\n", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.handleCheckoutCompleted(r, checkout); err != nil {
			// A non-2xx makes Stripe redeliver the event, so the credit is
			// applied on a later attempt.
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		fmt.Fprintf(os.Stderr, "Unhandled event type: %s\n", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeHandler) handleCheckoutCompleted(r *http.Request, checkout stripe.CheckoutSession) error {
	userID := checkout.Metadata["user_id"]
	if userID == "" && checkout.Customer != nil {
		// Sessions created outside this API carry no user metadata; the
		// Stripe customer recorded at registration still identifies the buyer.
		user, err := h.authService.GetUserByStripeCustomerID(r.Context(), checkout.Customer.ID)
		if err != nil {
			logger.Logger.WithFields(logrus.Fields{
				"error":    err,
				"session":  checkout.ID,
				"customer": checkout.Customer.ID,
			}).Error("Checkout session completed for unknown Stripe customer")
		} else {
			userID = user.ID.String()
		}
	}

	coins, err := strconv.Atoi(checkout.Metadata["coins"])
	if userID == "" || err != nil || coins <= 0 {
		logger.Logger.WithFields(logrus.Fields{
			"session": checkout.ID,
		}).Error("Checkout session completed without valid coin metadata")
		return nil
	}

	balance, err := h.creditService.Purchase(r.Context(), userID, coins)
	if err != nil {
		logger.Logger.WithFields(logrus.Fields{
			"error":   err,
			"session": checkout.ID,
			"user":    userID,
			"coins":   coins,
		}).Error("Failed to credit purchased coins")
		return err
	}

	logger.Logger.WithFields(logrus.Fields{
		"session": checkout.ID,
		"user":    userID,
		"coins":   coins,
		"balance": balance,
	}).Info("Credited purchased coins")
	return nil
}
