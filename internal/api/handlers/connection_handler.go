package handlers

import (
	"encoding/json"
	"net/http"

	"connect-api/internal/pkg/errors"
	"connect-api/internal/services"
)

// ConnectionHandler exposes the connection coin balance and the trusted
// purchase endpoint.
type ConnectionHandler struct {
	creditService services.CreditService
}

func NewConnectionHandler(creditService services.CreditService) *ConnectionHandler {
	return &ConnectionHandler{
		creditService: creditService,
	}
}

type purchaseRequest struct {
	CoinsToAdd int `json:"coinsToAdd"`
}

type connectionResponse struct {
	Success bool `json:"success"`
	Coins   int  `json:"coins"`
}

func (h *ConnectionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	coins, err := h.creditService.Balance(r.Context(), user.ID.String())
	if err != nil {
		writeCreditError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(connectionResponse{Success: true, Coins: coins})
}

func (h *ConnectionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	coins, err := h.creditService.Purchase(r.Context(), user.ID.String(), req.CoinsToAdd)
	if err != nil {
		if err == errors.ErrInvalidInput {
			http.Error(w, "Invalid coinsToAdd", http.StatusBadRequest)
			return
		}
		writeCreditError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(connectionResponse{Success: true, Coins: coins})
}

// writeCreditError hides store details behind a generic retryable error.
func writeCreditError(w http.ResponseWriter, err error) {
	if err == errors.ErrStoreUnavailable {
		http.Error(w, "Service temporarily unavailable, please try again", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
