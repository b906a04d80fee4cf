package handlers

import (
	"encoding/json"
	"net/http"

	"connect-api/internal/models"
	"connect-api/internal/repository"
)

// ReconciliationHandler lists unresolved compensation failures for
// out-of-band resolution.
type ReconciliationHandler struct {
	reconRepo repository.ReconciliationRepository
}

func NewReconciliationHandler(reconRepo repository.ReconciliationRepository) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconRepo: reconRepo,
	}
}

type reconciliationListResponse struct {
	Records []models.CreditReconciliation `json:"records"`
	Count   int                           `json:"count"`
}

func (h *ReconciliationHandler) ListUnresolved(w http.ResponseWriter, r *http.Request) {
	records, err := h.reconRepo.ListUnresolved(r.Context())
	if err != nil {
		http.Error(w, "Failed to list reconciliation records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reconciliationListResponse{
		Records: records,
		Count:   len(records),
	})
}
