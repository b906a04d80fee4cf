package handlers

import (
	"encoding/json"
	"net/http"

	"connect-api/internal/pkg/errors"
	"connect-api/internal/services"

	"github.com/gorilla/mux"
)

// CompanyHandler serves the metered company-data proxy endpoints. Quota
// enforcement happens in the rate limit middleware; these handlers only
// fetch and shape data.
type CompanyHandler struct {
	companyService services.CompanyService
}

func NewCompanyHandler(companyService services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

func (h *CompanyHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing 'name' parameter", http.StatusBadRequest)
		return
	}

	profile, err := h.companyService.Search(r.Context(), name)
	if err != nil {
		if err == errors.ErrNotFound {
			http.Error(w, "No company found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to search company", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *CompanyHandler) KeyMetrics(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	metrics, err := h.companyService.KeyMetrics(r.Context(), domain)
	if err != nil {
		switch err {
		case errors.ErrNotFound:
			http.Error(w, "No metrics found", http.StatusNotFound)
		case errors.ErrInvalidInput:
			http.Error(w, "Missing company domain", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to fetch key metrics", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(metrics)
}
