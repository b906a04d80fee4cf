package handlers

import (
	"encoding/json"
	"net/http"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"
	"connect-api/internal/services"
)

// TopUpRedirectPath is where clients are sent when a chat creation is
// declined for lack of coins.
const TopUpRedirectPath = "/dashboard/buy_connection"

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

type createChatRequest struct {
	User1ID  string `json:"user1_id"`
	User2ID  string `json:"user2_id"`
	ScriptID string `json:"script_id"`
	DocURL   string `json:"doc_url"`
}

type createChatResponse struct {
	Message string       `json:"message"`
	Chat    *models.Chat `json:"chat"`
	Coins   int          `json:"coins"`
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// The initiator comes from the session; the payload only names the pair.
	initiator := user.ID.String()
	var other string
	switch initiator {
	case req.User1ID:
		other = req.User2ID
	case req.User2ID:
		other = req.User1ID
	default:
		http.Error(w, "Initiator must be one of user1_id or user2_id", http.StatusBadRequest)
		return
	}

	result, err := h.chatService.CreateChat(r.Context(), initiator, other, req.ScriptID, req.DocURL)
	if err != nil {
		h.writeCreateChatError(w, err)
		return
	}

	status := http.StatusCreated
	message := "Chat created"
	if result.Replayed {
		status = http.StatusOK
		message = "Chat already exists"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(createChatResponse{
		Message: message,
		Chat:    result.Chat,
		Coins:   result.Coins,
	})
}

func (h *ChatHandler) writeCreateChatError(w http.ResponseWriter, err error) {
	if _, ok := errors.IsInsufficientCredit(err); ok {
		w.Header().Set("X-Redirect-To", TopUpRedirectPath)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{
			"error":    "Insufficient connections",
			"redirect": TopUpRedirectPath,
		})
		return
	}

	switch err {
	case errors.ErrInvalidInput:
		http.Error(w, "Invalid chat request", http.StatusBadRequest)
	case errors.ErrStoreUnavailable:
		http.Error(w, "Service temporarily unavailable, please try again", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Failed to create chat", http.StatusInternalServerError)
	}
}
