package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"converza-backend/internal/models"
	"converza-backend/internal/services"
)

// chatRelay is what the handler needs from the relay service.
type chatRelay interface {
	Chat(ctx context.Context, messages []models.ChatMessage, userType string) (string, error)
}

type ChatHandler struct {
	relay chatRelay
}

func NewChatHandler(relay chatRelay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Chat handles POST /api/chat. It validates the request, forwards the turn
// history to the relay and writes either {message} or the error envelope.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request format",
			Details: "body must be JSON with a messages array",
		})
		return
	}

	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request format",
			Details: "messages must be a non-empty array",
		})
		return
	}

	reply, err := h.relay.Chat(r.Context(), req.Messages, req.UserType)
	if err != nil {
		handleRelayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Message: reply})
}

// handleRelayError maps typed relay errors onto the HTTP status contract:
// 500 configuration / upstream-rejection / unknown, 502 upstream HTTP error,
// 504 timeout. Nothing propagates as a raw error to the widget.
func handleRelayError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *services.ConfigurationError:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "configuration error",
			Details: e.Message,
		})
	case *services.UpstreamError:
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{
			Error:   "AI service error",
			Details: e.Body,
			Status:  e.StatusCode,
		})
	case *services.BlockedError:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "AI service error",
			Details: e.Reason,
		})
	case *services.TimeoutError:
		writeJSON(w, http.StatusGatewayTimeout, models.ErrorResponse{
			Error:   "request timed out",
			Details: e.Message,
		})
	default:
		log.Printf("chat relay error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to process request",
			Details: err.Error(),
		})
	}
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// MethodNotAllowed is installed as the router-wide 405 handler so wrong-method
// calls get the same JSON envelope as every other error.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
}

// NotFound is the router-wide 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
}
