package models

import (
	"time"

	"github.com/google/uuid"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User types selecting the system prompt template.
const (
	UserTypeCompany = "company"
	UserTypeClient  = "client"
)

// Turn is one message in a conversation. Turns are immutable once appended;
// their order defines the conversation order sent upstream.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"is_error,omitempty"`
}

// ChatMessage is one turn serialized for the relay endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload accepted by POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	UserType string        `json:"userType"`
}

// ChatResponse carries the assistant reply on success.
type ChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the normalized error envelope returned on any failure.
// Status carries the upstream HTTP status for 502 responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status,omitempty"`
}
