package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"converza-backend/internal/handlers"
	"converza-backend/internal/models"
)

type stubRelay struct {
	reply string
	err   error
}

func (s *stubRelay) Chat(ctx context.Context, messages []models.ChatMessage, userType string) (string, error) {
	return s.reply, s.err
}

func newTestRouter(relay *stubRelay) http.Handler {
	return New(handlers.NewChatHandler(relay), "http://localhost:5173", 100)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubRelay{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health body: %s", rr.Body.String())
	}
}

func TestChatEndpoint_RoundTrip(t *testing.T) {
	r := newTestRouter(&stubRelay{reply: "Hello"})

	body := `{"messages":[{"role":"user","content":"hi"}],"userType":"client"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "Hello" {
		t.Errorf("Expected 'Hello', got %q", resp.Message)
	}
}

func TestChatEndpoint_WrongMethod(t *testing.T) {
	r := newTestRouter(&stubRelay{})

	req := httptest.NewRequest(http.MethodPut, "/api/chat", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Expected JSON envelope for 405: %v", err)
	}
	if resp.Error != "method not allowed" {
		t.Errorf("Expected 'method not allowed', got %q", resp.Error)
	}
}

func TestChatEndpoint_CORSHeaders(t *testing.T) {
	r := newTestRouter(&stubRelay{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("Expected CORS origin header, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestWidgetPageServed(t *testing.T) {
	r := newTestRouter(&stubRelay{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for widget page, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Converza Chat") {
		t.Error("Expected embedded widget page at /")
	}
}
