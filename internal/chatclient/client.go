// Package chatclient implements the widget side of the conversation: an
// append-only turn list with a single-flight send, and the HTTP transport
// that talks to the relay endpoint.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"converza-backend/internal/models"
)

// callTimeout bounds one relay call end to end, independent of the relay's
// own upstream deadline. It is deliberately looser than the relay's 20s so a
// relay-side 504 normally arrives before the transport gives up.
const callTimeout = 45 * time.Second

// Client posts turn histories to the relay.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: callTimeout},
	}
}

// TransportError means the relay could not be reached or did not answer
// within the client-side bound.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return "relay call timed out"
	}
	return fmt.Sprintf("relay call failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RelayError is a non-200 response from the relay, already normalized into
// the error envelope.
type RelayError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *RelayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("relay returned status %d", e.StatusCode)
}

// Send posts the serialized history and returns the assistant reply text.
func (c *Client) Send(ctx context.Context, messages []models.ChatMessage, userType string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Messages: messages, UserType: userType})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &TransportError{Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var cr models.ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", &TransportError{Err: fmt.Errorf("malformed relay response: %w", err)}
		}
		return cr.Message, nil
	}

	// Decode is best-effort: a proxy in front of the relay may answer with
	// a non-JSON body.
	var er models.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	return "", &RelayError{StatusCode: resp.StatusCode, Message: er.Error, Details: er.Details}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// errorText maps any failure onto the single human-readable message shown in
// the error turn. The widget never branches on status codes beyond this.
func errorText(err error) string {
	var terr *TransportError
	if errors.As(err, &terr) && terr.Timeout {
		return "The assistant took too long to respond. Please try again."
	}

	var rerr *RelayError
	if errors.As(err, &rerr) {
		switch rerr.StatusCode {
		case http.StatusGatewayTimeout:
			return "The assistant took too long to respond. Please try again."
		case http.StatusTooManyRequests:
			return "You're sending messages a little too fast. Give it a moment and try again."
		}
	}

	return "Something went wrong while contacting the assistant. Please try again."
}
