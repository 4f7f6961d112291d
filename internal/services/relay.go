package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"converza-backend/internal/models"
)

const (
	// Only the most recent turns are forwarded upstream. Earlier context is
	// dropped; the widget keeps the full transcript locally.
	historyWindow = 10

	// Hard deadline for a single upstream call. On expiry the handler
	// answers 504; there is no retry inside the relay.
	upstreamTimeout = 20 * time.Second
)

// FallbackReply is returned when Gemini answers successfully but yields no
// extractable text (empty candidates, safety-trimmed parts).
const FallbackReply = "I'm sorry, I couldn't come up with an answer just now. Could you try rephrasing your question?"

// generator is the narrow surface of the Gemini SDK the relay depends on.
type generator interface {
	Generate(ctx context.Context, window []*genai.Content) (*genai.GenerateContentResponse, error)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) Generate(ctx context.Context, window []*genai.Content) (*genai.GenerateContentResponse, error) {
	cs := g.model.StartChat()
	cs.History = window[:len(window)-1]
	last := window[len(window)-1]
	return cs.SendMessage(ctx, last.Parts...)
}

// RelayService forwards conversation turns to Gemini and normalizes every
// failure mode into a typed error. It holds no per-conversation state.
type RelayService struct {
	client      *genai.Client
	gen         generator
	companyName string
	timeout     time.Duration
}

// NewRelayService creates the relay. An empty apiKey is allowed: the service
// comes up unconfigured and answers every chat with *ConfigurationError, so a
// missing credential is visible to callers instead of crashing the process.
func NewRelayService(ctx context.Context, apiKey, modelName, companyName string) (*RelayService, error) {
	s := &RelayService{
		companyName: companyName,
		timeout:     upstreamTimeout,
	}
	if apiKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(1024)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
	}

	s.client = client
	s.gen = &geminiGenerator{model: model}
	return s, nil
}

func (s *RelayService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Chat submits the windowed history to Gemini and returns the reply text.
// messages must be non-empty; the handler validates that before calling.
func (s *RelayService) Chat(ctx context.Context, messages []models.ChatMessage, userType string) (string, error) {
	if s.gen == nil {
		return "", &ConfigurationError{Message: "GEMINI_API_KEY is not set"}
	}

	window := buildWindow(messages, buildSystemPrompt(s.companyName, userType))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.gen.Generate(ctx, window)
	if err != nil {
		// The SDK wraps deadline expiry differently per transport, so check
		// our own context first.
		if ctx.Err() == context.DeadlineExceeded {
			return "", &TimeoutError{Message: "the assistant did not respond in time"}
		}
		return "", mapUpstreamError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &BlockedError{Reason: resp.PromptFeedback.BlockReason.String()}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return FallbackReply, nil
	}
	return text, nil
}

// buildWindow trims the history to the most recent historyWindow turns, maps
// roles to Gemini's vocabulary (assistant -> "model") and prepends exactly one
// synthesized system-prompt turn at position 0.
func buildWindow(messages []models.ChatMessage, systemPrompt string) []*genai.Content {
	if len(messages) > historyWindow {
		messages = messages[len(messages)-historyWindow:]
	}

	window := make([]*genai.Content, 0, len(messages)+1)
	window = append(window, &genai.Content{
		Role:  "user",
		Parts: []genai.Part{genai.Text(systemPrompt)},
	})

	for _, m := range messages {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		window = append(window, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	return window
}

func mapUpstreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Message: "the assistant did not respond in time"}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &UpstreamError{
			StatusCode: gerr.Code,
			Body:       strings.TrimSpace(gerr.Message),
		}
	}

	return fmt.Errorf("gemini call failed: %w", err)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// Typed relay errors, mapped to HTTP statuses by the handler layer.

// ConfigurationError means the relay has no upstream credential. Operators
// must fix it; retrying does not help.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

// TimeoutError means the upstream call exceeded the relay deadline.
type TimeoutError struct{ Message string }

func (e *TimeoutError) Error() string { return e.Message }

// UpstreamError means Gemini answered with a non-success HTTP status.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI service returned status %d", e.StatusCode)
}

// BlockedError means Gemini accepted the request but refused to generate,
// typically a safety block on the prompt.
type BlockedError struct{ Reason string }

func (e *BlockedError) Error() string { return "AI service rejected the request: " + e.Reason }
