package chatclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"converza-backend/internal/models"
)

var (
	// ErrBusy is returned while a previous send is still in flight; the
	// widget disables input until the turn completes.
	ErrBusy = errors.New("a send is already in flight")

	// ErrEmptyMessage rejects blank input before any state changes.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNothingToRetry means the transcript does not end in an error turn.
	ErrNothingToRetry = errors.New("no failed turn to retry")
)

// sender is what the session needs from the relay transport.
type sender interface {
	Send(ctx context.Context, messages []models.ChatMessage, userType string) (string, error)
}

// Session holds one conversation: the ordered turn list, the audience type
// and the single-flight pending flag. All state is in memory and is gone
// when the session is.
type Session struct {
	mu       sync.Mutex
	client   sender
	userType string
	turns    []models.Turn
	pending  bool
}

func NewSession(client sender, userType string) *Session {
	return &Session{client: client, userType: userType}
}

// SendTurn appends text as a user turn, posts the history to the relay and
// appends the outcome: the assistant's reply, or an error-flagged turn whose
// content is the message shown to the user. The returned error is the
// underlying failure (nil on success); the appended turn is returned either
// way once the exchange ran.
func (s *Session) SendTurn(ctx context.Context, text string) (models.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return models.Turn{}, ErrBusy
	}
	s.pending = true
	s.turns = append(s.turns, newTurn(models.RoleUser, text, false))
	history := s.historyLocked()
	s.mu.Unlock()

	return s.complete(ctx, history)
}

// RetryLastFailed drops the trailing error turn(s) and resubmits the most
// recent user turn's content unchanged through the same path.
func (s *Session) RetryLastFailed(ctx context.Context) (models.Turn, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return models.Turn{}, ErrBusy
	}

	n := len(s.turns)
	for n > 0 && s.turns[n-1].IsError {
		n--
	}
	if n == len(s.turns) || n == 0 || s.turns[n-1].Role != models.RoleUser {
		s.mu.Unlock()
		return models.Turn{}, ErrNothingToRetry
	}

	s.turns = s.turns[:n]
	s.pending = true
	history := s.historyLocked()
	s.mu.Unlock()

	return s.complete(ctx, history)
}

func (s *Session) complete(ctx context.Context, history []models.ChatMessage) (models.Turn, error) {
	reply, err := s.client.Send(ctx, history, s.userType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false

	var turn models.Turn
	if err != nil {
		turn = newTurn(models.RoleAssistant, errorText(err), true)
	} else {
		turn = newTurn(models.RoleAssistant, reply, false)
	}
	s.turns = append(s.turns, turn)
	return turn, err
}

// historyLocked serializes the transcript for the relay, skipping error
// turns: they are rendered locally but never part of the conversation sent
// upstream. Callers must hold s.mu.
func (s *Session) historyLocked() []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(s.turns))
	for _, t := range s.turns {
		if t.IsError {
			continue
		}
		msgs = append(msgs, models.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// Turns returns a copy of the transcript in append order.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Pending reports whether a send is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func newTurn(role, content string, isError bool) models.Turn {
	return models.Turn{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		IsError:   isError,
	}
}
