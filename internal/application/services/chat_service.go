package services

import (
	"context"
	"strings"
	"sync"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

const (
	// ChatGreeting opens every transcript
	ChatGreeting = "Hello! I am Healia, your personal AI health assistant. How can I help you today?"
	// ChatFallback replaces the reply when the backend cannot be reached
	ChatFallback = "Sorry, I am unable to connect to my service right now. Please try again later."
)

// ErrBusy is returned when an action is re-invoked before its previous
// request has settled
var ErrBusy = apperrors.NewBusyError("a previous request is still pending")

// ChatService keeps one chat transcript and relays messages to the
// conversational backend, one at a time
type ChatService struct {
	backend providers.ConversationalBackend

	mu       sync.Mutex
	messages []entities.ChatMessage
	busy     bool
}

// NewChatService creates a transcript holding the greeting
func NewChatService(backend providers.ConversationalBackend) *ChatService {
	return &ChatService{
		backend:  backend,
		messages: []entities.ChatMessage{{Text: ChatGreeting, Sender: entities.SenderBot}},
	}
}

// Send appends the user's message, asks the backend for a reply and appends
// it. Blank input is ignored. Backend failures are never returned: the reply
// becomes ChatFallback. Once issued, the backend request outlives ctx.
func (s *ChatService) Send(ctx context.Context, text string) ([]entities.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	userMsg := entities.ChatMessage{Text: text, Sender: entities.SenderUser}
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	reply, err := s.backend.Chat(context.WithoutCancel(ctx), text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Chat backend request failed")
		reply = ChatFallback
	}
	botMsg := entities.ChatMessage{Text: reply, Sender: entities.SenderBot}

	s.mu.Lock()
	s.messages = append(s.messages, botMsg)
	s.busy = false
	s.mu.Unlock()

	return []entities.ChatMessage{userMsg, botMsg}, nil
}

// Transcript returns a copy of every message so far
func (s *ChatService) Transcript() []entities.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Busy reports whether a send is in flight
func (s *ChatService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}
