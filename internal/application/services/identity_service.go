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

// IdentityListener is called with the current identity, nil when signed out
type IdentityListener func(identity *entities.Identity)

// IdentityService holds the process-wide signed-in identity and tells
// subscribers when it changes
type IdentityService struct {
	provider providers.IdentityProvider

	mu        sync.Mutex
	current   *entities.Identity
	listeners map[uint64]IdentityListener
	nextID    uint64
}

// NewIdentityService creates a signed-out identity store
func NewIdentityService(provider providers.IdentityProvider) *IdentityService {
	return &IdentityService{
		provider:  provider,
		listeners: make(map[uint64]IdentityListener),
	}
}

// SignIn verifies idToken and makes its owner the current identity. Failures
// are logged and leave the current identity unchanged.
func (s *IdentityService) SignIn(ctx context.Context, idToken string) (*entities.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.NewValidationError("id token is required")
	}

	identity, err := s.provider.Verify(ctx, idToken)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Sign-in failed")
		return nil, apperrors.NewUnauthorizedError("sign-in failed", err)
	}

	s.set(identity)
	observability.LoggerFromContext(ctx).Info().Str("uid", identity.UID).Msg("User signed in")
	return identity, nil
}

// SignOut signs the current user out. Signing out while signed out is a no-op.
func (s *IdentityService) SignOut(ctx context.Context) error {
	current := s.Current()
	if current == nil {
		return nil
	}

	if err := s.provider.SignOut(ctx, current.UID); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("uid", current.UID).Msg("Sign-out failed")
		return apperrors.NewExternalError("sign-out failed", err)
	}

	s.set(nil)
	observability.LoggerFromContext(ctx).Info().Str("uid", current.UID).Msg("User signed out")
	return nil
}

// Current returns the signed-in identity or nil
func (s *IdentityService) Current() *entities.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn and calls it at once with the current identity.
// The returned func removes the subscription and may be called more than once.
func (s *IdentityService) Subscribe(fn IdentityListener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Subscribers returns the number of live subscriptions
func (s *IdentityService) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *IdentityService) set(identity *entities.Identity) {
	s.mu.Lock()
	s.current = identity
	listeners := make([]IdentityListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
}
