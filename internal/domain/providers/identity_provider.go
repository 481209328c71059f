package providers

import (
	"context"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// IdentityProvider resolves sign-in tokens into identities
type IdentityProvider interface {
	// Verify validates an ID token and returns the identity it belongs to
	Verify(ctx context.Context, idToken string) (*entities.Identity, error)

	// SignOut revokes the user's sessions with the provider
	SignOut(ctx context.Context, uid string) error
}
