package identity

import (
	"context"
	"errors"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// ErrUnknownToken is returned for tokens the static adapter does not know
var ErrUnknownToken = errors.New("unknown id token")

// StaticAdapter maps fixed tokens to identities. It is meant for local
// development without a Firebase project.
type StaticAdapter struct {
	identities map[string]*entities.Identity
}

// NewStaticAdapter creates an adapter over token -> identity
func NewStaticAdapter(identities map[string]*entities.Identity) providers.IdentityProvider {
	return &StaticAdapter{identities: identities}
}

// DevIdentities is the token table used when Firebase is disabled
func DevIdentities() map[string]*entities.Identity {
	return map[string]*entities.Identity{
		"dev-token": {UID: "dev-user", DisplayName: "Dev Patient", Email: "patient@healia.local"},
	}
}

// Verify looks the token up
func (a *StaticAdapter) Verify(ctx context.Context, idToken string) (*entities.Identity, error) {
	identity, ok := a.identities[idToken]
	if !ok {
		return nil, ErrUnknownToken
	}
	cp := *identity
	return &cp, nil
}

// SignOut always succeeds
func (a *StaticAdapter) SignOut(ctx context.Context, uid string) error {
	return nil
}
