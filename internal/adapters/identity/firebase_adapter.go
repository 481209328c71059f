package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// AuthClient is the part of the Firebase Auth client the adapter uses
type AuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseAdapter verifies Firebase ID tokens, such as those produced by the
// Google sign-in popup
type FirebaseAdapter struct {
	client AuthClient
}

// NewFirebaseAdapter creates a new Firebase identity adapter
func NewFirebaseAdapter(client AuthClient) providers.IdentityProvider {
	return &FirebaseAdapter{client: client}
}

// Verify checks idToken and loads the user's profile
func (a *FirebaseAdapter) Verify(ctx context.Context, idToken string) (*entities.Identity, error) {
	token, err := a.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	user, err := a.client.GetUser(ctx, token.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", token.UID, err)
	}

	identity := &entities.Identity{UID: token.UID}
	if user.UserInfo != nil {
		identity.DisplayName = user.DisplayName
		identity.Email = user.Email
		identity.PhotoURL = user.PhotoURL
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Email
	}
	return identity, nil
}

// SignOut revokes the user's refresh tokens
func (a *FirebaseAdapter) SignOut(ctx context.Context, uid string) error {
	if err := a.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("failed to revoke tokens for %s: %w", uid, err)
	}
	return nil
}
