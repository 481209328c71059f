package firebase

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/pkg/config"
	"google.golang.org/api/option"
)

// NewAuthClient initializes the Firebase app and returns its Auth client.
// Without a credentials file the SDK falls back to application default
// credentials.
func NewAuthClient(ctx context.Context, cfg *config.FirebaseConfig) (*auth.Client, error) {
	if cfg == nil || cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Auth client: %w", err)
	}

	log.Info().Str("project_id", cfg.ProjectID).Msg("Firebase Auth initialized")
	return client, nil
}
