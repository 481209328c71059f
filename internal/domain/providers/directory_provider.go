package providers

import (
	"context"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// DirectoryProvider lists care providers
type DirectoryProvider interface {
	ListProviders(ctx context.Context) ([]*entities.Provider, error)

	// GetProvider returns a NOT_FOUND app error when id is unknown
	GetProvider(ctx context.Context, id string) (*entities.Provider, error)
}
