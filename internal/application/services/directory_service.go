package services

import (
	"context"
	"sort"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

// DirectoryService is the read-only view of care providers
type DirectoryService struct {
	directory providers.DirectoryProvider
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(directory providers.DirectoryProvider) *DirectoryService {
	return &DirectoryService{directory: directory}
}

// Search lists providers matching filter, in directory order
func (s *DirectoryService) Search(ctx context.Context, filter entities.ProviderFilter) ([]*entities.Provider, error) {
	all, err := s.directory.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*entities.Provider, 0, len(all))
	for _, p := range all {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Get returns one provider
func (s *DirectoryService) Get(ctx context.Context, id string) (*entities.Provider, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("provider id is required")
	}
	return s.directory.GetProvider(ctx, id)
}

// Specialties returns the distinct specialties, sorted
func (s *DirectoryService) Specialties(ctx context.Context) ([]string, error) {
	all, err := s.directory.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range all {
		if p.Specialty != "" && !seen[p.Specialty] {
			seen[p.Specialty] = true
			out = append(out, p.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}
