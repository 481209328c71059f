package directory

import (
	"context"
	"fmt"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

// DefaultProviders is the built-in provider list used in development
func DefaultProviders() []*entities.Provider {
	return []*entities.Provider{
		{
			ID:              "1",
			Name:            "Dr. Sarah Johnson",
			Specialty:       "Internal Medicine",
			Rating:          4.9,
			Reviews:         127,
			Location:        "San Francisco, CA",
			Availability:    entities.AvailabilityOnline,
			NextAvailable:   "Available now",
			ConsultationFee: 75,
			Experience:      "12 years",
		},
		{
			ID:              "2",
			Name:            "Dr. Michael Chen",
			Specialty:       "Cardiology",
			Rating:          4.8,
			Reviews:         89,
			Location:        "Los Angeles, CA",
			Availability:    entities.AvailabilityBusy,
			NextAvailable:   "Available in 20 mins",
			ConsultationFee: 120,
			Experience:      "15 years",
		},
		{
			ID:              "3",
			Name:            "Dr. Emily Rodriguez",
			Specialty:       "Dermatology",
			Rating:          4.9,
			Reviews:         156,
			Location:        "New York, NY",
			Availability:    entities.AvailabilityOnline,
			NextAvailable:   "Available now",
			ConsultationFee: 90,
			Experience:      "8 years",
		},
	}
}

// StaticAdapter serves a fixed provider list
type StaticAdapter struct {
	providers []*entities.Provider
	byID      map[string]*entities.Provider
}

// NewStaticAdapter creates an adapter over list. Callers receive copies, so
// the list cannot be mutated through the adapter.
func NewStaticAdapter(list []*entities.Provider) providers.DirectoryProvider {
	a := &StaticAdapter{byID: make(map[string]*entities.Provider, len(list))}
	for _, p := range list {
		cp := *p
		a.providers = append(a.providers, &cp)
		a.byID[cp.ID] = &cp
	}
	return a
}

// ListProviders returns every provider
func (a *StaticAdapter) ListProviders(ctx context.Context) ([]*entities.Provider, error) {
	out := make([]*entities.Provider, len(a.providers))
	for i, p := range a.providers {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

// GetProvider returns one provider
func (a *StaticAdapter) GetProvider(ctx context.Context, id string) (*entities.Provider, error) {
	p, ok := a.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	cp := *p
	return &cp, nil
}
