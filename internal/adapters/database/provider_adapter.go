package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

const providersTable = "providers"

var providerColumns = []interface{}{
	"id", "name", "specialty", "rating", "reviews", "location",
	"availability", "next_available", "consultation_fee", "experience",
}

// ProviderAdapter reads the provider directory from PostgreSQL
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) providers.DirectoryProvider {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListProviders returns every provider ordered by id
func (a *ProviderAdapter) ListProviders(ctx context.Context) ([]*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From(providersTable).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var out []*entities.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	return out, nil
}

// GetProvider returns one provider
func (a *ProviderAdapter) GetProvider(ctx context.Context, id string) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From(providersTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p, err := scanProvider(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	return p, nil
}

// Upsert writes p, replacing any provider with the same id
func (a *ProviderAdapter) Upsert(ctx context.Context, p *entities.Provider) error {
	record := goqu.Record{
		"id":               p.ID,
		"name":             p.Name,
		"specialty":        p.Specialty,
		"rating":           p.Rating,
		"reviews":          p.Reviews,
		"location":         p.Location,
		"availability":     string(p.Availability),
		"next_available":   p.NextAvailable,
		"consultation_fee": p.ConsultationFee,
		"experience":       p.Experience,
	}

	query, args, err := a.db.Insert(providersTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert provider", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (*entities.Provider, error) {
	p := &entities.Provider{}
	var availability string
	var nextAvailable, experience sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Rating,
		&p.Reviews,
		&p.Location,
		&availability,
		&nextAvailable,
		&p.ConsultationFee,
		&experience,
	); err != nil {
		return nil, err
	}

	p.Availability = entities.Availability(availability)
	if !p.Availability.Valid() {
		p.Availability = entities.AvailabilityOffline
	}
	p.NextAvailable = nextAvailable.String
	p.Experience = experience.String
	return p, nil
}
