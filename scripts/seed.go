package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/adapters/database"
	"github.com/zatekoja/healia/backend/internal/adapters/directory"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healia/backend/pkg/config"
)

const providersDDL = `
CREATE TABLE IF NOT EXISTS providers (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	specialty        TEXT NOT NULL,
	rating           DOUBLE PRECISION NOT NULL DEFAULT 0,
	reviews          INTEGER NOT NULL DEFAULT 0,
	location         TEXT NOT NULL DEFAULT '',
	availability     TEXT NOT NULL DEFAULT 'Offline',
	next_available   TEXT NOT NULL DEFAULT '',
	consultation_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
	experience       TEXT NOT NULL DEFAULT ''
)`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if _, err := pgClient.DB().ExecContext(ctx, providersDDL); err != nil {
		log.Fatal().Err(err).Msg("Failed to create providers table")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating providers before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE providers`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset providers")
		}
	}

	store := database.NewProviderAdapter(pgClient).(*database.ProviderAdapter)
	seeded := 0
	for _, p := range directory.DefaultProviders() {
		if err := store.Upsert(ctx, p); err != nil {
			log.Error().Err(err).Str("provider", p.Name).Msg("Failed to seed provider")
			continue
		}
		seeded++
	}

	log.Info().Int("providers", seeded).Msg("Seeding complete")
}
