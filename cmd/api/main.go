package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/adapters/cache"
	"github.com/zatekoja/healia/backend/internal/adapters/database"
	"github.com/zatekoja/healia/backend/internal/adapters/directory"
	"github.com/zatekoja/healia/backend/internal/adapters/events"
	"github.com/zatekoja/healia/backend/internal/adapters/identity"
	"github.com/zatekoja/healia/backend/internal/adapters/media"
	"github.com/zatekoja/healia/backend/internal/api/handlers"
	"github.com/zatekoja/healia/backend/internal/api/middleware"
	"github.com/zatekoja/healia/backend/internal/api/routes"
	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/backend"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/firebase"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healia/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/healia/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/healia/backend/internal/infrastructure/observability"
	"github.com/zatekoja/healia/backend/pkg/config"
)

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Redis backs the notification bus and the directory cache. Without it
	// both fall back to in-process implementations.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process notification bus")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var bus providers.NotificationBus
	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		bus = events.NewRedisEventBus(redisClient)
		cacheProvider = cache.NewRedisAdapter(redisClient)
	} else {
		bus = events.NewMemoryEventBus()
		cacheProvider = cache.NewMemoryAdapter()
	}

	var directoryProvider providers.DirectoryProvider
	switch cfg.Directory.Source {
	case "postgres":
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		cached := database.NewCachedProviderAdapter(database.NewProviderAdapter(pgClient), cacheProvider, cfg.Directory.CacheTTL)
		refresher := services.NewDirectoryRefreshService(cached, cfg.Directory.CacheTTL)
		if err := refresher.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to warm provider directory")
		}
		defer refresher.Stop()
		directoryProvider = cached
	default:
		directoryProvider = directory.NewStaticAdapter(directory.DefaultProviders())
	}
	log.Info().Str("source", cfg.Directory.Source).Msg("Provider directory ready")

	backendClient, err := backend.NewClient(&cfg.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize conversational backend client")
	}

	var identityProvider providers.IdentityProvider
	if cfg.Firebase.Enabled {
		authClient, err := firebase.NewAuthClient(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase Auth")
		}
		identityProvider = identity.NewFirebaseAdapter(authClient)
	} else {
		log.Warn().Msg("Firebase disabled, accepting development identity tokens")
		identityProvider = identity.NewStaticAdapter(identity.DevIdentities())
	}

	directoryService := services.NewDirectoryService(directoryProvider)
	identityService := services.NewIdentityService(identityProvider)

	registry := services.NewWorkspaceRegistry(services.WorkspaceDeps{
		Directory: directoryService,
		Identity:  identityService,
		Backend:   backendClient,
		Devices:   &media.LoopbackDevices{Deny: cfg.Call.DenyMedia},
		Answerer:  &media.DelayedAnswerer{Delay: cfg.Call.AnswerDelay},
		Sink: notifications.FanoutSink{
			notifications.NewLogSink(),
			notifications.NewMetricsSink(metrics),
			notifications.NewBusSink(bus),
		},
		Metrics: metrics,
	})

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SERVER_TRUSTED_PROXIES")
	}

	router := routes.NewRouter(routes.Handlers{
		Workspace:  handlers.NewWorkspaceHandler(registry),
		Provider:   handlers.NewProviderHandler(directoryService),
		Call:       handlers.NewCallHandler(registry),
		Schedule:   handlers.NewScheduleHandler(registry, time.Local),
		Chat:       handlers.NewChatHandler(registry),
		Assessment: handlers.NewAssessmentHandler(registry),
		Auth:       handlers.NewAuthHandler(identityService),
		SSE:        handlers.NewSSEHandler(registry, bus),
	},
		middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst,
			middleware.WithTrustedProxies(trustedProxies)),
		cfg.Server.AllowedOrigins,
		cfg.OTEL.ServiceName,
	)

	// No write timeout: notification streams stay open for the life of a
	// workspace and backend requests may take up to the backend timeout.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Workspaces go first so live calls release their media and stream
	// handlers see their channels close.
	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error closing workspaces")
	}
	if err := bus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing notification bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
