package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// CachedDirectory is a directory whose snapshot can be dropped
type CachedDirectory interface {
	providers.DirectoryProvider
	Invalidate(ctx context.Context) error
}

// DirectoryRefreshService keeps a cached directory warm: it loads the
// snapshot on start and replaces it on every tick, so availability changes
// in the backing store show up without waiting for the TTL.
type DirectoryRefreshService struct {
	directory CachedDirectory
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDirectoryRefreshService creates a refresher running every interval
func NewDirectoryRefreshService(directory CachedDirectory, interval time.Duration) *DirectoryRefreshService {
	return &DirectoryRefreshService{directory: directory, interval: interval}
}

// Start warms the cache and begins refreshing it. Starting twice is a no-op.
func (s *DirectoryRefreshService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	if _, err := s.directory.ListProviders(ctx); err != nil {
		return fmt.Errorf("failed to warm provider directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	log.Info().Dur("interval", s.interval).Msg("Directory refresh service started")
	return nil
}

// Stop ends the refresh loop and waits for it to exit
func (s *DirectoryRefreshService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Directory refresh service stopped")
}

// Refresh drops the cached snapshot and loads a new one
func (s *DirectoryRefreshService) Refresh(ctx context.Context) error {
	if err := s.directory.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate provider directory: %w", err)
	}
	list, err := s.directory.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload provider directory: %w", err)
	}
	log.Debug().Int("providers", len(list)).Msg("Provider directory refreshed")
	return nil
}

func (s *DirectoryRefreshService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := s.Refresh(refreshCtx); err != nil {
				log.Warn().Err(err).Msg("Directory refresh failed")
			}
			cancel()
		}
	}
}
