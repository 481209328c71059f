package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/application/call"
	"github.com/zatekoja/healia/backend/internal/application/scheduling"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

// WorkspaceDeps are the collaborators shared by every workspace
type WorkspaceDeps struct {
	Directory *DirectoryService
	Identity  *IdentityService
	Backend   providers.ConversationalBackend
	Devices   providers.MediaDevices
	Answerer  providers.PeerAnswerer
	Sink      providers.NotificationSink
	Metrics   *observability.Metrics

	// Now defaults to time.Now. Appointment dates are calendar days in
	// Location, which defaults to time.Local.
	Now      func() time.Time
	Location *time.Location
}

// WorkspaceOptions tune a single workspace
type WorkspaceOptions struct {
	// TeardownOnDisconnect closes the workspace when its notification
	// stream disconnects
	TeardownOnDisconnect bool
}

// WorkspaceRegistry creates and tracks workspaces
type WorkspaceRegistry struct {
	deps WorkspaceDeps

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewWorkspaceRegistry creates an empty registry
func NewWorkspaceRegistry(deps WorkspaceDeps) *WorkspaceRegistry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &WorkspaceRegistry{
		deps:       deps,
		workspaces: make(map[string]*Workspace),
	}
}

// Create opens a new workspace
func (r *WorkspaceRegistry) Create(ctx context.Context, opts WorkspaceOptions) *Workspace {
	id := uuid.New().String()

	controller := call.NewController(call.Config{
		WorkspaceID: id,
		Devices:     r.deps.Devices,
		Answerer:    r.deps.Answerer,
		Sink:        r.deps.Sink,
		Now:         r.deps.Now,
	})

	w := &Workspace{
		ID:                   id,
		CreatedAt:            r.deps.Now(),
		TeardownOnDisconnect: opts.TeardownOnDisconnect,
		directory:            r.deps.Directory,
		scope:                call.Open(context.Background(), controller),
		calls:                controller,
		gate: scheduling.NewGate(scheduling.GateConfig{
			WorkspaceID: id,
			Sink:        r.deps.Sink,
			Now:         r.deps.Now,
			Location:    r.deps.Location,
		}),
		chat:       NewChatService(r.deps.Backend),
		assessment: NewAssessmentService(r.deps.Backend, r.deps.Sink, id),
	}
	if r.deps.Identity != nil {
		w.unsubscribe = r.deps.Identity.Subscribe(w.setIdentity)
	}

	r.mu.Lock()
	r.workspaces[id] = w
	r.mu.Unlock()
	observability.RecordWorkspaces(ctx, r.deps.Metrics, 1)

	log.Info().Str("workspace_id", id).Bool("teardown_on_disconnect", opts.TeardownOnDisconnect).Msg("Workspace opened")
	return w
}

// Get returns an open workspace
func (r *WorkspaceRegistry) Get(id string) (*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workspaces[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("workspace not found")
	}
	return w, nil
}

// Close closes and forgets a workspace. Unknown ids are ignored so that
// closing twice is harmless.
func (r *WorkspaceRegistry) Close(id string) {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	w.Close()
	observability.RecordWorkspaces(context.Background(), r.deps.Metrics, -1)
	log.Info().Str("workspace_id", id).Msg("Workspace closed")
}

// Len returns the number of open workspaces
func (r *WorkspaceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Shutdown closes every workspace, giving up when ctx is done
func (r *WorkspaceRegistry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, w := range all {
			wg.Add(1)
			go func(w *Workspace) {
				defer wg.Done()
				w.Close()
			}(w)
		}
		wg.Wait()
	}()

	select {
	case <-done:
		observability.RecordWorkspaces(ctx, r.deps.Metrics, -int64(len(all)))
		log.Info().Int("workspaces", len(all)).Msg("All workspaces closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
