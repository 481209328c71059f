package call

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// ErrClosed is returned when starting a call on a closed controller
var ErrClosed = errors.New("call controller is closed")

// Config wires a Controller to its collaborators
type Config struct {
	WorkspaceID string
	Devices     providers.MediaDevices
	Answerer    providers.PeerAnswerer
	Sink        providers.NotificationSink

	// Now and NewID default to time.Now and uuid strings
	Now   func() time.Time
	NewID func() string
}

// Controller runs the call state machine for one workspace. Transitions are
// applied one at a time under a mutex; media acquisition and answer waits run
// in goroutines that report back as events tagged with their session id.
type Controller struct {
	cfg Config

	mu      sync.Mutex
	session Session
	media   *MediaHandle
	// cancel aborts the in-flight work of the current session
	cancel context.CancelFunc
	// acquired is closed once the current capture request has reported
	acquired chan struct{}
	// notifyCtx carries request-scoped values of the call that started the session
	notifyCtx context.Context
	closed    bool

	wg sync.WaitGroup
}

// NewController creates an idle controller
func NewController(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	return &Controller{
		cfg:       cfg,
		media:     NewMediaHandle(),
		cancel:    func() {},
		notifyCtx: context.Background(),
	}
}

// Start begins a call with p. Any live session is ended first. The caller is
// responsible for checking that p may be called.
func (c *Controller) Start(ctx context.Context, p *entities.Provider) (entities.CallSnapshot, error) {
	// End whatever is live, then re-check under the lock: a concurrent Start
	// may have begun another session in between.
	c.mu.Lock()
	for c.session.Live() && !c.closed {
		c.mu.Unlock()
		c.End(ctx)
		c.mu.Lock()
	}
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked(), ErrClosed
	}

	c.cancel()
	base := context.WithoutCancel(ctx)
	sessionCtx, cancel := context.WithCancel(base)
	c.cancel = cancel
	c.notifyCtx = base
	c.media = NewMediaHandle()

	c.applyLocked(sessionCtx, StartRequested{
		SessionID:    c.cfg.NewID(),
		ProviderID:   p.ID,
		ProviderName: p.Name,
		At:           c.cfg.Now(),
	})

	return c.snapshotLocked(), nil
}

// End ends the current call. A pending capture request is cancelled and
// allowed to report before the session ends. Ending an idle or ended session
// does nothing.
func (c *Controller) End(ctx context.Context) entities.CallSnapshot {
	c.mu.Lock()
	if !c.session.Live() {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	sessionID := c.session.ID
	cancel, acquired := c.cancel, c.acquired
	c.mu.Unlock()

	cancel()
	if acquired != nil {
		select {
		case <-acquired:
		case <-ctx.Done():
			log.Warn().Str("workspace_id", c.cfg.WorkspaceID).Str("session_id", sessionID).
				Msg("Ending call before media acquisition settled")
		}
	}

	c.dispatch(context.Background(), EndRequested{SessionID: sessionID, At: c.cfg.Now()})
	return c.Snapshot()
}

// ToggleMute flips the mute flag. It reports false when no call is live.
func (c *Controller) ToggleMute() (entities.CallSnapshot, bool) {
	return c.toggle(ToggleMute{})
}

// ToggleVideo flips the video-disabled flag. It reports false when no call is live.
func (c *Controller) ToggleVideo() (entities.CallSnapshot, bool) {
	return c.toggle(ToggleVideo{})
}

func (c *Controller) toggle(ev Event) (entities.CallSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Live() {
		return c.snapshotLocked(), false
	}
	c.applyLocked(context.Background(), ev)
	return c.snapshotLocked(), true
}

// Snapshot returns the current session as seen by the API
func (c *Controller) Snapshot() entities.CallSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Live reports whether a call is connecting or active
func (c *Controller) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Live()
}

// Close ends any live call, refuses further calls and waits for background
// work to finish.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.End(ctx)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Str("workspace_id", c.cfg.WorkspaceID).Msg("Timed out waiting for call goroutines")
	}
}

func (c *Controller) dispatch(ctx context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(ctx, ev)
}

// applyLocked runs one transition and its effects. ctx is the session context
// handed to any background work the effects start.
func (c *Controller) applyLocked(ctx context.Context, ev Event) {
	next, effects := Transition(c.session, ev)
	prev := c.session.state()
	c.session = next

	if prev != next.state() {
		log.Info().
			Str("workspace_id", c.cfg.WorkspaceID).
			Str("session_id", next.ID).
			Str("from", string(prev)).
			Str("to", string(next.state())).
			Msg("Call state changed")
	}

	for _, effect := range effects {
		c.execute(ctx, effect)
	}
}

func (c *Controller) execute(ctx context.Context, effect Effect) {
	switch e := effect.(type) {
	case AcquireMedia:
		c.acquired = make(chan struct{})
		c.wg.Add(1)
		go c.acquire(ctx, e, c.acquired)

	case BindMedia:
		c.media.Bind(e.Role, e.Stream)

	case AwaitAnswer:
		if ctx.Err() != nil {
			return
		}
		c.wg.Add(1)
		go c.awaitAnswer(ctx, e)

	case ReleaseMedia:
		c.cancel()
		stopped := c.media.Release()
		log.Debug().Str("workspace_id", c.cfg.WorkspaceID).Int("tracks", stopped).Msg("Released call media")

	case SetTrackEnabled:
		c.media.SetEnabled(e.Kind, e.Enabled)

	case DiscardStream:
		stopStream(e.Stream)
		log.Debug().Str("workspace_id", c.cfg.WorkspaceID).Str("stream_id", e.Stream.ID()).Msg("Discarded stale stream")

	case Notify:
		if c.cfg.Sink == nil {
			return
		}
		c.cfg.Sink.Notify(c.notifyCtx, entities.Notification{
			ID:          uuid.New().String(),
			WorkspaceID: c.cfg.WorkspaceID,
			Kind:        e.Kind,
			Title:       e.Title,
			Description: e.Description,
			Variant:     e.Variant,
			CreatedAt:   c.cfg.Now(),
		})
	}
}

func (c *Controller) acquire(ctx context.Context, e AcquireMedia, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)

	stream, err := c.cfg.Devices.GetUserMedia(ctx, e.Constraints)
	if err != nil {
		aborted := ctx.Err() != nil
		if !aborted {
			log.Warn().Err(err).Str("workspace_id", c.cfg.WorkspaceID).Str("session_id", e.SessionID).
				Msg("Media acquisition failed")
		}
		c.dispatch(ctx, MediaFailed{SessionID: e.SessionID, Err: err, Aborted: aborted})
		return
	}
	c.dispatch(ctx, MediaAcquired{SessionID: e.SessionID, Stream: stream})
}

func (c *Controller) awaitAnswer(ctx context.Context, e AwaitAnswer) {
	defer c.wg.Done()

	stream, err := c.cfg.Answerer.AwaitAnswer(ctx, e.SessionID, e.ProviderID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("workspace_id", c.cfg.WorkspaceID).Str("session_id", e.SessionID).
			Msg("Remote answer failed")
		c.dispatch(ctx, AnswerFailed{SessionID: e.SessionID, Err: err})
		return
	}
	c.dispatch(ctx, RemoteAnswered{SessionID: e.SessionID, Stream: stream})
}

func (c *Controller) snapshotLocked() entities.CallSnapshot {
	s := c.session
	snap := entities.CallSnapshot{
		SessionID:      s.ID,
		ProviderID:     s.ProviderID,
		ProviderName:   s.ProviderName,
		State:          s.state(),
		Muted:          s.Muted,
		VideoDisabled:  s.VideoDisabled,
		HasLocalMedia:  c.media.HasLocal(),
		HasRemoteMedia: c.media.HasRemote(),
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		snap.StartedAt = &started
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		snap.EndedAt = &ended
	}
	return snap
}
