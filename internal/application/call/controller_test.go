package call

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zatekoja/healia/backend/internal/adapters/media"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const eventually = 2 * time.Second

var drSarah = &entities.Provider{ID: "1", Name: "Dr. Sarah Johnson", Availability: entities.AvailabilityOnline}

// gatedDevices blocks each capture request until the test grants or denies it
type gatedDevices struct {
	decisions chan error
	// ignoreCancel keeps waiting for a decision after ctx is done
	ignoreCancel bool

	mu       sync.Mutex
	requests int
	streams  []*media.Stream
}

func newGatedDevices() *gatedDevices {
	return &gatedDevices{decisions: make(chan error, 1)}
}

func (d *gatedDevices) GetUserMedia(ctx context.Context, c providers.MediaConstraints) (providers.MediaStream, error) {
	d.mu.Lock()
	d.requests++
	d.mu.Unlock()

	var err error
	if d.ignoreCancel {
		err = <-d.decisions
	} else {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err = <-d.decisions:
		}
	}
	if err != nil {
		return nil, err
	}

	stream := media.NewStream(providers.TrackAudio, providers.TrackVideo)
	d.mu.Lock()
	d.streams = append(d.streams, stream)
	d.mu.Unlock()
	return stream, nil
}

func (d *gatedDevices) grant()         { d.decisions <- nil }
func (d *gatedDevices) deny(err error) { d.decisions <- err }
func (d *gatedDevices) stream(i int) *media.Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[i]
}
func (d *gatedDevices) streamCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

// instantAnswerer answers at once and keeps the remote streams it handed out
type instantAnswerer struct {
	mu      sync.Mutex
	streams []*media.Stream
}

func (a *instantAnswerer) AwaitAnswer(ctx context.Context, sessionID, providerID string) (providers.MediaStream, error) {
	stream := media.NewStream(providers.TrackAudio, providers.TrackVideo)
	a.mu.Lock()
	a.streams = append(a.streams, stream)
	a.mu.Unlock()
	return stream, nil
}

func (a *instantAnswerer) stream(i int) *media.Stream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.streams[i]
}

type recordingSink struct {
	mu    sync.Mutex
	items []entities.Notification
}

func (s *recordingSink) Notify(ctx context.Context, n entities.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
}

func (s *recordingSink) kinds() []entities.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.NotificationKind
	for _, n := range s.items {
		out = append(out, n.Kind)
	}
	return out
}

func stopCounts(s *media.Stream) []int {
	var out []int
	for _, t := range s.LocalTracks() {
		out = append(out, t.StopCount())
	}
	return out
}

type fixture struct {
	controller *Controller
	devices    *gatedDevices
	answerer   *instantAnswerer
	sink       *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		devices:  newGatedDevices(),
		answerer: &instantAnswerer{},
		sink:     &recordingSink{},
	}
	f.controller = NewController(Config{
		WorkspaceID: "ws-1",
		Devices:     f.devices,
		Answerer:    f.answerer,
		Sink:        f.sink,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventually)
		defer cancel()
		f.controller.Close(ctx)
	})
	return f
}

func (f *fixture) waitFor(t *testing.T, state entities.CallState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.controller.Snapshot().State == state
	}, eventually, time.Millisecond)
}

func TestController_StartReachesActive(t *testing.T) {
	f := newFixture(t)

	snap, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)
	assert.Equal(t, entities.CallStateConnecting, snap.State)
	assert.NotEmpty(t, snap.SessionID)
	assert.False(t, snap.HasLocalMedia)

	f.devices.grant()
	f.waitFor(t, entities.CallStateActive)

	snap = f.controller.Snapshot()
	assert.True(t, snap.HasLocalMedia)
	assert.True(t, snap.HasRemoteMedia)
	assert.NotNil(t, snap.StartedAt)
	assert.Equal(t, []entities.NotificationKind{
		entities.NotificationCallConnecting,
		entities.NotificationCallConnected,
	}, f.sink.kinds())
}

func TestController_MediaFailureReturnsToIdle(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)
	f.devices.deny(providers.ErrPermissionDenied)
	f.waitFor(t, entities.CallStateIdle)

	snap := f.controller.Snapshot()
	assert.False(t, snap.HasLocalMedia)
	assert.False(t, f.controller.Live())
	assert.Equal(t, []entities.NotificationKind{
		entities.NotificationCallConnecting,
		entities.NotificationMediaError,
	}, f.sink.kinds())

	t.Run("user can retry", func(t *testing.T) {
		_, err := f.controller.Start(context.Background(), drSarah)
		require.NoError(t, err)
		f.devices.grant()
		f.waitFor(t, entities.CallStateActive)
	})
}

func TestController_EndReleasesEveryTrackOnce(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)
	f.devices.grant()
	f.waitFor(t, entities.CallStateActive)

	snap := f.controller.End(context.Background())
	assert.Equal(t, entities.CallStateEnded, snap.State)
	assert.NotNil(t, snap.EndedAt)
	assert.False(t, snap.HasLocalMedia)
	assert.False(t, snap.HasRemoteMedia)

	snap = f.controller.End(context.Background())
	assert.Equal(t, entities.CallStateEnded, snap.State)

	assert.Equal(t, []int{1, 1}, stopCounts(f.devices.stream(0)))
	assert.Equal(t, []int{1, 1}, stopCounts(f.answerer.stream(0)))
	assert.Equal(t, []entities.NotificationKind{
		entities.NotificationCallConnecting,
		entities.NotificationCallConnected,
		entities.NotificationCallEnded,
	}, f.sink.kinds())
}

func TestController_Toggles(t *testing.T) {
	f := newFixture(t)

	_, ok := f.controller.ToggleMute()
	assert.False(t, ok, "toggle refused while idle")

	_, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)

	// Requested before the stream exists, applied once it is bound.
	snap, ok := f.controller.ToggleVideo()
	require.True(t, ok)
	assert.True(t, snap.VideoDisabled)

	f.devices.grant()
	f.waitFor(t, entities.CallStateActive)

	tracks := f.devices.stream(0).LocalTracks()
	assert.True(t, tracks[0].Enabled())
	assert.False(t, tracks[1].Enabled())

	snap, _ = f.controller.ToggleMute()
	assert.True(t, snap.Muted)
	assert.False(t, tracks[0].Enabled())

	snap, _ = f.controller.ToggleMute()
	assert.False(t, snap.Muted)
	assert.True(t, tracks[0].Enabled())
	assert.Equal(t, entities.CallStateActive, snap.State)
}

func TestController_EndWhileAcquiring(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)

	snap := f.controller.End(context.Background())
	assert.Equal(t, entities.CallStateEnded, snap.State)
	assert.Equal(t, []entities.NotificationKind{
		entities.NotificationCallConnecting,
		entities.NotificationCallEnded,
	}, f.sink.kinds())
}

func TestController_LateStreamIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.devices.ignoreCancel = true

	_, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	snap := f.controller.End(ctx)
	assert.Equal(t, entities.CallStateEnded, snap.State)

	f.devices.grant()
	require.Eventually(t, func() bool {
		return f.devices.streamCount() == 1 && stopCounts(f.devices.stream(0))[0] == 1
	}, eventually, time.Millisecond)

	assert.Equal(t, []int{1, 1}, stopCounts(f.devices.stream(0)))
	assert.Equal(t, entities.CallStateEnded, f.controller.Snapshot().State)
	assert.False(t, f.controller.Snapshot().HasLocalMedia)
}

func TestController_StartSupersedesLiveSession(t *testing.T) {
	f := newFixture(t)

	first, err := f.controller.Start(context.Background(), drSarah)
	require.NoError(t, err)
	f.devices.grant()
	f.waitFor(t, entities.CallStateActive)

	drEmily := &entities.Provider{ID: "3", Name: "Dr. Emily Rodriguez", Availability: entities.AvailabilityOnline}
	second, err := f.controller.Start(context.Background(), drEmily)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, "3", second.ProviderID)
	assert.Equal(t, entities.CallStateConnecting, second.State)
	assert.Equal(t, []int{1, 1}, stopCounts(f.devices.stream(0)))
	assert.Equal(t, []entities.NotificationKind{
		entities.NotificationCallConnecting,
		entities.NotificationCallConnected,
		entities.NotificationCallEnded,
		entities.NotificationCallConnecting,
	}, f.sink.kinds())
}

func TestController_ClosedRefusesStart(t *testing.T) {
	f := newFixture(t)
	f.controller.Close(context.Background())

	_, err := f.controller.Start(context.Background(), drSarah)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestScope(t *testing.T) {
	t.Run("cancelled context ends the call", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		scope := Open(ctx, f.controller)

		_, err := scope.Controller().Start(context.Background(), drSarah)
		require.NoError(t, err)
		f.devices.grant()
		f.waitFor(t, entities.CallStateActive)

		cancel()
		select {
		case <-scope.Done():
		case <-time.After(eventually):
			t.Fatal("scope did not close")
		}

		assert.Equal(t, entities.CallStateEnded, f.controller.Snapshot().State)
		assert.Equal(t, []int{1, 1}, stopCounts(f.devices.stream(0)))
		assert.Equal(t, []int{1, 1}, stopCounts(f.answerer.stream(0)))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		f := newFixture(t)
		scope := Open(context.Background(), f.controller)

		_, err := scope.Controller().Start(context.Background(), drSarah)
		require.NoError(t, err)

		scope.Close()
		scope.Close()

		assert.Equal(t, entities.CallStateEnded, f.controller.Snapshot().State)
		assert.Equal(t, []entities.NotificationKind{
			entities.NotificationCallConnecting,
			entities.NotificationCallEnded,
		}, f.sink.kinds())
	})
}

// grantingDevices grants every capture request at once and keeps the streams
type grantingDevices struct {
	mu      sync.Mutex
	streams []*media.Stream
}

func (d *grantingDevices) GetUserMedia(ctx context.Context, c providers.MediaConstraints) (providers.MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream := media.NewStream(providers.TrackAudio, providers.TrackVideo)
	d.mu.Lock()
	d.streams = append(d.streams, stream)
	d.mu.Unlock()
	return stream, nil
}

func TestController_ConcurrentStartsStopEveryTrackOnce(t *testing.T) {
	devices := &grantingDevices{}
	answerer := &instantAnswerer{}
	c := NewController(Config{WorkspaceID: "ws-1", Devices: devices, Answerer: answerer, Sink: &recordingSink{}})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Start(ctx, drSarah)
			c.End(ctx)
			c.ToggleMute()
		}()
	}
	wg.Wait()

	closeCtx, cancel := context.WithTimeout(ctx, eventually)
	defer cancel()
	c.Close(closeCtx)

	assert.False(t, c.Live())
	devices.mu.Lock()
	defer devices.mu.Unlock()
	require.NotEmpty(t, devices.streams)
	for i, s := range devices.streams {
		for _, n := range stopCounts(s) {
			assert.Equal(t, 1, n, "local stream %d", i)
		}
	}
	answerer.mu.Lock()
	defer answerer.mu.Unlock()
	for i, s := range answerer.streams {
		for _, n := range stopCounts(s) {
			assert.Equal(t, 1, n, "remote stream %d", i)
		}
	}
}
