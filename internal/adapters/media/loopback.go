package media

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// Track is an in-process media track. It records how often it was stopped.
type Track struct {
	id   string
	kind providers.TrackKind

	mu      sync.Mutex
	enabled bool
	stops   int
}

// NewTrack creates an enabled track of the given kind
func NewTrack(kind providers.TrackKind) *Track {
	return &Track{id: uuid.New().String(), kind: kind, enabled: true}
}

func (t *Track) ID() string                { return t.id }
func (t *Track) Kind() providers.TrackKind { return t.kind }

func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
}

// StopCount returns how many times Stop was called
func (t *Track) StopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

// Stream is an in-process stream made of Tracks
type Stream struct {
	id     string
	tracks []*Track
}

// NewStream creates a stream with one track per kind
func NewStream(kinds ...providers.TrackKind) *Stream {
	s := &Stream{id: uuid.New().String()}
	for _, kind := range kinds {
		s.tracks = append(s.tracks, NewTrack(kind))
	}
	return s
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []providers.MediaTrack {
	out := make([]providers.MediaTrack, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

// LocalTracks returns the concrete tracks, for inspection
func (s *Stream) LocalTracks() []*Track {
	return s.tracks
}

// LoopbackDevices serves capture requests from memory. With Deny set every
// request fails with ErrPermissionDenied, which is how a refused browser
// prompt surfaces.
type LoopbackDevices struct {
	Deny bool
}

// GetUserMedia returns a stream holding one track per requested kind
func (d *LoopbackDevices) GetUserMedia(ctx context.Context, c providers.MediaConstraints) (providers.MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Deny {
		return nil, providers.ErrPermissionDenied
	}

	var kinds []providers.TrackKind
	if c.Audio {
		kinds = append(kinds, providers.TrackAudio)
	}
	if c.Video {
		kinds = append(kinds, providers.TrackVideo)
	}
	if len(kinds) == 0 {
		return nil, providers.ErrNoDevice
	}
	return NewStream(kinds...), nil
}

// DelayedAnswerer answers every call after a fixed delay with a locally
// sourced stream. It stands in for peer negotiation.
type DelayedAnswerer struct {
	Delay time.Duration
}

// AwaitAnswer blocks for Delay or until ctx is done
func (a *DelayedAnswerer) AwaitAnswer(ctx context.Context, sessionID, providerID string) (providers.MediaStream, error) {
	timer := time.NewTimer(a.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return NewStream(providers.TrackAudio, providers.TrackVideo), nil
	}
}
