package providers

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned when the user refuses camera or microphone access
	ErrPermissionDenied = errors.New("media permission denied")
	// ErrNoDevice is returned when no capture device is available
	ErrNoDevice = errors.New("no media device available")
)

// TrackKind distinguishes audio from video tracks
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// MediaTrack is a single captured audio or video track
type MediaTrack interface {
	ID() string
	Kind() TrackKind
	SetEnabled(enabled bool)
	Enabled() bool
	// Stop ends capture. Stopping twice is harmless.
	Stop()
}

// MediaStream groups the tracks returned by one capture request
type MediaStream interface {
	ID() string
	Tracks() []MediaTrack
}

// MediaConstraints selects what to capture
type MediaConstraints struct {
	Audio bool
	Video bool
}

// MediaDevices acquires local capture streams
type MediaDevices interface {
	// GetUserMedia blocks until a stream is available, permission is refused
	// or ctx is done.
	GetUserMedia(ctx context.Context, c MediaConstraints) (MediaStream, error)
}

// PeerAnswerer waits for the remote party to answer a call and returns the
// remote stream
type PeerAnswerer interface {
	AwaitAnswer(ctx context.Context, sessionID, providerID string) (MediaStream, error)
}
