package call

import (
	"sync"

	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// MediaHandle owns the local and remote streams of one session. Every track
// it is given is stopped exactly once; releasing an empty or already
// released handle does nothing.
type MediaHandle struct {
	mu       sync.Mutex
	local    providers.MediaStream
	remote   providers.MediaStream
	enabled  map[providers.TrackKind]bool
	released bool
}

// NewMediaHandle returns an empty handle with every track kind enabled
func NewMediaHandle() *MediaHandle {
	return &MediaHandle{
		enabled: map[providers.TrackKind]bool{
			providers.TrackAudio: true,
			providers.TrackVideo: true,
		},
	}
}

// Bind stores stream in the given slot. Local tracks take the currently
// requested enabled state. A stream bound after release is stopped at once.
func (h *MediaHandle) Bind(role MediaRole, stream providers.MediaStream) {
	if stream == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		stopStream(stream)
		return
	}

	switch role {
	case RoleLocal:
		if h.local != nil && h.local != stream {
			stopStream(h.local)
		}
		h.local = stream
		for _, track := range stream.Tracks() {
			track.SetEnabled(h.enabledFor(track.Kind()))
		}
	case RoleRemote:
		if h.remote != nil && h.remote != stream {
			stopStream(h.remote)
		}
		h.remote = stream
	}
}

// SetEnabled records the wanted state for kind and applies it to the local
// stream, if one is bound
func (h *MediaHandle) SetEnabled(kind providers.TrackKind, enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enabled[kind] = enabled
	if h.local == nil {
		return
	}
	for _, track := range h.local.Tracks() {
		if track.Kind() == kind {
			track.SetEnabled(enabled)
		}
	}
}

// Release stops every held track and returns how many were stopped
func (h *MediaHandle) Release() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.released = true
	stopped := 0
	for _, stream := range []providers.MediaStream{h.local, h.remote} {
		if stream != nil {
			stopped += stopStream(stream)
		}
	}
	h.local = nil
	h.remote = nil
	return stopped
}

// HasLocal reports whether a local stream is held
func (h *MediaHandle) HasLocal() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.local != nil
}

// HasRemote reports whether a remote stream is held
func (h *MediaHandle) HasRemote() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remote != nil
}

func (h *MediaHandle) enabledFor(kind providers.TrackKind) bool {
	enabled, ok := h.enabled[kind]
	return !ok || enabled
}

func stopStream(stream providers.MediaStream) int {
	tracks := stream.Tracks()
	for _, track := range tracks {
		track.Stop()
	}
	return len(tracks)
}
