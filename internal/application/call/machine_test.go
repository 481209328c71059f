package call

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healia/backend/internal/adapters/media"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

var startedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func connecting(t *testing.T) Session {
	t.Helper()
	s, _ := Transition(Session{}, StartRequested{SessionID: "s1", ProviderID: "p1", ProviderName: "Dr. Sarah Johnson", At: startedAt})
	require.Equal(t, entities.CallStateConnecting, s.State)
	return s
}

func active(t *testing.T) Session {
	t.Helper()
	s, _ := Transition(connecting(t), MediaAcquired{SessionID: "s1", Stream: media.NewStream(providers.TrackAudio, providers.TrackVideo)})
	s, _ = Transition(s, RemoteAnswered{SessionID: "s1", Stream: media.NewStream(providers.TrackAudio, providers.TrackVideo)})
	require.Equal(t, entities.CallStateActive, s.State)
	return s
}

func notices(effects []Effect) []Notify {
	var out []Notify
	for _, e := range effects {
		if n, ok := e.(Notify); ok {
			out = append(out, n)
		}
	}
	return out
}

func TestTransition_Start(t *testing.T) {
	t.Run("idle to connecting", func(t *testing.T) {
		s, effects := Transition(Session{}, StartRequested{SessionID: "s1", ProviderID: "p1", ProviderName: "Dr. Sarah Johnson", At: startedAt})

		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.True(t, s.Acquiring)
		assert.Equal(t, startedAt, s.StartedAt)
		require.Len(t, effects, 2)
		assert.Equal(t, Notify{
			Kind:        entities.NotificationCallConnecting,
			Title:       "Connecting to doctor",
			Description: "Starting video call with Dr. Sarah Johnson",
			Variant:     entities.VariantDefault,
		}, effects[0])
		assert.Equal(t, AcquireMedia{SessionID: "s1", Constraints: providers.MediaConstraints{Audio: true, Video: true}}, effects[1])
	})

	t.Run("ended session is replaced by a fresh one", func(t *testing.T) {
		ended, _ := Transition(active(t), EndRequested{At: startedAt})
		ended.Muted = true

		s, effects := Transition(ended, StartRequested{SessionID: "s2", ProviderID: "p3", ProviderName: "Dr. Emily Rodriguez"})
		assert.Equal(t, "s2", s.ID)
		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.False(t, s.Muted)
		assert.False(t, s.VideoDisabled)
		assert.Len(t, effects, 2)
	})

	t.Run("ignored while live", func(t *testing.T) {
		s := active(t)
		next, effects := Transition(s, StartRequested{SessionID: "s2"})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})
}

func TestTransition_MediaAcquisition(t *testing.T) {
	t.Run("acquired binds stream and waits for answer", func(t *testing.T) {
		stream := media.NewStream(providers.TrackAudio, providers.TrackVideo)
		s, effects := Transition(connecting(t), MediaAcquired{SessionID: "s1", Stream: stream})

		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.False(t, s.Acquiring)
		assert.True(t, s.HasLocal)
		assert.Equal(t, []Effect{
			BindMedia{Role: RoleLocal, Stream: stream},
			AwaitAnswer{SessionID: "s1", ProviderID: "p1"},
		}, effects)
	})

	t.Run("failure returns to idle with one error notice", func(t *testing.T) {
		s, effects := Transition(connecting(t), MediaFailed{SessionID: "s1", Err: providers.ErrPermissionDenied})

		assert.Equal(t, entities.CallStateIdle, s.State)
		assert.False(t, s.Live())
		assert.Equal(t, ReleaseMedia{}, effects[0])
		n := notices(effects)
		require.Len(t, n, 1)
		assert.Equal(t, "Could not access camera/microphone", n[0].Description)
		assert.Equal(t, entities.VariantDestructive, n[0].Variant)
	})

	t.Run("aborted failure waits for the end request", func(t *testing.T) {
		s, effects := Transition(connecting(t), MediaFailed{SessionID: "s1", Err: errors.New("canceled"), Aborted: true})
		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.False(t, s.Acquiring)
		assert.Empty(t, effects)

		s, effects = Transition(s, EndRequested{SessionID: "s1"})
		assert.Equal(t, entities.CallStateEnded, s.State)
		assert.Len(t, notices(effects), 1)
	})

	t.Run("stream for another session is discarded", func(t *testing.T) {
		stream := media.NewStream(providers.TrackAudio)
		s := connecting(t)
		next, effects := Transition(s, MediaAcquired{SessionID: "old", Stream: stream})
		assert.Equal(t, s, next)
		assert.Equal(t, []Effect{DiscardStream{Stream: stream}}, effects)
	})

	t.Run("stream after end is discarded", func(t *testing.T) {
		stream := media.NewStream(providers.TrackAudio)
		ended, _ := Transition(connecting(t), EndRequested{})
		_, effects := Transition(ended, MediaAcquired{SessionID: "s1", Stream: stream})
		assert.Equal(t, []Effect{DiscardStream{Stream: stream}}, effects)
	})
}

func TestTransition_Answer(t *testing.T) {
	t.Run("answer before local media is refused", func(t *testing.T) {
		remote := media.NewStream(providers.TrackAudio)
		s, effects := Transition(connecting(t), RemoteAnswered{SessionID: "s1", Stream: remote})
		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.Equal(t, []Effect{DiscardStream{Stream: remote}}, effects)
	})

	t.Run("answer activates the call", func(t *testing.T) {
		s, _ := Transition(connecting(t), MediaAcquired{SessionID: "s1", Stream: media.NewStream(providers.TrackAudio)})
		remote := media.NewStream(providers.TrackAudio)
		s, effects := Transition(s, RemoteAnswered{SessionID: "s1", Stream: remote})

		assert.Equal(t, entities.CallStateActive, s.State)
		assert.True(t, s.HasRemote)
		assert.Equal(t, BindMedia{Role: RoleRemote, Stream: remote}, effects[0])
		assert.Equal(t, "You're now in consultation with Dr. Sarah Johnson", notices(effects)[0].Description)
	})

	t.Run("answer failure releases and returns to idle", func(t *testing.T) {
		s, _ := Transition(connecting(t), MediaAcquired{SessionID: "s1", Stream: media.NewStream(providers.TrackAudio)})
		s, effects := Transition(s, AnswerFailed{SessionID: "s1", Err: errors.New("timeout")})

		assert.Equal(t, entities.CallStateIdle, s.State)
		assert.Equal(t, ReleaseMedia{}, effects[0])
		assert.Equal(t, entities.NotificationCallFailed, notices(effects)[0].Kind)
	})
}

func TestTransition_End(t *testing.T) {
	endedAt := startedAt.Add(10 * time.Minute)

	for name, from := range map[string]func(*testing.T) Session{"connecting": connecting, "active": active} {
		t.Run("from "+name, func(t *testing.T) {
			s, effects := Transition(from(t), EndRequested{At: endedAt})

			assert.Equal(t, entities.CallStateEnded, s.State)
			assert.False(t, s.HasLocal)
			assert.False(t, s.HasRemote)
			assert.Equal(t, endedAt, s.EndedAt)
			assert.Equal(t, ReleaseMedia{}, effects[0])
			assert.Equal(t, []Notify{{
				Kind:        entities.NotificationCallEnded,
				Title:       "Call ended",
				Description: "Your consultation has ended",
				Variant:     entities.VariantDefault,
			}}, notices(effects))
		})
	}

	t.Run("ending twice is a no-op", func(t *testing.T) {
		s, _ := Transition(active(t), EndRequested{})
		next, effects := Transition(s, EndRequested{})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("end for another session is ignored", func(t *testing.T) {
		s := active(t)
		next, effects := Transition(s, EndRequested{SessionID: "old"})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("idle ignores end", func(t *testing.T) {
		s, effects := Transition(Session{}, EndRequested{})
		assert.Equal(t, entities.CallStateIdle, s.state())
		assert.Empty(t, effects)
	})
}

func TestTransition_Toggles(t *testing.T) {
	t.Run("mute twice restores the flag", func(t *testing.T) {
		s := active(t)
		muted, effects := Transition(s, ToggleMute{})
		assert.True(t, muted.Muted)
		assert.Equal(t, []Effect{SetTrackEnabled{Kind: providers.TrackAudio, Enabled: false}}, effects)

		unmuted, effects := Transition(muted, ToggleMute{})
		assert.Equal(t, s, unmuted)
		assert.Equal(t, []Effect{SetTrackEnabled{Kind: providers.TrackAudio, Enabled: true}}, effects)
	})

	t.Run("video toggle while connecting", func(t *testing.T) {
		s, effects := Transition(connecting(t), ToggleVideo{})
		assert.True(t, s.VideoDisabled)
		assert.Equal(t, entities.CallStateConnecting, s.State)
		assert.Equal(t, []Effect{SetTrackEnabled{Kind: providers.TrackVideo, Enabled: false}}, effects)
	})

	t.Run("refused when not live", func(t *testing.T) {
		for _, ev := range []Event{ToggleMute{}, ToggleVideo{}} {
			s, effects := Transition(Session{}, ev)
			assert.False(t, s.Muted)
			assert.False(t, s.VideoDisabled)
			assert.Empty(t, effects)
		}
	})
}
