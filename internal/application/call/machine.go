package call

import (
	"fmt"
	"time"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// Session is the state of one call attempt. The zero value is an idle session.
type Session struct {
	ID            string
	ProviderID    string
	ProviderName  string
	State         entities.CallState
	Muted         bool
	VideoDisabled bool
	// Acquiring is true while the capture request for this session has not
	// reported back.
	Acquiring bool
	HasLocal  bool
	HasRemote bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Live reports whether the session holds, or is about to hold, media
func (s Session) Live() bool {
	return s.State == entities.CallStateConnecting || s.State == entities.CallStateActive
}

func (s Session) state() entities.CallState {
	if s.State == "" {
		return entities.CallStateIdle
	}
	return s.State
}

// Event is an input to Transition
type Event interface{ isEvent() }

type (
	// StartRequested asks for a new call with a provider
	StartRequested struct {
		SessionID    string
		ProviderID   string
		ProviderName string
		At           time.Time
	}
	// MediaAcquired reports a successful capture request
	MediaAcquired struct {
		SessionID string
		Stream    providers.MediaStream
	}
	// MediaFailed reports a failed capture request. Aborted is set when the
	// request was cancelled because the call was being ended.
	MediaFailed struct {
		SessionID string
		Err       error
		Aborted   bool
	}
	// RemoteAnswered reports that the remote party picked up
	RemoteAnswered struct {
		SessionID string
		Stream    providers.MediaStream
	}
	// AnswerFailed reports that the remote party could not be reached
	AnswerFailed struct {
		SessionID string
		Err       error
	}
	// EndRequested ends the call. An empty SessionID targets the current session.
	EndRequested struct {
		SessionID string
		At        time.Time
	}
	ToggleMute  struct{}
	ToggleVideo struct{}
)

func (StartRequested) isEvent() {}
func (MediaAcquired) isEvent()  {}
func (MediaFailed) isEvent()    {}
func (RemoteAnswered) isEvent() {}
func (AnswerFailed) isEvent()   {}
func (EndRequested) isEvent()   {}
func (ToggleMute) isEvent()     {}
func (ToggleVideo) isEvent()    {}

// Effect is a side effect requested by Transition. The controller executes
// effects in order.
type Effect interface{ isEffect() }

// MediaRole says which handle slot a stream is bound to
type MediaRole int

const (
	RoleLocal MediaRole = iota
	RoleRemote
)

type (
	// AcquireMedia starts a single combined capture request
	AcquireMedia struct {
		SessionID   string
		Constraints providers.MediaConstraints
	}
	// BindMedia hands a stream to the media handle
	BindMedia struct {
		Role   MediaRole
		Stream providers.MediaStream
	}
	// AwaitAnswer starts waiting for the remote party
	AwaitAnswer struct {
		SessionID  string
		ProviderID string
	}
	// ReleaseMedia stops every track on every held stream
	ReleaseMedia struct{}
	// SetTrackEnabled enables or disables local tracks of one kind
	SetTrackEnabled struct {
		Kind    providers.TrackKind
		Enabled bool
	}
	// Notify emits a user-visible notification
	Notify struct {
		Kind        entities.NotificationKind
		Title       string
		Description string
		Variant     entities.NotificationVariant
	}
	// DiscardStream stops a stream that arrived for a session that no longer
	// wants it
	DiscardStream struct {
		Stream providers.MediaStream
	}
)

func (AcquireMedia) isEffect()    {}
func (BindMedia) isEffect()       {}
func (AwaitAnswer) isEffect()     {}
func (ReleaseMedia) isEffect()    {}
func (SetTrackEnabled) isEffect() {}
func (Notify) isEffect()          {}
func (DiscardStream) isEffect()   {}

// Transition computes the next session and the effects to run. Events that
// are not valid in the current state leave the session unchanged; the only
// effect they may produce is discarding a stream they carry.
func Transition(s Session, ev Event) (Session, []Effect) {
	switch e := ev.(type) {
	case StartRequested:
		switch s.state() {
		case entities.CallStateIdle, entities.CallStateEnded:
			next := Session{
				ID:           e.SessionID,
				ProviderID:   e.ProviderID,
				ProviderName: e.ProviderName,
				State:        entities.CallStateConnecting,
				Acquiring:    true,
				StartedAt:    e.At,
			}
			return next, []Effect{
				connectingNotice(e.ProviderName),
				AcquireMedia{
					SessionID:   e.SessionID,
					Constraints: providers.MediaConstraints{Audio: true, Video: true},
				},
			}
		}
		return s, nil

	case MediaAcquired:
		if s.State != entities.CallStateConnecting || !s.Acquiring || e.SessionID != s.ID {
			return s, discard(e.Stream)
		}
		s.Acquiring = false
		s.HasLocal = true
		return s, []Effect{
			BindMedia{Role: RoleLocal, Stream: e.Stream},
			AwaitAnswer{SessionID: s.ID, ProviderID: s.ProviderID},
		}

	case MediaFailed:
		if s.State != entities.CallStateConnecting || !s.Acquiring || e.SessionID != s.ID {
			return s, nil
		}
		if e.Aborted {
			// The end request that caused the abort follows.
			s.Acquiring = false
			return s, nil
		}
		return Session{State: entities.CallStateIdle}, []Effect{
			ReleaseMedia{},
			mediaErrorNotice(),
		}

	case RemoteAnswered:
		if s.State != entities.CallStateConnecting || !s.HasLocal || e.SessionID != s.ID {
			return s, discard(e.Stream)
		}
		s.State = entities.CallStateActive
		s.HasRemote = true
		return s, []Effect{
			BindMedia{Role: RoleRemote, Stream: e.Stream},
			connectedNotice(s.ProviderName),
		}

	case AnswerFailed:
		if s.State != entities.CallStateConnecting || !s.HasLocal || e.SessionID != s.ID {
			return s, nil
		}
		return Session{State: entities.CallStateIdle}, []Effect{
			ReleaseMedia{},
			answerFailedNotice(s.ProviderName),
		}

	case EndRequested:
		if !s.Live() || (e.SessionID != "" && e.SessionID != s.ID) {
			return s, nil
		}
		s.State = entities.CallStateEnded
		s.Acquiring = false
		s.HasLocal = false
		s.HasRemote = false
		s.EndedAt = e.At
		return s, []Effect{
			ReleaseMedia{},
			Notify{
				Kind:        entities.NotificationCallEnded,
				Title:       "Call ended",
				Description: "Your consultation has ended",
				Variant:     entities.VariantDefault,
			},
		}

	case ToggleMute:
		if !s.Live() {
			return s, nil
		}
		s.Muted = !s.Muted
		return s, []Effect{SetTrackEnabled{Kind: providers.TrackAudio, Enabled: !s.Muted}}

	case ToggleVideo:
		if !s.Live() {
			return s, nil
		}
		s.VideoDisabled = !s.VideoDisabled
		return s, []Effect{SetTrackEnabled{Kind: providers.TrackVideo, Enabled: !s.VideoDisabled}}
	}

	return s, nil
}

func discard(stream providers.MediaStream) []Effect {
	if stream == nil {
		return nil
	}
	return []Effect{DiscardStream{Stream: stream}}
}

func connectingNotice(name string) Notify {
	return Notify{
		Kind:        entities.NotificationCallConnecting,
		Title:       "Connecting to doctor",
		Description: fmt.Sprintf("Starting video call with %s", name),
		Variant:     entities.VariantDefault,
	}
}

func connectedNotice(name string) Notify {
	return Notify{
		Kind:        entities.NotificationCallConnected,
		Title:       "Call connected",
		Description: fmt.Sprintf("You're now in consultation with %s", name),
		Variant:     entities.VariantDefault,
	}
}

func mediaErrorNotice() Notify {
	return Notify{
		Kind:        entities.NotificationMediaError,
		Title:       "Error",
		Description: "Could not access camera/microphone",
		Variant:     entities.VariantDestructive,
	}
}

func answerFailedNotice(name string) Notify {
	return Notify{
		Kind:        entities.NotificationCallFailed,
		Title:       "Error",
		Description: fmt.Sprintf("Could not reach %s", name),
		Variant:     entities.VariantDestructive,
	}
}
