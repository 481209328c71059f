package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/healia/backend/internal/application/call"
	"github.com/zatekoja/healia/backend/internal/application/scheduling"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

// ErrWorkspaceClosed is returned by operations on a closed workspace
var ErrWorkspaceClosed = apperrors.NewNotFoundError("workspace is closed")

// Workspace is the consultation state of one connected client: a call
// controller, a scheduling gate, a chat transcript and a symptom assessment.
// Call and scheduling operations run one at a time. Chat and assessment
// requests guard themselves with a busy flag so that a slow backend never
// blocks ending a call.
type Workspace struct {
	ID                   string
	CreatedAt            time.Time
	TeardownOnDisconnect bool

	directory  *DirectoryService
	scope      *call.Scope
	calls      *call.Controller
	gate       *scheduling.Gate
	chat       *ChatService
	assessment *AssessmentService

	mu     sync.Mutex
	closed bool

	identityMu  sync.Mutex
	identity    *entities.Identity
	unsubscribe func()

	closeOnce sync.Once
}

// WorkspaceSnapshot is the full read model of a workspace
type WorkspaceSnapshot struct {
	ID         string                       `json:"id"`
	CreatedAt  time.Time                    `json:"created_at"`
	Identity   *entities.Identity           `json:"identity,omitempty"`
	Call       entities.CallSnapshot        `json:"call"`
	Schedule   *entities.AppointmentRequest `json:"schedule,omitempty"`
	Assessment entities.AssessmentState     `json:"assessment"`
	ChatBusy   bool                         `json:"chat_busy"`
}

// StartCall starts a video consultation with providerID. Only providers that
// are online may be called. A pending appointment request is discarded first.
func (w *Workspace) StartCall(ctx context.Context, providerID string) (entities.CallSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.CallSnapshot{}, ErrWorkspaceClosed
	}

	p, err := w.directory.Get(ctx, providerID)
	if err != nil {
		return w.calls.Snapshot(), err
	}
	if !p.CanCall() {
		return w.calls.Snapshot(), apperrors.NewConflictError(p.Name + " is not available for a video call")
	}

	if w.gate.Active() {
		w.gate.Cancel()
	}
	return w.calls.Start(ctx, p)
}

// EndCall ends the current call, if any
func (w *Workspace) EndCall(ctx context.Context) (entities.CallSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.CallSnapshot{}, ErrWorkspaceClosed
	}
	return w.calls.End(ctx), nil
}

// ToggleMute flips the mute flag of a live call
func (w *Workspace) ToggleMute() (entities.CallSnapshot, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.CallSnapshot{}, false, ErrWorkspaceClosed
	}
	snap, ok := w.calls.ToggleMute()
	return snap, ok, nil
}

// ToggleVideo flips the video-disabled flag of a live call
func (w *Workspace) ToggleVideo() (entities.CallSnapshot, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.CallSnapshot{}, false, ErrWorkspaceClosed
	}
	snap, ok := w.calls.ToggleVideo()
	return snap, ok, nil
}

// Call returns the current call session
func (w *Workspace) Call() entities.CallSnapshot {
	return w.calls.Snapshot()
}

// OpenSchedule starts an appointment request with providerID. It is refused
// while a call is connecting or active.
func (w *Workspace) OpenSchedule(ctx context.Context, providerID string) (entities.AppointmentRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.AppointmentRequest{}, ErrWorkspaceClosed
	}
	if w.calls.Live() {
		return entities.AppointmentRequest{}, apperrors.NewConflictError("cannot schedule while a call is in progress")
	}

	p, err := w.directory.Get(ctx, providerID)
	if err != nil {
		return entities.AppointmentRequest{}, err
	}
	return w.gate.Open(p), nil
}

// SelectDate sets the appointment date. The bool reports acceptance.
func (w *Workspace) SelectDate(date time.Time) (entities.AppointmentRequest, bool, error) {
	return w.scheduleOp(func() bool { return w.gate.SelectDate(date) })
}

// SelectTimeSlot sets the appointment slot. The bool reports acceptance.
func (w *Workspace) SelectTimeSlot(slot string) (entities.AppointmentRequest, bool, error) {
	return w.scheduleOp(func() bool { return w.gate.SelectTimeSlot(slot) })
}

func (w *Workspace) scheduleOp(op func() bool) (entities.AppointmentRequest, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return entities.AppointmentRequest{}, false, ErrWorkspaceClosed
	}
	ok := op()
	req, _ := w.gate.Pending()
	return req, ok, nil
}

// ConfirmSchedule commits the pending request when it is complete
func (w *Workspace) ConfirmSchedule(ctx context.Context) (*entities.Appointment, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, false, ErrWorkspaceClosed
	}
	appt, ok := w.gate.Confirm(ctx)
	return appt, ok, nil
}

// CancelSchedule drops the pending request
func (w *Workspace) CancelSchedule() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}
	w.gate.Cancel()
	return nil
}

// Schedule returns the pending appointment request, if any
func (w *Workspace) Schedule() (entities.AppointmentRequest, bool) {
	return w.gate.Pending()
}

// SendChat relays a chat message
func (w *Workspace) SendChat(ctx context.Context, text string) ([]entities.ChatMessage, error) {
	if w.isClosed() {
		return nil, ErrWorkspaceClosed
	}
	return w.chat.Send(ctx, text)
}

// Transcript returns the chat history
func (w *Workspace) Transcript() []entities.ChatMessage {
	return w.chat.Transcript()
}

// SubmitAssessment sends a symptom assessment for analysis
func (w *Workspace) SubmitAssessment(ctx context.Context, req entities.SymptomAssessmentRequest) (entities.AssessmentState, error) {
	if w.isClosed() {
		return entities.AssessmentState{}, ErrWorkspaceClosed
	}
	return w.assessment.Submit(ctx, req)
}

// Assessment returns the latest assessment
func (w *Workspace) Assessment() entities.AssessmentState {
	return w.assessment.State()
}

// Identity returns the signed-in identity as last seen by this workspace
func (w *Workspace) Identity() *entities.Identity {
	w.identityMu.Lock()
	defer w.identityMu.Unlock()
	return w.identity
}

// Snapshot returns the whole workspace state
func (w *Workspace) Snapshot() WorkspaceSnapshot {
	snap := WorkspaceSnapshot{
		ID:         w.ID,
		CreatedAt:  w.CreatedAt,
		Identity:   w.Identity(),
		Call:       w.calls.Snapshot(),
		Assessment: w.assessment.State(),
		ChatBusy:   w.chat.Busy(),
	}
	if req, ok := w.gate.Pending(); ok {
		snap.Schedule = &req
	}
	return snap
}

// Closed reports whether Close has been called
func (w *Workspace) Closed() bool {
	return w.isClosed()
}

// Close ends any live call, drops the pending appointment request and stops
// listening for identity changes. Closing twice is a no-op.
func (w *Workspace) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.closed = true

		w.identityMu.Lock()
		unsubscribe := w.unsubscribe
		w.unsubscribe = nil
		w.identityMu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}

		w.scope.Close()
		w.gate.Cancel()
	})
}

func (w *Workspace) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workspace) setIdentity(identity *entities.Identity) {
	w.identityMu.Lock()
	defer w.identityMu.Unlock()
	w.identity = identity
}
