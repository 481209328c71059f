package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// GateConfig wires a Gate
type GateConfig struct {
	WorkspaceID string
	Sink        providers.NotificationSink
	// Now defaults to time.Now. Calendar days are taken in Location, which
	// defaults to time.Local.
	Now      func() time.Time
	Location *time.Location
}

// Gate validates and commits a single pending appointment request. Invalid
// input is refused without changing state and without an error; callers
// only learn whether it was accepted.
type Gate struct {
	cfg GateConfig

	mu       sync.Mutex
	provider *entities.Provider
	request  *entities.AppointmentRequest
}

// NewGate creates an empty gate
func NewGate(cfg GateConfig) *Gate {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Gate{cfg: cfg}
}

// Open starts a request for p, replacing any pending one. The date defaults
// to today.
func (g *Gate) Open(p *entities.Provider) entities.AppointmentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := startOfDay(g.cfg.Now(), g.cfg.Location)
	g.provider = p
	g.request = &entities.AppointmentRequest{
		ID:           uuid.New().String(),
		ProviderID:   p.ID,
		ProviderName: p.Name,
		Date:         &today,
	}
	return *g.request
}

// Pending returns a copy of the pending request, if any
func (g *Gate) Pending() (entities.AppointmentRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.request == nil {
		return entities.AppointmentRequest{}, false
	}
	return *g.request, true
}

// Active reports whether a request is pending
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.request != nil
}

// SelectDate sets the date of the pending request. Dates before yesterday at
// the current time of day are refused, which lets today through but not
// earlier days.
func (g *Gate) SelectDate(date time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.request == nil {
		return false
	}
	day := startOfDay(date, g.cfg.Location)
	if day.Before(g.cfg.Now().AddDate(0, 0, -1)) {
		return false
	}
	g.request.Date = &day
	return true
}

// SelectTimeSlot sets the slot of the pending request. Only entities.TimeSlots
// are accepted.
func (g *Gate) SelectTimeSlot(slot string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.request == nil || !entities.IsTimeSlot(slot) {
		return false
	}
	g.request.TimeSlot = slot
	return true
}

// Confirm commits the pending request when provider, date and slot are set.
// On success it notifies, clears the request and deselects the provider. An
// incomplete request is left untouched and nothing is emitted.
func (g *Gate) Confirm(ctx context.Context) (*entities.Appointment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.provider == nil || !g.request.Complete() {
		return nil, false
	}

	appt := &entities.Appointment{
		ID:           g.request.ID,
		ProviderID:   g.provider.ID,
		ProviderName: g.provider.Name,
		Date:         *g.request.Date,
		TimeSlot:     g.request.TimeSlot,
		ConfirmedAt:  g.cfg.Now(),
	}

	if g.cfg.Sink != nil {
		g.cfg.Sink.Notify(ctx, entities.Notification{
			ID:          uuid.New().String(),
			WorkspaceID: g.cfg.WorkspaceID,
			Kind:        entities.NotificationAppointmentConfirmed,
			Title:       "Appointment scheduled",
			Description: fmt.Sprintf("You have an appointment with %s on %s at %s",
				appt.ProviderName, appt.FormattedDate(), appt.TimeSlot),
			Variant:   entities.VariantDefault,
			CreatedAt: appt.ConfirmedAt,
		})
	}

	log.Info().
		Str("workspace_id", g.cfg.WorkspaceID).
		Str("provider_id", appt.ProviderID).
		Str("date", appt.Date.Format(time.DateOnly)).
		Str("slot", appt.TimeSlot).
		Msg("Appointment confirmed")

	g.provider = nil
	g.request = nil
	return appt, true
}

// Cancel drops the pending request and deselects the provider
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.provider = nil
	g.request = nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
