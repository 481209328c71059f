package entities

import "strings"

// Availability is the live status reported by the directory for a provider
type Availability string

const (
	AvailabilityOnline  Availability = "Online"
	AvailabilityBusy    Availability = "Busy"
	AvailabilityOffline Availability = "Offline"
)

// Valid reports whether a is one of the known availability values
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityOnline, AvailabilityBusy, AvailabilityOffline:
		return true
	}
	return false
}

// Provider represents a care provider listed by the directory.
// Fee and rating are informational; availability alone gates calls.
type Provider struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Specialty       string       `json:"specialty" db:"specialty"`
	Rating          float64      `json:"rating" db:"rating"`
	Reviews         int          `json:"reviews" db:"reviews"`
	Location        string       `json:"location" db:"location"`
	Availability    Availability `json:"status" db:"availability"`
	NextAvailable   string       `json:"next_available" db:"next_available"`
	ConsultationFee float64      `json:"consultation_fee" db:"consultation_fee"`
	Experience      string       `json:"experience" db:"experience"`
}

// CanCall reports whether a video consultation may be started with p
func (p *Provider) CanCall() bool {
	return p != nil && p.Availability == AvailabilityOnline
}

// Initials returns the avatar fallback text, e.g. "DSJ" for "Dr. Sarah Johnson"
func (p *Provider) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(p.Name) {
		b.WriteByte(part[0])
	}
	return b.String()
}

// ProviderFilter narrows a directory listing
type ProviderFilter struct {
	Query     string
	Specialty string
}

// Matches reports whether p satisfies the filter. Matching is case-insensitive;
// Query is checked against name, specialty and location.
func (f ProviderFilter) Matches(p *Provider) bool {
	if f.Specialty != "" && !strings.EqualFold(f.Specialty, p.Specialty) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Specialty, p.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
