package entities

import (
	"time"
)

// TimeSlots is the fixed set of daily appointment slots, in display order
var TimeSlots = []string{
	"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM",
}

// IsTimeSlot reports whether slot belongs to TimeSlots
func IsTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// AppointmentDateLayout is the long date format used in confirmations
const AppointmentDateLayout = "January 2, 2006"

// AppointmentRequest is the pending, not yet confirmed booking
type AppointmentRequest struct {
	ID           string     `json:"id"`
	ProviderID   string     `json:"provider_id"`
	ProviderName string     `json:"provider_name"`
	Date         *time.Time `json:"date,omitempty"`
	TimeSlot     string     `json:"time_slot,omitempty"`
}

// Complete reports whether provider, date and slot are all set
func (r *AppointmentRequest) Complete() bool {
	return r != nil && r.ProviderID != "" && r.Date != nil && r.TimeSlot != ""
}

// Appointment is a confirmed booking. It lives only as long as the caller keeps it.
type Appointment struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Date         time.Time `json:"date"`
	TimeSlot     string    `json:"time_slot"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
}

// FormattedDate renders the date as in "March 10, 2025"
func (a *Appointment) FormattedDate() string {
	return a.Date.Format(AppointmentDateLayout)
}
