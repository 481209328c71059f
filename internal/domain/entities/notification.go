package entities

import "time"

// NotificationKind identifies why a notification was raised
type NotificationKind string

const (
	NotificationCallConnecting       NotificationKind = "call_connecting"
	NotificationCallConnected        NotificationKind = "call_connected"
	NotificationCallEnded            NotificationKind = "call_ended"
	NotificationMediaError           NotificationKind = "media_error"
	NotificationCallFailed           NotificationKind = "call_failed"
	NotificationAppointmentConfirmed NotificationKind = "appointment_confirmed"
	NotificationAssessmentComplete   NotificationKind = "assessment_complete"
	NotificationAssessmentFailed     NotificationKind = "assessment_failed"
)

// NotificationVariant controls how the front end styles the toast
type NotificationVariant string

const (
	VariantDefault     NotificationVariant = "default"
	VariantDestructive NotificationVariant = "destructive"
)

// Notification is a short-lived, user-visible status message
type Notification struct {
	ID          string              `json:"id"`
	WorkspaceID string              `json:"workspace_id"`
	Kind        NotificationKind    `json:"kind"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
	CreatedAt   time.Time           `json:"created_at"`
}
