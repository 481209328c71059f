package entities

import "time"

// CallState is the lifecycle stage of a video consultation
type CallState string

const (
	CallStateIdle       CallState = "idle"
	CallStateConnecting CallState = "connecting"
	CallStateActive     CallState = "active"
	CallStateEnded      CallState = "ended"
)

// CallSnapshot is a read-only view of the current call session
type CallSnapshot struct {
	SessionID      string     `json:"session_id,omitempty"`
	ProviderID     string     `json:"provider_id,omitempty"`
	ProviderName   string     `json:"provider_name,omitempty"`
	State          CallState  `json:"state"`
	Muted          bool       `json:"muted"`
	VideoDisabled  bool       `json:"video_disabled"`
	HasLocalMedia  bool       `json:"has_local_media"`
	HasRemoteMedia bool       `json:"has_remote_media"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}
