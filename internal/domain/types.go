package domain

import "time"

// LiveStatus is the outcome of one liveness probe.
type LiveStatus string

const (
	LiveStatusUnknown LiveStatus = "unknown"
	LiveStatusLive    LiveStatus = "live"
	LiveStatusOffline LiveStatus = "offline"
)

// Label returns the upper-case form used in terminal notifications.
func (s LiveStatus) Label() string {
	switch s {
	case LiveStatusLive:
		return "LIVE"
	case LiveStatusOffline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// Settings contains user-toggled state persisted in settings.json.
type Settings struct {
	RecordingEnabled bool `json:"recording_enabled"`
}

// RecordingFile describes one capture found in the recordings directory.
type RecordingFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Username  string    `json:"username"`
	StartedAt time.Time `json:"startedAt"`
	Size      int64     `json:"size"`
	MIME      string    `json:"mime,omitempty"`
}
