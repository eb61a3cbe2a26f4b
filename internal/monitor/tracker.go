package monitor

import (
	"sync"
	"time"

	"live-watcher/internal/capture"
	"live-watcher/internal/domain"
)

// Observation is the outcome of feeding one probe result to a Tracker.
type Observation struct {
	Status   domain.LiveStatus
	Previous domain.LiveStatus
	// Changed is true for a LIVE/OFFLINE result that differs from Previous.
	Changed bool
}

// WentLive reports a fresh transition into LIVE.
func (o Observation) WentLive() bool {
	return o.Changed && o.Status == domain.LiveStatusLive
}

// TrackerState is a read-only snapshot for status displays.
type TrackerState struct {
	Username    string
	Previous    domain.LiveStatus
	LastChecked time.Time
	SessionID   string
	OutputPath  string
}

// Tracker holds the per-username monitor state: the last definitive status
// and the session this loop started.
type Tracker struct {
	mu          sync.RWMutex
	username    string
	previous    domain.LiveStatus
	lastChecked time.Time
	session     *capture.Session
	noticeShown bool
}

// NewTracker creates a tracker with an UNKNOWN previous status.
func NewTracker(username string) *Tracker {
	return &Tracker{
		username: username,
		previous: domain.LiveStatusUnknown,
	}
}

// Observe records a probe result. UNKNOWN never replaces the previous
// status, so a flaky probe cannot produce a spurious transition.
func (t *Tracker) Observe(status domain.LiveStatus, at time.Time) Observation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastChecked = at
	obs := Observation{Status: status, Previous: t.previous}
	if status == domain.LiveStatusUnknown {
		return obs
	}
	obs.Changed = status != t.previous
	t.previous = status
	return obs
}

// Previous returns the last definitive status.
func (t *Tracker) Previous() domain.LiveStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.previous
}

// Session returns the tracked session, or nil.
func (t *Tracker) Session() *capture.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

// SetSession replaces the tracked session.
func (t *Tracker) SetSession(session *capture.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = session
}

// ClearSession drops the tracked session and returns it.
func (t *Tracker) ClearSession() *capture.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	session := t.session
	t.session = nil
	return session
}

// markNotice reports whether the recording-disabled notice still needs to
// be shown, and marks it shown.
func (t *Tracker) markNotice() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.noticeShown {
		return false
	}
	t.noticeShown = true
	return true
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() TrackerState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state := TrackerState{
		Username:    t.username,
		Previous:    t.previous,
		LastChecked: t.lastChecked,
	}
	if t.session != nil {
		state.SessionID = t.session.ID
		state.OutputPath = t.session.OutputPath
	}
	return state
}
