package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a session lifecycle transition
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventMFAChallenged  EventType = "mfa_challenged"
	EventLoginFailed    EventType = "login_failed"
	EventTokenRefreshed EventType = "token_refreshed"
	EventRefreshFailed  EventType = "refresh_failed"
	EventLoggedOut      EventType = "logged_out"
	EventSessionExpired EventType = "session_expired"
)

// Event is one audit record. It never carries tokens or passwords.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       EventType         `json:"type"`
	UserID     string            `json:"user_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	DeviceID   string            `json:"device_id,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent creates an event stamped with a fresh id
func NewEvent(eventType EventType, at time.Time) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: at,
	}
}

// WithUser sets the subject of the event
func (e *Event) WithUser(userID, email string) *Event {
	e.UserID = userID
	e.Email = email
	return e
}

// WithDevice sets the device the event originated from
func (e *Event) WithDevice(deviceID string) *Event {
	e.DeviceID = deviceID
	return e
}

// WithReason sets a short machine-readable cause
func (e *Event) WithReason(reason string) *Event {
	e.Reason = reason
	return e
}

// WithMeta adds one metadata pair
func (e *Event) WithMeta(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// PartitionKey keeps one user's events ordered on a single partition
func (e *Event) PartitionKey() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.DeviceID
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
