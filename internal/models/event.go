package models

import (
	"encoding/json"
	"time"
)

// Real-time event types pushed over the event channel
const (
	EventTypeRequestDecision = "request:decision"
	EventTypeMeetingStart    = "meeting:start"
	EventTypeSessionUpdate   = "session:update"
)

// RealtimeEvent is a best-effort message for one recipient. Delivery is
// at-most-once; a dropped event is never retried.
type RealtimeEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RequestDecisionPayload announces a mentor's (or requester's) decision on
// a mentoring request.
type RequestDecisionPayload struct {
	RequestID string        `json:"requestId"`
	Status    RequestStatus `json:"status"`
	DecidedBy string        `json:"decidedBy"`
	Reason    string        `json:"reason,omitempty"`
	DecidedAt time.Time     `json:"decidedAt"`
}

// MeetingStartPayload announces an imminent meeting to both parties,
// carrying the shareable join reference. RequestID is set for meetings born
// from an accepted request, SessionID for booked sessions.
type MeetingStartPayload struct {
	RequestID   string    `json:"requestId,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	MentorID    string    `json:"mentorId"`
	MenteeID    string    `json:"menteeId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	JoinURL     string    `json:"joinUrl"`
}

// SessionUpdatePayload announces a session state change to the other party
type SessionUpdatePayload struct {
	SessionID string        `json:"sessionId"`
	MentorID  string        `json:"mentorId"`
	MenteeID  string        `json:"menteeId"`
	Status    SessionStatus `json:"status"`
	UpdatedBy string        `json:"updatedBy"`
	Reason    string        `json:"reason,omitempty"`
}

// ScheduledEvent is a durable deferred real-time event: a row with a due
// time, published by the sweeper loop once due. Surviving process restarts
// is the point of persisting it.
type ScheduledEvent struct {
	ID          string          `json:"id"`
	EventType   string          `json:"eventType"`
	Recipients  []string        `json:"recipients"`
	Payload     json.RawMessage `json:"payload"`
	DueAt       time.Time       `json:"dueAt"`
	ProcessedAt *time.Time      `json:"processedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}
