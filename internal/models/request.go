package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// RequestStatus represents the status of a mentoring request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// ActiveRequestStatuses are the statuses counting toward the one-active-
// request-per-pair invariant
var ActiveRequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusAccepted}

// IsActive returns true while the request blocks further solicitation of
// the same mentor by the same mentee
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusPending || s == RequestStatusAccepted
}

// IsTerminal returns true if the status permits no further transitions
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusDeclined || s == RequestStatusCancelled
}

// CanTransitionTo checks if a status transition is valid. A request is
// mutated exactly once: pending is the only non-terminal status.
func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	if s != RequestStatusPending {
		return false
	}
	return newStatus == RequestStatusAccepted ||
		newStatus == RequestStatusDeclined ||
		newStatus == RequestStatusCancelled
}

// MentoringRequest represents a mentee's solicitation of a specific mentor
type MentoringRequest struct {
	ID                string        `json:"id"`
	MenteeID          string        `json:"menteeId"`
	MentorID          string        `json:"mentorId"`
	Message           string        `json:"message"`
	Goals             string        `json:"goals"`
	PreferredSchedule string        `json:"preferredSchedule"`
	Status            RequestStatus `json:"status"`
	DeclineReason     *string       `json:"declineReason"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	StatusChangedAt   *time.Time    `json:"statusChangedAt"`
}

// SubmitRequestPayload is the payload for creating a mentoring request
type SubmitRequestPayload struct {
	MentorID          string `json:"mentorId" binding:"required,uuid"`
	Message           string `json:"message" binding:"required,max=4000"`
	Goals             string `json:"goals" binding:"max=2000"`
	PreferredSchedule string `json:"preferredSchedule" binding:"max=1000"`
}

// AcceptRequestPayload is the payload for accepting a request. MeetingAt
// optionally fixes the meeting instant; when absent the meeting-start event
// fires after the platform default delay.
type AcceptRequestPayload struct {
	MeetingAt *time.Time `json:"meetingAt"`
}

// DeclineRequestPayload is the payload for declining a request
type DeclineRequestPayload struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// RequestsResponse is the response for listing requests
type RequestsResponse struct {
	Requests []MentoringRequest `json:"requests"`
	Total    int                `json:"total"`
}

// ScanMentoringRequest scans a single PostgreSQL row into a MentoringRequest.
// Expected columns: id, mentee_id, mentor_id, message, goals,
// preferred_schedule, status, decline_reason, created_at, updated_at,
// status_changed_at
func ScanMentoringRequest(row pgx.Row) (*MentoringRequest, error) {
	var r MentoringRequest
	var goals, preferredSchedule *string

	err := row.Scan(
		&r.ID,
		&r.MenteeID,
		&r.MentorID,
		&r.Message,
		&goals,
		&preferredSchedule,
		&r.Status,
		&r.DeclineReason,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.StatusChangedAt,
	)
	if err != nil {
		return nil, err
	}

	if goals != nil {
		r.Goals = *goals
	}
	if preferredSchedule != nil {
		r.PreferredSchedule = *preferredSchedule
	}

	return &r, nil
}

// ScanMentoringRequests scans multiple rows into a slice of MentoringRequest
func ScanMentoringRequests(rows pgx.Rows) ([]*MentoringRequest, error) {
	defer rows.Close()

	requests := []*MentoringRequest{}
	for rows.Next() {
		request, err := ScanMentoringRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}
