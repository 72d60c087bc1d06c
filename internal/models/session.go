package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// SessionStatus represents the runtime status of a mentoring session
type SessionStatus string

const (
	SessionStatusUpcoming   SessionStatus = "upcoming"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

// ActiveSessionStatuses are the statuses that occupy a participant's
// timeline for conflict checking. Cancelled and completed sessions never
// conflict.
var ActiveSessionStatuses = []SessionStatus{SessionStatusUpcoming, SessionStatusInProgress}

// IsActive returns true while the session occupies its interval
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusUpcoming || s == SessionStatusInProgress
}

// IsTerminal returns true if the status permits no further transitions
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// CanTransitionTo checks if a status transition is valid. Transitions are
// strictly monotonic along upcoming -> in_progress -> completed, with
// cancellation reachable from upcoming or in_progress only.
func (s SessionStatus) CanTransitionTo(newStatus SessionStatus) bool {
	switch s {
	case SessionStatusUpcoming:
		return newStatus == SessionStatusInProgress || newStatus == SessionStatusCancelled
	case SessionStatusInProgress:
		return newStatus == SessionStatusCompleted || newStatus == SessionStatusCancelled
	default:
		return false
	}
}

// PaymentStatus tracks whether a session has been settled
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// MentoringSession is the bookable unit of mentoring time
type MentoringSession struct {
	ID              string        `json:"id"`
	MentorID        string        `json:"mentorId"`
	MenteeID        string        `json:"menteeId"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	ScheduledAt     time.Time     `json:"scheduledAt"`
	DurationMinutes int           `json:"durationMinutes"`
	Amount          float64       `json:"amount"`
	Status          SessionStatus `json:"status"`
	ActualStartTime *time.Time    `json:"actualStartTime"`
	ActualEndTime   *time.Time    `json:"actualEndTime"`
	Notes           *string       `json:"notes"`
	Summary         *string       `json:"summary"`
	StatusReason    *string       `json:"statusReason"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ScheduledEnd returns the exclusive end instant of the scheduled interval
func (s *MentoringSession) ScheduledEnd() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// IsParticipant reports whether userID is the session's mentor or mentee.
// Both parties may start, end or cancel a session.
func (s *MentoringSession) IsParticipant(userID string) bool {
	return s.MentorID == userID || s.MenteeID == userID
}

// IntervalsOverlap tests two half-open intervals [aStart, aEnd) and
// [bStart, bEnd). Touching endpoints do not conflict.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// SessionAmount computes the fee for a session: hourly rate prorated over
// the duration.
func SessionAmount(hourlyRate float64, durationMinutes int) float64 {
	return hourlyRate * float64(durationMinutes) / 60.0
}

// BookSessionPayload is the payload for a mentee-initiated booking
type BookSessionPayload struct {
	MentorID        string    `json:"mentorId" binding:"required,uuid"`
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"max=4000"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=15,max=480"`
	Message         string    `json:"message" binding:"max=2000"`
}

// CreateSessionPayload is the payload for a mentor-initiated session
type CreateSessionPayload struct {
	MenteeID        string    `json:"menteeId" binding:"required,uuid"`
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"max=4000"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=15,max=480"`
}

// EndSessionPayload carries the wrap-up fields stored on completion
type EndSessionPayload struct {
	Notes   string `json:"notes" binding:"max=8000"`
	Summary string `json:"summary" binding:"max=4000"`
}

// CancelSessionPayload carries the optional cancellation reason
type CancelSessionPayload struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// RescheduleSessionPayload moves an upcoming session to a new start instant
type RescheduleSessionPayload struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Reason      string    `json:"reason" binding:"max=1000"`
}

// SessionUpdate is the statically typed partial update for a session. The
// pointer fields are the complete allow-list: a nil field is left untouched,
// and fields outside this struct cannot be set through the update path.
type SessionUpdate struct {
	Title           *string    `json:"title" binding:"omitempty,max=200"`
	Description     *string    `json:"description" binding:"omitempty,max=4000"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationMinutes *int       `json:"durationMinutes" binding:"omitempty,min=15,max=480"`
	Notes           *string    `json:"notes" binding:"omitempty,max=8000"`
}

// IsEmpty reports whether the update would change nothing
func (u *SessionUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.ScheduledAt == nil &&
		u.DurationMinutes == nil && u.Notes == nil
}

// SessionsResponse is the response for listing sessions
type SessionsResponse struct {
	Sessions []MentoringSession `json:"sessions"`
	Total    int                `json:"total"`
}

// ScanMentoringSession scans a single PostgreSQL row into a
// MentoringSession. Expected columns: id, mentor_id, mentee_id, title,
// description, scheduled_at, duration_minutes, amount, status,
// actual_start_time, actual_end_time, notes, summary, status_reason,
// payment_status, created_at, updated_at
func ScanMentoringSession(row pgx.Row) (*MentoringSession, error) {
	var s MentoringSession
	var description *string

	err := row.Scan(
		&s.ID,
		&s.MentorID,
		&s.MenteeID,
		&s.Title,
		&description,
		&s.ScheduledAt,
		&s.DurationMinutes,
		&s.Amount,
		&s.Status,
		&s.ActualStartTime,
		&s.ActualEndTime,
		&s.Notes,
		&s.Summary,
		&s.StatusReason,
		&s.PaymentStatus,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		s.Description = *description
	}

	return &s, nil
}

// ScanMentoringSessions scans multiple rows into a slice of MentoringSession
func ScanMentoringSessions(rows pgx.Rows) ([]*MentoringSession, error) {
	defer rows.Close()

	sessions := []*MentoringSession{}
	for rows.Next() {
		session, err := ScanMentoringSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
