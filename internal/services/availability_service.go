package services

import (
	"context"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
)

// AvailabilityServiceInterface defines the interface for advisory
// availability checks
type AvailabilityServiceInterface interface {
	HasConflict(ctx context.Context, userID string, start time.Time, durationMinutes int) (bool, error)
}

// AvailabilityService answers "is this slot free" questions for the UI.
// The answer is advisory: the authoritative conflict check runs inside the
// booking transaction, so a slot shown as free can still be lost to a
// concurrent booking.
type AvailabilityService struct {
	sessions repository.SessionRepositoryInterface
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(sessions repository.SessionRepositoryInterface) *AvailabilityService {
	return &AvailabilityService{
		sessions: sessions,
	}
}

// HasConflict reports whether the half-open interval [start, start+duration)
// overlaps any of the user's active sessions
func (s *AvailabilityService) HasConflict(ctx context.Context, userID string, start time.Time, durationMinutes int) (bool, error) {
	if durationMinutes <= 0 {
		return false, apperrors.InvalidInputError("durationMinutes", "must be positive")
	}

	active, err := s.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	for _, session := range active {
		if models.IntervalsOverlap(start, end, session.ScheduledAt, session.ScheduledEnd()) {
			return true, nil
		}
	}
	return false, nil
}

var _ AvailabilityServiceInterface = (*AvailabilityService)(nil)
