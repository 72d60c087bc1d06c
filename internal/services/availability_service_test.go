package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAvailabilityService_HasConflict_Overlap(t *testing.T) {
	sessions := new(MockSessionRepository)
	service := services.NewAvailabilityService(sessions)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	existing := &models.MentoringSession{
		ID:              "sess-1",
		ScheduledAt:     base,
		DurationMinutes: 60,
		Status:          models.SessionStatusUpcoming,
	}
	sessions.On("ListActiveByUser", ctx, "user-1").
		Return([]*models.MentoringSession{existing}, nil)

	conflict, err := service.HasConflict(ctx, "user-1", base.Add(30*time.Minute), 60)

	assert.NoError(t, err)
	assert.True(t, conflict)
}

func TestAvailabilityService_HasConflict_TouchingEndpointsDoNotConflict(t *testing.T) {
	sessions := new(MockSessionRepository)
	service := services.NewAvailabilityService(sessions)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	existing := &models.MentoringSession{
		ID:              "sess-1",
		ScheduledAt:     base,
		DurationMinutes: 60,
		Status:          models.SessionStatusUpcoming,
	}
	sessions.On("ListActiveByUser", ctx, "user-1").
		Return([]*models.MentoringSession{existing}, nil)

	// Starts exactly when the existing session ends
	after, err := service.HasConflict(ctx, "user-1", base.Add(time.Hour), 30)
	assert.NoError(t, err)
	assert.False(t, after)

	// Ends exactly when the existing session starts
	before, err := service.HasConflict(ctx, "user-1", base.Add(-30*time.Minute), 30)
	assert.NoError(t, err)
	assert.False(t, before)
}

func TestAvailabilityService_HasConflict_EmptyTimeline(t *testing.T) {
	sessions := new(MockSessionRepository)
	service := services.NewAvailabilityService(sessions)
	ctx := context.Background()

	sessions.On("ListActiveByUser", ctx, "user-1").
		Return([]*models.MentoringSession{}, nil)

	conflict, err := service.HasConflict(ctx, "user-1", time.Now().Add(time.Hour), 60)

	assert.NoError(t, err)
	assert.False(t, conflict)
}

func TestAvailabilityService_HasConflict_InvalidDuration(t *testing.T) {
	sessions := new(MockSessionRepository)
	service := services.NewAvailabilityService(sessions)

	_, err := service.HasConflict(context.Background(), "user-1", time.Now(), 0)

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	sessions.AssertNotCalled(t, "ListActiveByUser", mock.Anything, mock.Anything)
}
