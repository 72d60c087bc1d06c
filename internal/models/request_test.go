package models_test

import (
	"testing"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    models.RequestStatus
		to      models.RequestStatus
		allowed bool
	}{
		{"pending to accepted", models.RequestStatusPending, models.RequestStatusAccepted, true},
		{"pending to declined", models.RequestStatusPending, models.RequestStatusDeclined, true},
		{"pending to cancelled", models.RequestStatusPending, models.RequestStatusCancelled, true},
		{"accepted is terminal", models.RequestStatusAccepted, models.RequestStatusDeclined, false},
		{"declined is terminal", models.RequestStatusDeclined, models.RequestStatusAccepted, false},
		{"cancelled is terminal", models.RequestStatusCancelled, models.RequestStatusAccepted, false},
		{"pending to pending", models.RequestStatusPending, models.RequestStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRequestStatus_IsActive(t *testing.T) {
	// Pending and accepted both block a new request for the same pair
	assert.True(t, models.RequestStatusPending.IsActive())
	assert.True(t, models.RequestStatusAccepted.IsActive())
	assert.False(t, models.RequestStatusDeclined.IsActive())
	assert.False(t, models.RequestStatusCancelled.IsActive())
}

func TestRequestStatus_IsTerminal(t *testing.T) {
	assert.False(t, models.RequestStatusPending.IsTerminal())
	assert.True(t, models.RequestStatusAccepted.IsTerminal())
	assert.True(t, models.RequestStatusDeclined.IsTerminal())
	assert.True(t, models.RequestStatusCancelled.IsTerminal())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, models.RoleMentor.Valid())
	assert.True(t, models.RoleMentee.Valid())
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("superuser").Valid())
	assert.False(t, models.Role("").Valid())
}

func TestUser_EffectiveHourlyRate(t *testing.T) {
	rate := 150.0
	withRate := &models.User{HourlyRate: &rate}
	assert.Equal(t, 150.0, withRate.EffectiveHourlyRate(50))

	noRate := &models.User{}
	assert.Equal(t, 50.0, noRate.EffectiveHourlyRate(50))

	zero := 0.0
	zeroRate := &models.User{HourlyRate: &zero}
	assert.Equal(t, 50.0, zeroRate.EffectiveHourlyRate(50))
}
