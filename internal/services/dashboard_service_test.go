package services_test

import (
	"context"
	"testing"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDashboardService_Get_Mentor(t *testing.T) {
	requests := new(MockRequestRepository)
	relationships := new(MockRelationshipRepository)
	sessions := new(MockSessionRepository)
	notifications := new(MockNotificationRepository)
	service := services.NewDashboardService(requests, relationships, sessions, notifications)

	ctx := context.Background()
	actor := mentorActor()

	requests.On("GetByMentor", ctx, actor.UserID, []models.RequestStatus{models.RequestStatusPending}).
		Return([]*models.MentoringRequest{pendingRequest()}, nil).Once()

	inactive := activeRelationship()
	inactive.ID = "rel-2"
	inactive.Status = models.RelationshipStatusInactive
	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{activeRelationship(), inactive}, nil).Once()

	sessions.On("ListByUser", ctx, actor.UserID, []models.SessionStatus{models.SessionStatusUpcoming}).
		Return([]*models.MentoringSession{upcomingSession()}, nil).Once()

	notifications.On("CountUnread", ctx, actor.UserID).Return(3, nil).Once()

	dashboard, err := service.Get(ctx, actor)

	assert.NoError(t, err)
	assert.Equal(t, 1, dashboard.PendingRequests)
	assert.Equal(t, 1, dashboard.ActiveRelationships)
	assert.Len(t, dashboard.UpcomingSessions, 1)
	assert.Equal(t, 3, dashboard.UnreadNotifications)
	requests.AssertExpectations(t)
	requests.AssertNotCalled(t, "GetByMentee", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardService_Get_MenteeUsesOutgoingRequests(t *testing.T) {
	requests := new(MockRequestRepository)
	relationships := new(MockRelationshipRepository)
	sessions := new(MockSessionRepository)
	notifications := new(MockNotificationRepository)
	service := services.NewDashboardService(requests, relationships, sessions, notifications)

	ctx := context.Background()
	actor := menteeActor()

	requests.On("GetByMentee", ctx, actor.UserID, []models.RequestStatus{models.RequestStatusPending}).
		Return([]*models.MentoringRequest{}, nil).Once()
	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{}, nil).Once()
	sessions.On("ListByUser", ctx, actor.UserID, mock.Anything).
		Return([]*models.MentoringSession{}, nil).Once()
	notifications.On("CountUnread", ctx, actor.UserID).Return(0, nil).Once()

	dashboard, err := service.Get(ctx, actor)

	assert.NoError(t, err)
	assert.Equal(t, 0, dashboard.PendingRequests)
	assert.NotNil(t, dashboard.UpcomingSessions)
	requests.AssertExpectations(t)
}
