package services_test

import (
	"context"
	"testing"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRelationshipService_ListForActor(t *testing.T) {
	relationships := new(MockRelationshipRepository)
	service := services.NewRelationshipService(relationships)
	ctx := context.Background()
	actor := mentorActor()

	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{activeRelationship()}, nil).Once()

	result, err := service.ListForActor(ctx, actor)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "rel-1", result[0].ID)
	relationships.AssertExpectations(t)
}

func TestRelationshipService_End_Success(t *testing.T) {
	relationships := new(MockRelationshipRepository)
	service := services.NewRelationshipService(relationships)
	ctx := context.Background()
	actor := menteeActor()

	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{activeRelationship()}, nil).Once()
	relationships.On("SetStatus", ctx, "rel-1", models.RelationshipStatusCompleted).
		Return(nil).Once()

	err := service.End(ctx, actor, "rel-1")

	assert.NoError(t, err)
	relationships.AssertExpectations(t)
}

func TestRelationshipService_End_NotOwnRelationship(t *testing.T) {
	relationships := new(MockRelationshipRepository)
	service := services.NewRelationshipService(relationships)
	ctx := context.Background()
	actor := menteeActor()

	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{}, nil).Once()

	err := service.End(ctx, actor, "rel-1")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	relationships.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelationshipService_End_AlreadyCompleted(t *testing.T) {
	relationships := new(MockRelationshipRepository)
	service := services.NewRelationshipService(relationships)
	ctx := context.Background()
	actor := menteeActor()

	completed := activeRelationship()
	completed.Status = models.RelationshipStatusCompleted
	relationships.On("GetByUser", ctx, actor.UserID).
		Return([]*models.MentorMenteeRelationship{completed}, nil).Once()

	err := service.End(ctx, actor, "rel-1")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
	relationships.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}
