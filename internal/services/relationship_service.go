package services

import (
	"context"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// RelationshipServiceInterface defines the interface for relationship reads
// and lifecycle
type RelationshipServiceInterface interface {
	ListForActor(ctx context.Context, actor models.Actor) ([]models.MentorMenteeRelationship, error)
	End(ctx context.Context, actor models.Actor, relationshipID string) error
}

// RelationshipService serves established pairings. Creation happens inside
// the request-accept transaction; here the parties can list and end them.
type RelationshipService struct {
	relationships repository.RelationshipRepositoryInterface
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(relationships repository.RelationshipRepositoryInterface) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
	}
}

// ListForActor lists the actor's relationships, both roles
func (s *RelationshipService) ListForActor(ctx context.Context, actor models.Actor) ([]models.MentorMenteeRelationship, error) {
	relationships, err := s.relationships.GetByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	result := make([]models.MentorMenteeRelationship, 0, len(relationships))
	for _, rel := range relationships {
		result = append(result, *rel)
	}
	return result, nil
}

// End marks a relationship completed. Either party may end it; ending does
// not touch existing sessions, it only closes the gate for new mentee
// bookings.
func (s *RelationshipService) End(ctx context.Context, actor models.Actor, relationshipID string) error {
	relationships, err := s.relationships.GetByUser(ctx, actor.UserID)
	if err != nil {
		return err
	}

	for _, rel := range relationships {
		if rel.ID != relationshipID {
			continue
		}
		if rel.Status != models.RelationshipStatusActive {
			return apperrors.InvalidStateError("relationship", string(rel.Status), string(models.RelationshipStatusCompleted))
		}
		if err := s.relationships.SetStatus(ctx, relationshipID, models.RelationshipStatusCompleted); err != nil {
			return err
		}
		logger.Info("relationship ended",
			zap.String("relationship_id", relationshipID),
			zap.String("ended_by", actor.UserID))
		return nil
	}

	return apperrors.NotFoundError("relationship")
}

var _ RelationshipServiceInterface = (*RelationshipService)(nil)
