package services

import (
	"context"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
)

// DashboardServiceInterface defines the interface for the per-user summary
type DashboardServiceInterface interface {
	Get(ctx context.Context, actor models.Actor) (*models.Dashboard, error)
}

// DashboardService aggregates the actor's pending requests, relationships,
// upcoming sessions and unread notifications into one summary
type DashboardService struct {
	requests      repository.RequestRepositoryInterface
	relationships repository.RelationshipRepositoryInterface
	sessions      repository.SessionRepositoryInterface
	notifications repository.NotificationRepositoryInterface
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	requests repository.RequestRepositoryInterface,
	relationships repository.RelationshipRepositoryInterface,
	sessions repository.SessionRepositoryInterface,
	notifications repository.NotificationRepositoryInterface,
) *DashboardService {
	return &DashboardService{
		requests:      requests,
		relationships: relationships,
		sessions:      sessions,
		notifications: notifications,
	}
}

// Get builds the dashboard for the acting user
func (s *DashboardService) Get(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	pending := []models.RequestStatus{models.RequestStatusPending}

	var (
		requests []*models.MentoringRequest
		err      error
	)
	if actor.Role == models.RoleMentor {
		requests, err = s.requests.GetByMentor(ctx, actor.UserID, pending)
	} else {
		requests, err = s.requests.GetByMentee(ctx, actor.UserID, pending)
	}
	if err != nil {
		return nil, err
	}

	relationships, err := s.relationships.GetByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	activeRelationships := 0
	for _, rel := range relationships {
		if rel.Status == models.RelationshipStatusActive {
			activeRelationships++
		}
	}

	upcoming, err := s.sessions.ListByUser(ctx, actor.UserID, []models.SessionStatus{models.SessionStatusUpcoming})
	if err != nil {
		return nil, err
	}

	unread, err := s.notifications.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{
		PendingRequests:     len(requests),
		ActiveRelationships: activeRelationships,
		UpcomingSessions:    make([]models.MentoringSession, 0, len(upcoming)),
		UnreadNotifications: unread,
	}
	for _, session := range upcoming {
		dashboard.UpcomingSessions = append(dashboard.UpcomingSessions, *session)
	}
	return dashboard, nil
}

var _ DashboardServiceInterface = (*DashboardService)(nil)
