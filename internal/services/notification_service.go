package services

import (
	"context"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationServiceInterface defines the interface for reading and acking
// notifications
type NotificationServiceInterface interface {
	List(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) (*models.NotificationsResponse, error)
	MarkRead(ctx context.Context, actor models.Actor, notificationID string) error
	MarkAllRead(ctx context.Context, actor models.Actor) error
}

// NotificationService serves the durable notification feed. Creation happens
// inside the lifecycle services; this side only reads and acknowledges.
type NotificationService struct {
	notifications repository.NotificationRepositoryInterface
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications repository.NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{
		notifications: notifications,
	}
}

// List returns the actor's notifications with the unread count
func (s *NotificationService) List(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) (*models.NotificationsResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}

	notifications, err := s.notifications.ListByUser(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notifications.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	response := &models.NotificationsResponse{
		Notifications: make([]models.Notification, 0, len(notifications)),
		Total:         len(notifications),
		Unread:        unread,
	}
	for _, n := range notifications {
		response.Notifications = append(response.Notifications, *n)
	}
	return response, nil
}

// MarkRead acknowledges one of the actor's notifications
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID string) error {
	return s.notifications.MarkRead(ctx, actor.UserID, notificationID)
}

// MarkAllRead acknowledges all of the actor's notifications
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) error {
	return s.notifications.MarkAllRead(ctx, actor.UserID)
}

var _ NotificationServiceInterface = (*NotificationService)(nil)
