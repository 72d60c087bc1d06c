package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const notificationColumns = `id, user_id, type, title, message, data, read, created_at`

// NotificationRepositoryInterface defines the interface for notification
// data access
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationRepository handles durable per-user notification data access
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		pool: pool,
	}
}

// Create inserts a notification for a user
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	start := time.Now()
	operation := "createNotification"

	data := notification.Data
	if data == nil {
		data = map[string]any{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5)`,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		data,
	)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	recordMetrics(operation, "success", duration)
	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	start := time.Now()
	operation := "listNotifications"

	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE user_id = $1 AND ($2 = false OR read = false)
		ORDER BY created_at DESC
		LIMIT $3`, notificationColumns)

	rows, err := r.pool.Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	notifications, err := models.ScanNotifications(rows)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return notifications, nil
}

// CountUnread returns the user's unread notification count
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	operation := "countUnreadNotifications"

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`,
		userID).Scan(&count)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return count, nil
}

// MarkRead marks a single notification as read. Scoped to the owning user
// so one user cannot ack another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	start := time.Now()
	operation := "markNotificationRead"

	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("notification")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	start := time.Now()
	operation := "markAllNotificationsRead"

	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`,
		userID)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return nil
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)
