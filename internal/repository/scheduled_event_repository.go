package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// ScheduledEventRepositoryInterface defines the interface for deferred
// event data access
type ScheduledEventRepositoryInterface interface {
	Create(ctx context.Context, eventType string, recipients []string, payload any, dueAt time.Time) (string, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledEvent, error)
	CancelByPayloadField(ctx context.Context, eventType, field, value string) (int64, error)
}

// ScheduledEventRepository persists deferred real-time events. Rows survive
// process restarts; the sweeper claims due rows and publishes them.
type ScheduledEventRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledEventRepository creates a new scheduled event repository
func NewScheduledEventRepository(pool *pgxpool.Pool) *ScheduledEventRepository {
	return &ScheduledEventRepository{
		pool: pool,
	}
}

// Create persists a deferred event due at dueAt
func (r *ScheduledEventRepository) Create(ctx context.Context, eventType string, recipients []string, payload any, dueAt time.Time) (string, error) {
	start := time.Now()
	operation := "createScheduledEvent"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode event payload: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_events (event_type, recipients, payload, due_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		eventType, recipients, body, dueAt,
	).Scan(&id)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return "", fmt.Errorf("failed to create scheduled event: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return id, nil
}

// ClaimDue atomically claims up to limit due events by stamping
// processed_at, returning the claimed rows. SKIP LOCKED keeps concurrent
// sweepers (multiple instances) from claiming the same row, so each event
// publishes at most once.
func (r *ScheduledEventRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledEvent, error) {
	start := time.Now()
	operation := "claimDueScheduledEvents"

	rows, err := r.pool.Query(ctx, `
		UPDATE scheduled_events
		SET processed_at = now()
		WHERE id IN (
			SELECT id FROM scheduled_events
			WHERE processed_at IS NULL AND due_at <= $1
			ORDER BY due_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_type, recipients, payload, due_at, processed_at, created_at`,
		now, limit)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to claim scheduled events: %w", err)
	}
	defer rows.Close()

	events := []*models.ScheduledEvent{}
	for rows.Next() {
		var e models.ScheduledEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Recipients, &e.Payload, &e.DueAt, &e.ProcessedAt, &e.CreatedAt); err != nil {
			duration := metrics.MeasureDuration(start)
			recordMetrics(operation, "error", duration)
			return nil, fmt.Errorf("failed to scan scheduled event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to read scheduled events: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	return events, nil
}

// CancelByPayloadField marks pending events of a type as processed when a
// payload field matches, e.g. dropping a queued meeting announcement after
// its request is no longer accepted.
func (r *ScheduledEventRepository) CancelByPayloadField(ctx context.Context, eventType, field, value string) (int64, error) {
	start := time.Now()
	operation := "cancelScheduledEvents"

	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_events
		SET processed_at = now()
		WHERE processed_at IS NULL AND event_type = $1 AND payload ->> $2 = $3`,
		eventType, field, value)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return 0, fmt.Errorf("failed to cancel scheduled events: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return tag.RowsAffected(), nil
}

var _ ScheduledEventRepositoryInterface = (*ScheduledEventRepository)(nil)
