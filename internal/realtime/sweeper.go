package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// Sweeper polls the scheduled_events table and publishes due events. Rows
// are durable, so deferred events survive process restarts; an event whose
// due time passed while no instance was running publishes on the first sweep
// after startup. Claiming uses row locks, so multiple instances can sweep
// concurrently without duplicate publishes.
type Sweeper struct {
	events    repository.ScheduledEventRepositoryInterface
	publisher Publisher
	interval  time.Duration
	batchSize int
}

// NewSweeper creates a sweeper polling at the given interval
func NewSweeper(events repository.ScheduledEventRepositoryInterface, publisher Publisher, interval time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		events:    events,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run sweeps until the context is cancelled. A sweep runs immediately on
// start to drain anything that came due while the process was down.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Info("scheduled event sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize))

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduled event sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep claims and publishes one batch of due events
func (s *Sweeper) Sweep(ctx context.Context) {
	events, err := s.events.ClaimDue(ctx, time.Now(), s.batchSize)
	if err != nil {
		logger.Error("failed to claim due events", zap.Error(err))
		return
	}

	for _, event := range events {
		s.publish(event)
	}
}

func (s *Sweeper) publish(event *models.ScheduledEvent) {
	s.publisher.PublishToUsers(event.Recipients, models.RealtimeEvent{
		Type:    event.EventType,
		Payload: json.RawMessage(event.Payload),
	})

	metrics.ScheduledEventsPublished.WithLabelValues(event.EventType, "published").Inc()
	logger.Debug("published scheduled event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.Time("due_at", event.DueAt))
}
