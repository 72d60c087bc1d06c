package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/realtime"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

type mockScheduledEventRepository struct {
	mock.Mock
}

func (m *mockScheduledEventRepository) Create(ctx context.Context, eventType string, recipients []string, payload any, dueAt time.Time) (string, error) {
	args := m.Called(ctx, eventType, recipients, payload, dueAt)
	return args.String(0), args.Error(1)
}

func (m *mockScheduledEventRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledEvent, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledEvent), args.Error(1)
}

func (m *mockScheduledEventRepository) CancelByPayloadField(ctx context.Context, eventType, field, value string) (int64, error) {
	args := m.Called(ctx, eventType, field, value)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]models.RealtimeEvent
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]models.RealtimeEvent)}
}

func (p *recordingPublisher) PublishToUser(userID string, event models.RealtimeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
}

func (p *recordingPublisher) PublishToUsers(userIDs []string, event models.RealtimeEvent) {
	for _, id := range userIDs {
		p.PublishToUser(id, event)
	}
}

func (p *recordingPublisher) eventsFor(userID string) []models.RealtimeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.RealtimeEvent(nil), p.events[userID]...)
}

func TestSweeper_Sweep_PublishesToAllRecipients(t *testing.T) {
	repo := new(mockScheduledEventRepository)
	publisher := newRecordingPublisher()
	sweeper := realtime.NewSweeper(repo, publisher, time.Minute, 100)
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]string{"sessionId": "sess-1"})
	due := []*models.ScheduledEvent{
		{
			ID:         "evt-1",
			EventType:  models.EventTypeMeetingStart,
			Recipients: []string{"mentor-1", "mentee-1"},
			Payload:    payload,
			DueAt:      time.Now().Add(-time.Minute),
		},
	}
	repo.On("ClaimDue", ctx, mock.AnythingOfType("time.Time"), 100).Return(due, nil).Once()

	sweeper.Sweep(ctx)

	for _, recipient := range []string{"mentor-1", "mentee-1"} {
		events := publisher.eventsFor(recipient)
		if assert.Len(t, events, 1, "recipient %s", recipient) {
			assert.Equal(t, models.EventTypeMeetingStart, events[0].Type)
			assert.Equal(t, json.RawMessage(payload), events[0].Payload)
		}
	}
	repo.AssertExpectations(t)
}

func TestSweeper_Sweep_EmptyBatch(t *testing.T) {
	repo := new(mockScheduledEventRepository)
	publisher := newRecordingPublisher()
	sweeper := realtime.NewSweeper(repo, publisher, time.Minute, 100)
	ctx := context.Background()

	repo.On("ClaimDue", ctx, mock.AnythingOfType("time.Time"), 100).
		Return([]*models.ScheduledEvent{}, nil).Once()

	sweeper.Sweep(ctx)

	assert.Empty(t, publisher.eventsFor("mentor-1"))
	repo.AssertExpectations(t)
}

func TestSweeper_Sweep_ClaimErrorSkipsBatch(t *testing.T) {
	repo := new(mockScheduledEventRepository)
	publisher := newRecordingPublisher()
	sweeper := realtime.NewSweeper(repo, publisher, time.Minute, 100)
	ctx := context.Background()

	repo.On("ClaimDue", ctx, mock.AnythingOfType("time.Time"), 100).
		Return(nil, errors.New("connection refused")).Once()

	sweeper.Sweep(ctx)

	assert.Empty(t, publisher.eventsFor("mentor-1"))
	repo.AssertExpectations(t)
}

func TestSweeper_Run_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	repo := new(mockScheduledEventRepository)
	publisher := newRecordingPublisher()
	sweeper := realtime.NewSweeper(repo, publisher, time.Hour, 100)

	claimed := make(chan struct{})
	repo.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Run(func(args mock.Arguments) { close(claimed) }).
		Return([]*models.ScheduledEvent{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-claimed:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not sweep on startup")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
	repo.AssertExpectations(t)
}

func TestHub_PublishToUnknownUserIsSafe(t *testing.T) {
	hub := realtime.NewHub()

	assert.NotPanics(t, func() {
		hub.PublishToUser("nobody", models.RealtimeEvent{Type: models.EventTypeSessionUpdate})
	})
	assert.Equal(t, 0, hub.ConnectedUsers())
}

func TestHub_PublishToUsersFansOut(t *testing.T) {
	hub := realtime.NewHub()

	// No connections registered; fan-out over many ids must still be a no-op
	assert.NotPanics(t, func() {
		hub.PublishToUsers([]string{"a", "b", "c"}, models.RealtimeEvent{Type: models.EventTypeMeetingStart})
	})
}
