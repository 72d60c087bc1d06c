package services_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRequestRepository is a mock implementation of RequestRepositoryInterface
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) CreatePending(ctx context.Context, req *models.MentoringRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*models.MentoringRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringRequest), args.Error(1)
}

func (m *MockRequestRepository) GetByMentor(ctx context.Context, mentorID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error) {
	args := m.Called(ctx, mentorID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentoringRequest), args.Error(1)
}

func (m *MockRequestRepository) GetByMentee(ctx context.Context, menteeID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error) {
	args := m.Called(ctx, menteeID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentoringRequest), args.Error(1)
}

func (m *MockRequestRepository) Accept(ctx context.Context, requestID string) (*models.MentoringRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringRequest), args.Error(1)
}

func (m *MockRequestRepository) Decline(ctx context.Context, requestID string, reason string) (*models.MentoringRequest, error) {
	args := m.Called(ctx, requestID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringRequest), args.Error(1)
}

func (m *MockRequestRepository) Cancel(ctx context.Context, requestID string) (*models.MentoringRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringRequest), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) UpdateAvailability(ctx context.Context, id string, availability string) error {
	args := m.Called(ctx, id, availability)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateHourlyRate(ctx context.Context, id string, hourlyRate float64) error {
	args := m.Called(ctx, id, hourlyRate)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepositoryInterface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.MentoringSession) (*models.MentoringSession, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*models.MentoringSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID string, statuses []models.SessionStatus) ([]*models.MentoringSession, error) {
	args := m.Called(ctx, userID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.MentoringSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) Start(ctx context.Context, id string, startTime time.Time) (*models.MentoringSession, error) {
	args := m.Called(ctx, id, startTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) Complete(ctx context.Context, id string, endTime time.Time, notes, summary string) (*models.MentoringSession, error) {
	args := m.Called(ctx, id, endTime, notes, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) Cancel(ctx context.Context, id string, reason string) (*models.MentoringSession, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) Reschedule(ctx context.Context, id string, scheduledAt time.Time, reason string) (*models.MentoringSession, error) {
	args := m.Called(ctx, id, scheduledAt, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, id string, update *models.SessionUpdate) (*models.MentoringSession, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentoringSession), args.Error(1)
}

// MockRelationshipRepository is a mock implementation of RelationshipRepositoryInterface
type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) GetActiveByPair(ctx context.Context, mentorID, menteeID string) (*models.MentorMenteeRelationship, error) {
	args := m.Called(ctx, mentorID, menteeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentorMenteeRelationship), args.Error(1)
}

func (m *MockRelationshipRepository) GetByUser(ctx context.Context, userID string) ([]*models.MentorMenteeRelationship, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentorMenteeRelationship), args.Error(1)
}

func (m *MockRelationshipRepository) SetStatus(ctx context.Context, id string, status models.RelationshipStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockNotificationRepository is a mock implementation of NotificationRepositoryInterface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockScheduledEventRepository is a mock implementation of ScheduledEventRepositoryInterface
type MockScheduledEventRepository struct {
	mock.Mock
}

func (m *MockScheduledEventRepository) Create(ctx context.Context, eventType string, recipients []string, payload any, dueAt time.Time) (string, error) {
	args := m.Called(ctx, eventType, recipients, payload, dueAt)
	return args.String(0), args.Error(1)
}

func (m *MockScheduledEventRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledEvent, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledEvent), args.Error(1)
}

func (m *MockScheduledEventRepository) CancelByPayloadField(ctx context.Context, eventType, field, value string) (int64, error) {
	args := m.Called(ctx, eventType, field, value)
	return args.Get(0).(int64), args.Error(1)
}

// CapturingPublisher records published events instead of pushing them to
// websockets. Safe for concurrent use.
type CapturingPublisher struct {
	mu     sync.Mutex
	events map[string][]models.RealtimeEvent
}

func NewCapturingPublisher() *CapturingPublisher {
	return &CapturingPublisher{events: make(map[string][]models.RealtimeEvent)}
}

func (p *CapturingPublisher) PublishToUser(userID string, event models.RealtimeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
}

func (p *CapturingPublisher) PublishToUsers(userIDs []string, event models.RealtimeEvent) {
	for _, id := range userIDs {
		p.PublishToUser(id, event)
	}
}

func (p *CapturingPublisher) EventsFor(userID string) []models.RealtimeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.RealtimeEvent(nil), p.events[userID]...)
}

// MockObjectStore is a mock implementation of storage.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

// MockHTTPClient is a mock implementation of httpclient.Client
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	args := m.Called(url, contentType, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func (m *MockHTTPClient) Get(url string) (*http.Response, error) {
	args := m.Called(url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
