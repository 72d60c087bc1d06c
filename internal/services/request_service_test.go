package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/meeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		Platform: config.PlatformConfig{
			DefaultHourlyRate:        50,
			MeetingBaseURL:           "https://meet.mentorhub.dev",
			MeetingStartDelayMinutes: 15,
		},
	}
}

type requestServiceFixture struct {
	requests      *MockRequestRepository
	users         *MockUserRepository
	notifications *MockNotificationRepository
	events        *MockScheduledEventRepository
	publisher     *CapturingPublisher
	httpClient    *MockHTTPClient
	service       *services.RequestService
}

func newRequestServiceFixture() *requestServiceFixture {
	f := &requestServiceFixture{
		requests:      new(MockRequestRepository),
		users:         new(MockUserRepository),
		notifications: new(MockNotificationRepository),
		events:        new(MockScheduledEventRepository),
		publisher:     NewCapturingPublisher(),
		httpClient:    new(MockHTTPClient),
	}
	f.service = services.NewRequestService(
		f.requests,
		f.users,
		f.notifications,
		f.events,
		f.publisher,
		meeting.NewGenerator("https://meet.mentorhub.dev"),
		f.httpClient,
		testConfig(),
	)
	return f
}

func menteeActor() models.Actor {
	return models.Actor{UserID: "mentee-1", Role: models.RoleMentee, Name: "Maria Mentee"}
}

func mentorActor() models.Actor {
	return models.Actor{UserID: "mentor-1", Role: models.RoleMentor, Name: "Marcus Mentor"}
}

func pendingRequest() *models.MentoringRequest {
	return &models.MentoringRequest{
		ID:       "req-1",
		MenteeID: "mentee-1",
		MentorID: "mentor-1",
		Message:  "Would love your guidance",
		Status:   models.RequestStatusPending,
	}
}

func TestRequestService_Submit_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()
	actor := menteeActor()

	mentor := &models.User{ID: "mentor-1", Name: "Marcus Mentor", Role: models.RoleMentor}
	f.users.On("GetByID", ctx, "mentor-1").Return(mentor, nil).Once()
	f.requests.On("CreatePending", ctx, mock.AnythingOfType("*models.MentoringRequest")).Return("req-1", nil).Once()
	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.notifications.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == "mentor-1" && n.Type == models.NotificationTypeRequestReceived
	})).Return(nil).Once()

	created, err := f.service.Submit(ctx, actor, &models.SubmitRequestPayload{
		MentorID: "mentor-1",
		Message:  "Would love your guidance",
	})

	assert.NoError(t, err)
	assert.Equal(t, "req-1", created.ID)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	f.requests.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestRequestService_Submit_MentorRoleRejected(t *testing.T) {
	f := newRequestServiceFixture()

	_, err := f.service.Submit(context.Background(), mentorActor(), &models.SubmitRequestPayload{
		MentorID: "mentor-2",
		Message:  "hello",
	})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))
	f.requests.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestRequestService_Submit_SelfRequestRejected(t *testing.T) {
	f := newRequestServiceFixture()
	actor := menteeActor()

	_, err := f.service.Submit(context.Background(), actor, &models.SubmitRequestPayload{
		MentorID: actor.UserID,
		Message:  "hello me",
	})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestRequestService_Submit_TargetNotMentor(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	otherMentee := &models.User{ID: "mentee-2", Role: models.RoleMentee}
	f.users.On("GetByID", ctx, "mentee-2").Return(otherMentee, nil).Once()

	_, err := f.service.Submit(ctx, menteeActor(), &models.SubmitRequestPayload{
		MentorID: "mentee-2",
		Message:  "hello",
	})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	f.requests.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestRequestService_Submit_DuplicatePair(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mentor := &models.User{ID: "mentor-1", Role: models.RoleMentor}
	f.users.On("GetByID", ctx, "mentor-1").Return(mentor, nil).Once()
	f.requests.On("CreatePending", ctx, mock.Anything).Return("", apperrors.ErrDuplicateRequest).Once()

	_, err := f.service.Submit(ctx, menteeActor(), &models.SubmitRequestPayload{
		MentorID: "mentor-1",
		Message:  "second try",
	})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateRequest))
	f.requests.AssertExpectations(t)
}

func TestRequestService_GetByID_OutsiderSeesNotFound(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()

	outsider := models.Actor{UserID: "stranger-1", Role: models.RoleMentee}
	_, err := f.service.GetByID(ctx, outsider, "req-1")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRequestService_GetByID_AdminSeesAny(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()

	admin := models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	request, err := f.service.GetByID(ctx, admin, "req-1")

	assert.NoError(t, err)
	assert.Equal(t, "req-1", request.ID)
}

func TestRequestService_Accept_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()
	actor := mentorActor()

	decidedAt := time.Now()
	accepted := pendingRequest()
	accepted.Status = models.RequestStatusAccepted
	accepted.StatusChangedAt = &decidedAt

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.requests.On("Accept", ctx, "req-1").Return(accepted, nil).Once()
	f.notifications.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == "mentee-1" && n.Type == models.NotificationTypeRequestDecision
	})).Return(nil).Once()
	f.events.On("Create", ctx, models.EventTypeMeetingStart,
		[]string{"mentor-1", "mentee-1"}, mock.Anything, mock.AnythingOfType("time.Time")).
		Return("evt-1", nil).Once()

	result, err := f.service.Accept(ctx, actor, "req-1", &models.AcceptRequestPayload{})

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, result.Status)

	pushed := f.publisher.EventsFor("mentee-1")
	if assert.Len(t, pushed, 1) {
		assert.Equal(t, models.EventTypeRequestDecision, pushed[0].Type)
		payload := pushed[0].Payload.(models.RequestDecisionPayload)
		assert.Equal(t, models.RequestStatusAccepted, payload.Status)
		assert.Equal(t, actor.UserID, payload.DecidedBy)
		assert.Equal(t, decidedAt, payload.DecidedAt)
	}
	f.requests.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestRequestService_Accept_ExplicitMeetingTime(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	meetingAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	accepted := pendingRequest()
	accepted.Status = models.RequestStatusAccepted

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.requests.On("Accept", ctx, "req-1").Return(accepted, nil).Once()
	f.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.events.On("Create", ctx, models.EventTypeMeetingStart,
		[]string{"mentor-1", "mentee-1"}, mock.MatchedBy(func(p any) bool {
			payload, ok := p.(models.MeetingStartPayload)
			return ok && payload.RequestID == "req-1" && payload.ScheduledAt.Equal(meetingAt)
		}), meetingAt).Return("evt-1", nil).Once()

	_, err := f.service.Accept(ctx, mentorActor(), "req-1", &models.AcceptRequestPayload{MeetingAt: &meetingAt})

	assert.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestRequestService_Accept_WrongMentor(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()

	other := models.Actor{UserID: "mentor-2", Role: models.RoleMentor}
	_, err := f.service.Accept(ctx, other, "req-1", &models.AcceptRequestPayload{})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))
	f.requests.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestRequestService_Accept_AlreadyDecided(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	declined := pendingRequest()
	declined.Status = models.RequestStatusDeclined
	f.requests.On("GetByID", ctx, "req-1").Return(declined, nil).Once()

	_, err := f.service.Accept(ctx, mentorActor(), "req-1", &models.AcceptRequestPayload{})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
	f.requests.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestRequestService_Decline_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	declined := pendingRequest()
	declined.Status = models.RequestStatusDeclined

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.requests.On("Decline", ctx, "req-1", "no capacity").Return(declined, nil).Once()
	f.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

	result, err := f.service.Decline(ctx, mentorActor(), "req-1", &models.DeclineRequestPayload{Reason: "no capacity"})

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusDeclined, result.Status)

	pushed := f.publisher.EventsFor("mentee-1")
	if assert.Len(t, pushed, 1) {
		payload := pushed[0].Payload.(models.RequestDecisionPayload)
		assert.Equal(t, "no capacity", payload.Reason)
	}
	f.requests.AssertExpectations(t)
}

func TestRequestService_Decline_NoMeetingScheduled(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	declined := pendingRequest()
	declined.Status = models.RequestStatusDeclined

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.requests.On("Decline", ctx, "req-1", "").Return(declined, nil).Once()
	f.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.Decline(ctx, mentorActor(), "req-1", &models.DeclineRequestPayload{})

	assert.NoError(t, err)
	f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestService_Cancel_MenteeOnly(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()

	_, err := f.service.Cancel(ctx, mentorActor(), "req-1")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))
	f.requests.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestRequestService_Cancel_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	cancelled := pendingRequest()
	cancelled.Status = models.RequestStatusCancelled

	f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
	f.requests.On("Cancel", ctx, "req-1").Return(cancelled, nil).Once()

	result, err := f.service.Cancel(ctx, menteeActor(), "req-1")

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, result.Status)
	f.requests.AssertExpectations(t)
}

func TestRequestService_ListForActor_MentorSeesIncoming(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()
	actor := mentorActor()

	statuses := []models.RequestStatus{models.RequestStatusPending}
	f.requests.On("GetByMentor", ctx, actor.UserID, statuses).
		Return([]*models.MentoringRequest{pendingRequest()}, nil).Once()

	response, err := f.service.ListForActor(ctx, actor, statuses)

	assert.NoError(t, err)
	assert.Equal(t, 1, response.Total)
	f.requests.AssertExpectations(t)
	f.requests.AssertNotCalled(t, "GetByMentee", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestService_ListForActor_DefaultsToAllStatuses(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()
	actor := menteeActor()

	f.requests.On("GetByMentee", ctx, actor.UserID, mock.MatchedBy(func(statuses []models.RequestStatus) bool {
		return len(statuses) == 4
	})).Return([]*models.MentoringRequest{}, nil).Once()

	response, err := f.service.ListForActor(ctx, actor, nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, response.Total)
	assert.NotNil(t, response.Requests)
	f.requests.AssertExpectations(t)
}
