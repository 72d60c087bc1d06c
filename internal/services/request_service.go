package services

import (
	"context"
	"time"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/realtime"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/meeting"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/trigger"
	"go.uber.org/zap"
)

// RequestServiceInterface defines the interface for the mentoring request
// lifecycle
type RequestServiceInterface interface {
	Submit(ctx context.Context, actor models.Actor, payload *models.SubmitRequestPayload) (*models.MentoringRequest, error)
	GetByID(ctx context.Context, actor models.Actor, requestID string) (*models.MentoringRequest, error)
	ListForActor(ctx context.Context, actor models.Actor, statuses []models.RequestStatus) (*models.RequestsResponse, error)
	Accept(ctx context.Context, actor models.Actor, requestID string, payload *models.AcceptRequestPayload) (*models.MentoringRequest, error)
	Decline(ctx context.Context, actor models.Actor, requestID string, payload *models.DeclineRequestPayload) (*models.MentoringRequest, error)
	Cancel(ctx context.Context, actor models.Actor, requestID string) (*models.MentoringRequest, error)
}

// RequestService implements the mentoring request lifecycle: a mentee
// solicits a mentor, the mentor decides, and an accepted request yields a
// relationship plus a deferred meeting announcement.
type RequestService struct {
	requests      repository.RequestRepositoryInterface
	users         repository.UserRepositoryInterface
	notifications repository.NotificationRepositoryInterface
	events        repository.ScheduledEventRepositoryInterface
	publisher     realtime.Publisher
	meetings      meeting.ReferenceGenerator
	httpClient    httpclient.Client
	cfg           *config.Config
}

// NewRequestService creates a new mentoring request service
func NewRequestService(
	requests repository.RequestRepositoryInterface,
	users repository.UserRepositoryInterface,
	notifications repository.NotificationRepositoryInterface,
	events repository.ScheduledEventRepositoryInterface,
	publisher realtime.Publisher,
	meetings meeting.ReferenceGenerator,
	httpClient httpclient.Client,
	cfg *config.Config,
) *RequestService {
	return &RequestService{
		requests:      requests,
		users:         users,
		notifications: notifications,
		events:        events,
		publisher:     publisher,
		meetings:      meetings,
		httpClient:    httpClient,
		cfg:           cfg,
	}
}

// Submit creates a pending request from the acting mentee to a mentor. The
// store's partial unique index rejects a second active request for the same
// pair, including under concurrency.
func (s *RequestService) Submit(ctx context.Context, actor models.Actor, payload *models.SubmitRequestPayload) (*models.MentoringRequest, error) {
	if actor.Role != models.RoleMentee {
		return nil, apperrors.AccessDeniedError("only mentees submit mentoring requests")
	}
	if payload.MentorID == actor.UserID {
		return nil, apperrors.InvalidInputError("mentorId", "cannot request mentoring from yourself")
	}

	mentor, err := s.users.GetByID(ctx, payload.MentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Role != models.RoleMentor {
		return nil, apperrors.InvalidInputError("mentorId", "target user is not a mentor")
	}

	request := &models.MentoringRequest{
		MenteeID:          actor.UserID,
		MentorID:          payload.MentorID,
		Message:           payload.Message,
		Goals:             payload.Goals,
		PreferredSchedule: payload.PreferredSchedule,
	}

	id, err := s.requests.CreatePending(ctx, request)
	if err != nil {
		metrics.RequestsSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.RequestsSubmitted.WithLabelValues("created").Inc()

	created, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, mentor.ID, models.NotificationTypeRequestReceived,
		"New mentoring request",
		actor.Name+" has requested your mentorship",
		map[string]any{"requestId": created.ID, "menteeId": actor.UserID})

	logger.Info("mentoring request submitted",
		zap.String("request_id", created.ID),
		zap.String("mentee_id", actor.UserID),
		zap.String("mentor_id", payload.MentorID))

	return created, nil
}

// GetByID returns a request visible to the actor. Only the two parties (and
// admins) may read it; outsiders see not-found rather than access-denied so
// the endpoint does not leak request existence.
func (s *RequestService) GetByID(ctx context.Context, actor models.Actor, requestID string) (*models.MentoringRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != request.MentorID && actor.UserID != request.MenteeID && actor.Role != models.RoleAdmin {
		return nil, apperrors.NotFoundError("request")
	}
	return request, nil
}

// ListForActor lists the actor's requests: incoming for mentors, outgoing
// for mentees. An empty status filter means all statuses.
func (s *RequestService) ListForActor(ctx context.Context, actor models.Actor, statuses []models.RequestStatus) (*models.RequestsResponse, error) {
	if len(statuses) == 0 {
		statuses = []models.RequestStatus{
			models.RequestStatusPending,
			models.RequestStatusAccepted,
			models.RequestStatusDeclined,
			models.RequestStatusCancelled,
		}
	}

	var (
		requests []*models.MentoringRequest
		err      error
	)
	if actor.Role == models.RoleMentor {
		requests, err = s.requests.GetByMentor(ctx, actor.UserID, statuses)
	} else {
		requests, err = s.requests.GetByMentee(ctx, actor.UserID, statuses)
	}
	if err != nil {
		return nil, err
	}

	response := &models.RequestsResponse{
		Requests: make([]models.MentoringRequest, 0, len(requests)),
		Total:    len(requests),
	}
	for _, r := range requests {
		response.Requests = append(response.Requests, *r)
	}
	return response, nil
}

// Accept resolves a pending request in the mentor's favor. The store flips
// the status and creates the relationship in one transaction; losing a race
// against another decision surfaces as an invalid-state error, never a
// silent second win.
func (s *RequestService) Accept(ctx context.Context, actor models.Actor, requestID string, payload *models.AcceptRequestPayload) (*models.MentoringRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != request.MentorID {
		return nil, apperrors.AccessDeniedError("only the requested mentor decides a request")
	}
	if !request.Status.CanTransitionTo(models.RequestStatusAccepted) {
		return nil, apperrors.InvalidStateError("request", string(request.Status), string(models.RequestStatusAccepted))
	}

	accepted, err := s.requests.Accept(ctx, requestID)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecisions.WithLabelValues("accepted").Inc()

	s.publishDecision(accepted, actor.UserID, "")
	s.notify(ctx, accepted.MenteeID, models.NotificationTypeRequestDecision,
		"Request accepted",
		actor.Name+" has accepted your mentoring request",
		map[string]any{"requestId": accepted.ID, "status": string(accepted.Status)})

	s.scheduleMeeting(ctx, accepted, payload.MeetingAt)

	trigger.CallAsync(s.cfg.EventTriggers.RequestDecisionTriggerURL, accepted.ID, s.httpClient)

	logger.Info("mentoring request accepted",
		zap.String("request_id", accepted.ID),
		zap.String("mentor_id", actor.UserID))

	return accepted, nil
}

// Decline resolves a pending request against the mentee, with an optional
// reason stored and echoed in the decision event
func (s *RequestService) Decline(ctx context.Context, actor models.Actor, requestID string, payload *models.DeclineRequestPayload) (*models.MentoringRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != request.MentorID {
		return nil, apperrors.AccessDeniedError("only the requested mentor decides a request")
	}
	if !request.Status.CanTransitionTo(models.RequestStatusDeclined) {
		return nil, apperrors.InvalidStateError("request", string(request.Status), string(models.RequestStatusDeclined))
	}

	declined, err := s.requests.Decline(ctx, requestID, payload.Reason)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecisions.WithLabelValues("declined").Inc()

	s.publishDecision(declined, actor.UserID, payload.Reason)
	s.notify(ctx, declined.MenteeID, models.NotificationTypeRequestDecision,
		"Request declined",
		actor.Name+" has declined your mentoring request",
		map[string]any{"requestId": declined.ID, "status": string(declined.Status)})

	trigger.CallAsync(s.cfg.EventTriggers.RequestDecisionTriggerURL, declined.ID, s.httpClient)

	return declined, nil
}

// Cancel withdraws a pending request. Only the mentee who submitted it may
// cancel; the mentor's path out is declining.
func (s *RequestService) Cancel(ctx context.Context, actor models.Actor, requestID string) (*models.MentoringRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != request.MenteeID {
		return nil, apperrors.AccessDeniedError("only the requester cancels a request")
	}
	if !request.Status.CanTransitionTo(models.RequestStatusCancelled) {
		return nil, apperrors.InvalidStateError("request", string(request.Status), string(models.RequestStatusCancelled))
	}

	cancelled, err := s.requests.Cancel(ctx, requestID)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecisions.WithLabelValues("cancelled").Inc()

	s.publishDecision(cancelled, actor.UserID, "")

	return cancelled, nil
}

// publishDecision pushes the decision event to the mentee. Best-effort: an
// offline mentee still has the durable notification and the request row.
func (s *RequestService) publishDecision(request *models.MentoringRequest, decidedBy, reason string) {
	decidedAt := time.Now()
	if request.StatusChangedAt != nil {
		decidedAt = *request.StatusChangedAt
	}

	s.publisher.PublishToUser(request.MenteeID, models.RealtimeEvent{
		Type: models.EventTypeRequestDecision,
		Payload: models.RequestDecisionPayload{
			RequestID: request.ID,
			Status:    request.Status,
			DecidedBy: decidedBy,
			Reason:    reason,
			DecidedAt: decidedAt,
		},
	})
}

// scheduleMeeting persists the deferred meeting:start event for an accepted
// request. With no explicit meeting time the platform default delay applies.
// A failure here does not undo the accept; it is logged and the meeting can
// be arranged out of band.
func (s *RequestService) scheduleMeeting(ctx context.Context, request *models.MentoringRequest, meetingAt *time.Time) {
	dueAt := time.Now().Add(time.Duration(s.cfg.Platform.MeetingStartDelayMinutes) * time.Minute)
	if meetingAt != nil {
		dueAt = *meetingAt
	}

	payload := models.MeetingStartPayload{
		RequestID:   request.ID,
		MentorID:    request.MentorID,
		MenteeID:    request.MenteeID,
		ScheduledAt: dueAt,
		JoinURL:     s.meetings.JoinURL(s.meetings.NewReference()),
	}

	_, err := s.events.Create(ctx, models.EventTypeMeetingStart,
		[]string{request.MentorID, request.MenteeID}, payload, dueAt)
	if err != nil {
		metrics.ScheduledEventsPublished.WithLabelValues(models.EventTypeMeetingStart, "schedule_failed").Inc()
		logger.Error("failed to schedule meeting start event",
			zap.String("request_id", request.ID), zap.Error(err))
		return
	}

	logger.Info("meeting start event scheduled",
		zap.String("request_id", request.ID),
		zap.Time("due_at", dueAt))
}

// notify writes a durable notification; failures are logged, never
// propagated into the lifecycle operation
func (s *RequestService) notify(ctx context.Context, userID, notificationType, title, message string, data map[string]any) {
	err := s.notifications.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Data:    data,
	})
	if err != nil {
		logger.Error("failed to create notification",
			zap.String("user_id", userID),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}

var _ RequestServiceInterface = (*RequestService)(nil)
