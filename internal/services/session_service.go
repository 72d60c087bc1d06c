package services

import (
	"context"
	"encoding/json"
	"fmt"
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
	"github.com/mentorhub/mentorhub-api/pkg/storage"
	"github.com/mentorhub/mentorhub-api/pkg/trigger"
	"go.uber.org/zap"
)

// SessionServiceInterface defines the interface for the session lifecycle
type SessionServiceInterface interface {
	Book(ctx context.Context, actor models.Actor, payload *models.BookSessionPayload) (*models.MentoringSession, error)
	Create(ctx context.Context, actor models.Actor, payload *models.CreateSessionPayload) (*models.MentoringSession, error)
	GetByID(ctx context.Context, actor models.Actor, sessionID string) (*models.MentoringSession, error)
	List(ctx context.Context, actor models.Actor, statuses []models.SessionStatus) (*models.SessionsResponse, error)
	Start(ctx context.Context, actor models.Actor, sessionID string) (*models.MentoringSession, error)
	End(ctx context.Context, actor models.Actor, sessionID string, payload *models.EndSessionPayload) (*models.MentoringSession, error)
	Cancel(ctx context.Context, actor models.Actor, sessionID string, payload *models.CancelSessionPayload) (*models.MentoringSession, error)
	Reschedule(ctx context.Context, actor models.Actor, sessionID string, payload *models.RescheduleSessionPayload) (*models.MentoringSession, error)
	Update(ctx context.Context, actor models.Actor, sessionID string, update *models.SessionUpdate) (*models.MentoringSession, error)
}

// SessionService implements the mentoring session lifecycle. The store owns
// the double-booking guarantee; the service owns authorization, transition
// legality, pricing and the event side effects.
type SessionService struct {
	sessions      repository.SessionRepositoryInterface
	users         repository.UserRepositoryInterface
	relationships repository.RelationshipRepositoryInterface
	notifications repository.NotificationRepositoryInterface
	events        repository.ScheduledEventRepositoryInterface
	publisher     realtime.Publisher
	meetings      meeting.ReferenceGenerator
	recaps        storage.ObjectStore
	httpClient    httpclient.Client
	cfg           *config.Config
}

// NewSessionService creates a new session service. recaps may be nil when
// object storage is not configured; completed sessions then skip archiving.
func NewSessionService(
	sessions repository.SessionRepositoryInterface,
	users repository.UserRepositoryInterface,
	relationships repository.RelationshipRepositoryInterface,
	notifications repository.NotificationRepositoryInterface,
	events repository.ScheduledEventRepositoryInterface,
	publisher realtime.Publisher,
	meetings meeting.ReferenceGenerator,
	recaps storage.ObjectStore,
	httpClient httpclient.Client,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		sessions:      sessions,
		users:         users,
		relationships: relationships,
		notifications: notifications,
		events:        events,
		publisher:     publisher,
		meetings:      meetings,
		recaps:        recaps,
		httpClient:    httpClient,
		cfg:           cfg,
	}
}

// Book creates a session on behalf of a mentee. Booking requires an active
// relationship with the mentor; mentees cannot book strangers.
func (s *SessionService) Book(ctx context.Context, actor models.Actor, payload *models.BookSessionPayload) (*models.MentoringSession, error) {
	if actor.Role != models.RoleMentee {
		return nil, apperrors.AccessDeniedError("only mentees book sessions")
	}
	if !payload.ScheduledAt.After(time.Now()) {
		return nil, apperrors.InvalidInputError("scheduledAt", "must be in the future")
	}

	mentor, err := s.users.GetByID(ctx, payload.MentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Role != models.RoleMentor {
		return nil, apperrors.InvalidInputError("mentorId", "target user is not a mentor")
	}

	if _, err := s.relationships.GetActiveByPair(ctx, payload.MentorID, actor.UserID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("no active relationship with mentor: %w", apperrors.ErrRelationshipRequired)
		}
		return nil, err
	}

	session := &models.MentoringSession{
		MentorID:        payload.MentorID,
		MenteeID:        actor.UserID,
		Title:           payload.Title,
		Description:     payload.Description,
		ScheduledAt:     payload.ScheduledAt,
		DurationMinutes: payload.DurationMinutes,
		Amount:          models.SessionAmount(mentor.EffectiveHourlyRate(s.cfg.Platform.DefaultHourlyRate), payload.DurationMinutes),
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		metrics.SessionsBooked.WithLabelValues("mentee", "rejected").Inc()
		return nil, err
	}
	metrics.SessionsBooked.WithLabelValues("mentee", "created").Inc()

	s.notify(ctx, created.MentorID, models.NotificationTypeSessionBooked,
		"Session booked",
		actor.Name+" has booked a session: "+created.Title,
		map[string]any{"sessionId": created.ID})
	s.scheduleMeetingStart(ctx, created)

	logger.Info("session booked",
		zap.String("session_id", created.ID),
		zap.String("mentee_id", actor.UserID),
		zap.String("mentor_id", created.MentorID))

	return created, nil
}

// Create creates a session on behalf of a mentor. Mentors are trusted to
// schedule with any mentee; no relationship gate applies on this side.
func (s *SessionService) Create(ctx context.Context, actor models.Actor, payload *models.CreateSessionPayload) (*models.MentoringSession, error) {
	if actor.Role != models.RoleMentor {
		return nil, apperrors.AccessDeniedError("only mentors create sessions directly")
	}
	if !payload.ScheduledAt.After(time.Now()) {
		return nil, apperrors.InvalidInputError("scheduledAt", "must be in the future")
	}

	mentee, err := s.users.GetByID(ctx, payload.MenteeID)
	if err != nil {
		return nil, err
	}
	if mentee.Role != models.RoleMentee {
		return nil, apperrors.InvalidInputError("menteeId", "target user is not a mentee")
	}

	mentor, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	session := &models.MentoringSession{
		MentorID:        actor.UserID,
		MenteeID:        payload.MenteeID,
		Title:           payload.Title,
		Description:     payload.Description,
		ScheduledAt:     payload.ScheduledAt,
		DurationMinutes: payload.DurationMinutes,
		Amount:          models.SessionAmount(mentor.EffectiveHourlyRate(s.cfg.Platform.DefaultHourlyRate), payload.DurationMinutes),
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		metrics.SessionsBooked.WithLabelValues("mentor", "rejected").Inc()
		return nil, err
	}
	metrics.SessionsBooked.WithLabelValues("mentor", "created").Inc()

	s.notify(ctx, created.MenteeID, models.NotificationTypeSessionBooked,
		"Session scheduled",
		actor.Name+" has scheduled a session: "+created.Title,
		map[string]any{"sessionId": created.ID})
	s.scheduleMeetingStart(ctx, created)

	return created, nil
}

// GetByID returns a session visible to the actor. Non-participants see
// not-found.
func (s *SessionService) GetByID(ctx context.Context, actor models.Actor, sessionID string) (*models.MentoringSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actor.UserID) && actor.Role != models.RoleAdmin {
		return nil, apperrors.NotFoundError("session")
	}
	return session, nil
}

// List lists the actor's sessions. An empty status filter means all
// statuses.
func (s *SessionService) List(ctx context.Context, actor models.Actor, statuses []models.SessionStatus) (*models.SessionsResponse, error) {
	if len(statuses) == 0 {
		statuses = []models.SessionStatus{
			models.SessionStatusUpcoming,
			models.SessionStatusInProgress,
			models.SessionStatusCompleted,
			models.SessionStatusCancelled,
		}
	}

	sessions, err := s.sessions.ListByUser(ctx, actor.UserID, statuses)
	if err != nil {
		return nil, err
	}

	response := &models.SessionsResponse{
		Sessions: make([]models.MentoringSession, 0, len(sessions)),
		Total:    len(sessions),
	}
	for _, session := range sessions {
		response.Sessions = append(response.Sessions, *session)
	}
	return response, nil
}

// Start moves an upcoming session to in_progress. Either participant may
// start it.
func (s *SessionService) Start(ctx context.Context, actor models.Actor, sessionID string) (*models.MentoringSession, error) {
	session, err := s.authorizeTransition(ctx, actor, sessionID, models.SessionStatusInProgress)
	if err != nil {
		return nil, err
	}

	started, err := s.sessions.Start(ctx, sessionID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.SessionTransitions.WithLabelValues(string(session.Status), string(started.Status)).Inc()

	s.publishSessionUpdate(started, actor.UserID, "")

	return started, nil
}

// End moves an in-progress session to completed, storing the wrap-up notes
// and summary. The recap archive and the completion webhook run after the
// commit and never affect the outcome.
func (s *SessionService) End(ctx context.Context, actor models.Actor, sessionID string, payload *models.EndSessionPayload) (*models.MentoringSession, error) {
	session, err := s.authorizeTransition(ctx, actor, sessionID, models.SessionStatusCompleted)
	if err != nil {
		return nil, err
	}

	completed, err := s.sessions.Complete(ctx, sessionID, time.Now(), payload.Notes, payload.Summary)
	if err != nil {
		return nil, err
	}
	metrics.SessionTransitions.WithLabelValues(string(session.Status), string(completed.Status)).Inc()

	s.publishSessionUpdate(completed, actor.UserID, "")
	s.archiveRecap(completed)

	trigger.CallAsync(s.cfg.EventTriggers.SessionCompletedTriggerURL, completed.ID, s.httpClient)

	logger.Info("session completed",
		zap.String("session_id", completed.ID),
		zap.String("ended_by", actor.UserID))

	return completed, nil
}

// Cancel moves an active session to cancelled, releasing its interval for
// new bookings and dropping any queued meeting announcement
func (s *SessionService) Cancel(ctx context.Context, actor models.Actor, sessionID string, payload *models.CancelSessionPayload) (*models.MentoringSession, error) {
	session, err := s.authorizeTransition(ctx, actor, sessionID, models.SessionStatusCancelled)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.sessions.Cancel(ctx, sessionID, payload.Reason)
	if err != nil {
		return nil, err
	}
	metrics.SessionTransitions.WithLabelValues(string(session.Status), string(cancelled.Status)).Inc()

	s.dropMeetingStart(ctx, sessionID)
	s.publishSessionUpdate(cancelled, actor.UserID, payload.Reason)
	s.notify(ctx, otherParty(cancelled, actor.UserID), models.NotificationTypeSessionUpdate,
		"Session cancelled",
		actor.Name+" has cancelled the session: "+cancelled.Title,
		map[string]any{"sessionId": cancelled.ID, "reason": payload.Reason})

	return cancelled, nil
}

// Reschedule moves an upcoming session to a new start instant. The store
// re-runs the overlap check for both parties against the new interval.
func (s *SessionService) Reschedule(ctx context.Context, actor models.Actor, sessionID string, payload *models.RescheduleSessionPayload) (*models.MentoringSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actor.UserID) {
		return nil, apperrors.AccessDeniedError("only participants reschedule a session")
	}
	if session.Status != models.SessionStatusUpcoming {
		return nil, apperrors.InvalidStateError("session", string(session.Status), string(models.SessionStatusUpcoming))
	}
	if !payload.ScheduledAt.After(time.Now()) {
		return nil, apperrors.InvalidInputError("scheduledAt", "must be in the future")
	}

	rescheduled, err := s.sessions.Reschedule(ctx, sessionID, payload.ScheduledAt, payload.Reason)
	if err != nil {
		return nil, err
	}

	s.dropMeetingStart(ctx, sessionID)
	s.scheduleMeetingStart(ctx, rescheduled)
	s.publishSessionUpdate(rescheduled, actor.UserID, payload.Reason)
	s.notify(ctx, otherParty(rescheduled, actor.UserID), models.NotificationTypeSessionUpdate,
		"Session rescheduled",
		actor.Name+" has moved the session: "+rescheduled.Title,
		map[string]any{"sessionId": rescheduled.ID, "scheduledAt": rescheduled.ScheduledAt})

	return rescheduled, nil
}

// Update applies a typed partial update. The SessionUpdate struct is the
// whole allow-list; anything it cannot express cannot change here. Schedule
// edits require the session to still be upcoming.
func (s *SessionService) Update(ctx context.Context, actor models.Actor, sessionID string, update *models.SessionUpdate) (*models.MentoringSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actor.UserID) {
		return nil, apperrors.AccessDeniedError("only participants update a session")
	}
	if session.Status.IsTerminal() {
		return nil, apperrors.InvalidStateError("session", string(session.Status), "")
	}
	if update.IsEmpty() {
		return session, nil
	}

	timingChange := update.ScheduledAt != nil || update.DurationMinutes != nil
	if timingChange && session.Status != models.SessionStatusUpcoming {
		return nil, apperrors.InvalidStateError("session", string(session.Status), string(models.SessionStatusUpcoming))
	}
	if update.ScheduledAt != nil && !update.ScheduledAt.After(time.Now()) {
		return nil, apperrors.InvalidInputError("scheduledAt", "must be in the future")
	}

	updated, err := s.sessions.Update(ctx, sessionID, update)
	if err != nil {
		return nil, err
	}

	if timingChange {
		s.dropMeetingStart(ctx, sessionID)
		s.scheduleMeetingStart(ctx, updated)
	}
	s.publishSessionUpdate(updated, actor.UserID, "")

	return updated, nil
}

// authorizeTransition fetches the session and verifies the actor may move
// it to the target status. The conditional update in the store re-checks the
// status, so a stale read here cannot produce an illegal transition.
func (s *SessionService) authorizeTransition(ctx context.Context, actor models.Actor, sessionID string, target models.SessionStatus) (*models.MentoringSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actor.UserID) {
		return nil, apperrors.AccessDeniedError("only participants manage a session")
	}
	if !session.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidStateError("session", string(session.Status), string(target))
	}
	return session, nil
}

// publishSessionUpdate pushes the state change to the counterparty only;
// the acting user already holds the response
func (s *SessionService) publishSessionUpdate(session *models.MentoringSession, updatedBy, reason string) {
	s.publisher.PublishToUser(otherParty(session, updatedBy), models.RealtimeEvent{
		Type: models.EventTypeSessionUpdate,
		Payload: models.SessionUpdatePayload{
			SessionID: session.ID,
			MentorID:  session.MentorID,
			MenteeID:  session.MenteeID,
			Status:    session.Status,
			UpdatedBy: updatedBy,
			Reason:    reason,
		},
	})
}

// scheduleMeetingStart persists the deferred meeting:start announcement due
// at the session's scheduled instant
func (s *SessionService) scheduleMeetingStart(ctx context.Context, session *models.MentoringSession) {
	payload := models.MeetingStartPayload{
		SessionID:   session.ID,
		MentorID:    session.MentorID,
		MenteeID:    session.MenteeID,
		ScheduledAt: session.ScheduledAt,
		JoinURL:     s.meetings.JoinURL(s.meetings.NewReference()),
	}

	_, err := s.events.Create(ctx, models.EventTypeMeetingStart,
		[]string{session.MentorID, session.MenteeID}, payload, session.ScheduledAt)
	if err != nil {
		metrics.ScheduledEventsPublished.WithLabelValues(models.EventTypeMeetingStart, "schedule_failed").Inc()
		logger.Error("failed to schedule meeting start event",
			zap.String("session_id", session.ID), zap.Error(err))
	}
}

// dropMeetingStart cancels any not-yet-published meeting announcement for
// the session
func (s *SessionService) dropMeetingStart(ctx context.Context, sessionID string) {
	cancelled, err := s.events.CancelByPayloadField(ctx, models.EventTypeMeetingStart, "sessionId", sessionID)
	if err != nil {
		logger.Error("failed to drop scheduled meeting event",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if cancelled > 0 {
		metrics.ScheduledEventsPublished.WithLabelValues(models.EventTypeMeetingStart, "cancelled").Add(float64(cancelled))
	}
}

// archiveRecap writes the completed session's recap to object storage in
// the background
func (s *SessionService) archiveRecap(session *models.MentoringSession) {
	if s.recaps == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		body, err := json.Marshal(session)
		if err != nil {
			logger.Error("failed to encode session recap",
				zap.String("session_id", session.ID), zap.Error(err))
			return
		}

		key := fmt.Sprintf("recaps/%s/%s.json", session.MentorID, session.ID)
		url, err := s.recaps.PutObject(ctx, key, body, "application/json")
		if err != nil {
			logger.Error("failed to archive session recap",
				zap.String("session_id", session.ID), zap.Error(err))
			return
		}

		logger.Info("session recap archived",
			zap.String("session_id", session.ID),
			zap.String("url", url))
	}()
}

// notify writes a durable notification; failures are logged, never
// propagated into the lifecycle operation
func (s *SessionService) notify(ctx context.Context, userID, notificationType, title, message string, data map[string]any) {
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

func otherParty(session *models.MentoringSession, userID string) string {
	if session.MentorID == userID {
		return session.MenteeID
	}
	return session.MentorID
}

var _ SessionServiceInterface = (*SessionService)(nil)
