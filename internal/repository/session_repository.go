package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const sessionColumns = `id, mentor_id, mentee_id, title, description, scheduled_at, duration_minutes, amount, status, actual_start_time, actual_end_time, notes, summary, status_reason, payment_status, created_at, updated_at`

// SessionRepositoryInterface defines the interface for mentoring session
// data access
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.MentoringSession) (*models.MentoringSession, error)
	GetByID(ctx context.Context, id string) (*models.MentoringSession, error)
	ListByUser(ctx context.Context, userID string, statuses []models.SessionStatus) ([]*models.MentoringSession, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.MentoringSession, error)
	Start(ctx context.Context, id string, startTime time.Time) (*models.MentoringSession, error)
	Complete(ctx context.Context, id string, endTime time.Time, notes, summary string) (*models.MentoringSession, error)
	Cancel(ctx context.Context, id string, reason string) (*models.MentoringSession, error)
	Reschedule(ctx context.Context, id string, scheduledAt time.Time, reason string) (*models.MentoringSession, error)
	Update(ctx context.Context, id string, update *models.SessionUpdate) (*models.MentoringSession, error)
}

// SessionRepository handles mentoring session data access. Booking and
// rescheduling run inside transactions that serialize on both participants,
// so two writers touching the same person's timeline cannot interleave
// between the overlap check and the write.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		pool: pool,
	}
}

// lockParticipants takes transaction-scoped advisory locks keyed on each
// participant id, in sorted order so concurrent transactions over the same
// pair acquire them in the same order and cannot deadlock.
func lockParticipants(ctx context.Context, tx pgx.Tx, ids ...string) error {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	for _, id := range sorted {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, id); err != nil {
			return fmt.Errorf("failed to lock participant %s: %w", id, err)
		}
	}
	return nil
}

// overlapExists checks whether any active session of the given participants
// overlaps the half-open interval [start, end), excluding excludeID when
// rescheduling a session against its own old slot.
func overlapExists(ctx context.Context, tx pgx.Tx, participantIDs []string, start, end time.Time, excludeID string) (bool, error) {
	statuses := make([]string, 0, len(models.ActiveSessionStatuses))
	for _, s := range models.ActiveSessionStatuses {
		statuses = append(statuses, string(s))
	}

	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE (mentor_id = ANY($1) OR mentee_id = ANY($1))
			  AND status = ANY($2)
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
			  AND scheduled_at < $5
			  AND scheduled_at + make_interval(mins => duration_minutes) > $4
		)`,
		participantIDs, statuses, nilIfEmpty(excludeID), start, end,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session overlap: %w", err)
	}
	return exists, nil
}

// Create books a session after verifying neither participant has an
// overlapping active session. The overlap check and the insert run in one
// transaction under advisory locks on both participants, closing the
// double-booking race.
func (r *SessionRepository) Create(ctx context.Context, session *models.MentoringSession) (*models.MentoringSession, error) {
	start := time.Now()
	operation := "createSession"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := lockParticipants(ctx, tx, session.MentorID, session.MenteeID); err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, err
	}

	conflict, err := overlapExists(ctx, tx,
		[]string{session.MentorID, session.MenteeID},
		session.ScheduledAt, session.ScheduledEnd(), "")
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, err
	}
	if conflict {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "conflict", duration)
		metrics.SchedulingConflicts.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("requested interval overlaps an active session: %w", apperrors.ErrSchedulingConflict)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO sessions (mentor_id, mentee_id, title, description, scheduled_at, duration_minutes, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, sessionColumns),
		session.MentorID,
		session.MenteeID,
		session.Title,
		nilIfEmpty(session.Description),
		session.ScheduledAt,
		session.DurationMinutes,
		session.Amount,
		models.SessionStatusUpcoming,
	)

	created, err := models.ScanMentoringSession(row)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration)

	return created, nil
}

// GetByID retrieves a single session by id
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.MentoringSession, error) {
	start := time.Now()
	operation := "getSessionByID"

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns),
		id)

	session, err := models.ScanMentoringSession(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("session")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return session, nil
}

// ListByUser retrieves sessions where the user participates as either party,
// filtered by statuses
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, statuses []models.SessionStatus) ([]*models.MentoringSession, error) {
	start := time.Now()
	operation := "listSessionsByUser"

	statusStrings := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusStrings = append(statusStrings, string(s))
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE (mentor_id = $1 OR mentee_id = $1) AND status = ANY($2)
		ORDER BY scheduled_at`, sessionColumns),
		userID, statusStrings)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	sessions, err := models.ScanMentoringSessions(rows)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return sessions, nil
}

// ListActiveByUser retrieves the user's upcoming and in-progress sessions,
// the set consulted for conflict checking
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.MentoringSession, error) {
	return r.ListByUser(ctx, userID, models.ActiveSessionStatuses)
}

// Start flips an upcoming session to in_progress and stamps the actual start
// time. Conditioned on the current status, so concurrent start and cancel
// resolve to one winner.
func (r *SessionRepository) Start(ctx context.Context, id string, startTime time.Time) (*models.MentoringSession, error) {
	return r.transition(ctx, "startSession", `
		UPDATE sessions
		SET status = $2, actual_start_time = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+sessionColumns,
		id, models.SessionStatusInProgress, startTime, models.SessionStatusUpcoming)
}

// Complete flips an in-progress session to completed with the wrap-up fields
func (r *SessionRepository) Complete(ctx context.Context, id string, endTime time.Time, notes, summary string) (*models.MentoringSession, error) {
	return r.transition(ctx, "completeSession", `
		UPDATE sessions
		SET status = $2, actual_end_time = $3, notes = COALESCE($4, notes), summary = COALESCE($5, summary), updated_at = now()
		WHERE id = $1 AND status = $6
		RETURNING `+sessionColumns,
		id, models.SessionStatusCompleted, endTime, nilIfEmpty(notes), nilIfEmpty(summary), models.SessionStatusInProgress)
}

// Cancel flips an active session to cancelled, releasing its interval
func (r *SessionRepository) Cancel(ctx context.Context, id string, reason string) (*models.MentoringSession, error) {
	statuses := make([]string, 0, len(models.ActiveSessionStatuses))
	for _, s := range models.ActiveSessionStatuses {
		statuses = append(statuses, string(s))
	}

	return r.transition(ctx, "cancelSession", `
		UPDATE sessions
		SET status = $2, status_reason = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+sessionColumns,
		id, models.SessionStatusCancelled, nilIfEmpty(reason), statuses)
}

func (r *SessionRepository) transition(ctx context.Context, operation, query string, args ...any) (*models.MentoringSession, error) {
	start := time.Now()

	row := r.pool.QueryRow(ctx, query, args...)

	session, err := models.ScanMentoringSession(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "conflict", duration)
			return nil, r.classifyMissedTransition(ctx, args[0].(string))
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return session, nil
}

// Reschedule moves an upcoming session to a new start instant, re-running
// the overlap check for both participants with the session's own old slot
// excluded.
func (r *SessionRepository) Reschedule(ctx context.Context, id string, scheduledAt time.Time, reason string) (*models.MentoringSession, error) {
	start := time.Now()
	operation := "rescheduleSession"

	session, err := r.updateTimed(ctx, operation, id, func(current *models.MentoringSession) (string, []any) {
		return `
			UPDATE sessions
			SET scheduled_at = $2, status_reason = $3, updated_at = now()
			WHERE id = $1 AND status = $4
			RETURNING ` + sessionColumns, []any{
			id, scheduledAt, nilIfEmpty(reason), models.SessionStatusUpcoming,
		}
	}, func(current *models.MentoringSession) (time.Time, time.Time) {
		return scheduledAt, scheduledAt.Add(time.Duration(current.DurationMinutes) * time.Minute)
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		if errors.Is(err, apperrors.ErrSchedulingConflict) {
			recordMetrics(operation, "conflict", duration)
			metrics.SchedulingConflicts.WithLabelValues(operation).Inc()
		}
		return nil, err
	}

	recordMetrics(operation, "success", duration)
	return session, nil
}

// Update applies a typed partial update. When the update touches the
// schedule, the overlap check re-runs under the same locking as booking.
func (r *SessionRepository) Update(ctx context.Context, id string, update *models.SessionUpdate) (*models.MentoringSession, error) {
	start := time.Now()
	operation := "updateSession"

	if update.ScheduledAt == nil && update.DurationMinutes == nil {
		// No timing change: a plain conditional update suffices
		return r.transition(ctx, operation, `
			UPDATE sessions
			SET title = COALESCE($2, title),
			    description = COALESCE($3, description),
			    notes = COALESCE($4, notes),
			    updated_at = now()
			WHERE id = $1 AND status <> ALL($5)
			RETURNING `+sessionColumns,
			id, update.Title, update.Description, update.Notes,
			[]string{string(models.SessionStatusCompleted), string(models.SessionStatusCancelled)})
	}

	session, err := r.updateTimed(ctx, operation, id, func(current *models.MentoringSession) (string, []any) {
		return `
			UPDATE sessions
			SET title = COALESCE($2, title),
			    description = COALESCE($3, description),
			    notes = COALESCE($4, notes),
			    scheduled_at = COALESCE($5, scheduled_at),
			    duration_minutes = COALESCE($6, duration_minutes),
			    updated_at = now()
			WHERE id = $1 AND status = $7
			RETURNING ` + sessionColumns, []any{
			id, update.Title, update.Description, update.Notes,
			update.ScheduledAt, update.DurationMinutes, models.SessionStatusUpcoming,
		}
	}, func(current *models.MentoringSession) (time.Time, time.Time) {
		newStart := current.ScheduledAt
		if update.ScheduledAt != nil {
			newStart = *update.ScheduledAt
		}
		newDuration := current.DurationMinutes
		if update.DurationMinutes != nil {
			newDuration = *update.DurationMinutes
		}
		return newStart, newStart.Add(time.Duration(newDuration) * time.Minute)
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		if errors.Is(err, apperrors.ErrSchedulingConflict) {
			recordMetrics(operation, "conflict", duration)
			metrics.SchedulingConflicts.WithLabelValues(operation).Inc()
		}
		return nil, err
	}

	recordMetrics(operation, "success", duration)
	return session, nil
}

// updateTimed runs a schedule-affecting update in a transaction: lock both
// participants, re-check overlap against the new interval with the session
// itself excluded, then apply the conditional update.
func (r *SessionRepository) updateTimed(
	ctx context.Context,
	operation string,
	id string,
	buildQuery func(current *models.MentoringSession) (string, []any),
	newInterval func(current *models.MentoringSession) (time.Time, time.Time),
) (*models.MentoringSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns), id)
	current, err := models.ScanMentoringSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("session")
		}
		logger.LogAPICall("postgres", operation, "error", 0, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if err := lockParticipants(ctx, tx, current.MentorID, current.MenteeID); err != nil {
		return nil, err
	}

	newStart, newEnd := newInterval(current)
	conflict, err := overlapExists(ctx, tx,
		[]string{current.MentorID, current.MenteeID}, newStart, newEnd, id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fmt.Errorf("new interval overlaps an active session: %w", apperrors.ErrSchedulingConflict)
	}

	query, args := buildQuery(current)
	updated, err := models.ScanMentoringSession(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the status condition between the read and the update
			return nil, apperrors.InvalidStateError("session", string(current.Status), "")
		}
		logger.LogAPICall("postgres", operation, "error", 0, zap.Error(err))
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session update: %w", err)
	}

	return updated, nil
}

// classifyMissedTransition distinguishes "session gone" from "session in a
// state that forbids this transition" after a conditional update matched
// zero rows
func (r *SessionRepository) classifyMissedTransition(ctx context.Context, sessionID string) error {
	var status models.SessionStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM sessions WHERE id = $1`,
		sessionID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundError("session")
		}
		return fmt.Errorf("failed to classify session state: %w", err)
	}
	return apperrors.InvalidStateError("session", string(status), "")
}

var _ SessionRepositoryInterface = (*SessionRepository)(nil)
