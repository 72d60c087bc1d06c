package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const requestColumns = `id, mentee_id, mentor_id, message, goals, preferred_schedule, status, decline_reason, created_at, updated_at, status_changed_at`

// activePairConstraint is the partial unique index guaranteeing at most one
// active request per (mentor, mentee) pair
const activePairConstraint = "uq_mentoring_requests_active_pair"

// RequestRepositoryInterface defines the interface for mentoring request
// data access
type RequestRepositoryInterface interface {
	CreatePending(ctx context.Context, req *models.MentoringRequest) (string, error)
	GetByID(ctx context.Context, id string) (*models.MentoringRequest, error)
	GetByMentor(ctx context.Context, mentorID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error)
	GetByMentee(ctx context.Context, menteeID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error)
	Accept(ctx context.Context, requestID string) (*models.MentoringRequest, error)
	Decline(ctx context.Context, requestID string, reason string) (*models.MentoringRequest, error)
	Cancel(ctx context.Context, requestID string) (*models.MentoringRequest, error)
}

// RequestRepository handles mentoring request data access
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new mentoring request repository
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{
		pool: pool,
	}
}

// CreatePending inserts a new request in pending status and returns its id.
// The partial unique index on active (mentor, mentee) pairs makes the
// no-active-duplicate check and the insert effectively atomic: a concurrent
// duplicate loses with a unique violation, which is surfaced as
// ErrDuplicateRequest.
func (r *RequestRepository) CreatePending(ctx context.Context, req *models.MentoringRequest) (string, error) {
	start := time.Now()
	operation := "createMentoringRequest"

	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO mentoring_requests (mentee_id, mentor_id, message, goals, preferred_schedule, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		req.MenteeID,
		req.MentorID,
		req.Message,
		nilIfEmpty(req.Goals),
		nilIfEmpty(req.PreferredSchedule),
		models.RequestStatusPending,
	).Scan(&id)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		if isUniqueViolation(err, activePairConstraint) {
			recordMetrics(operation, "duplicate", duration)
			return "", fmt.Errorf("active request already exists for pair: %w", apperrors.ErrDuplicateRequest)
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return "", fmt.Errorf("failed to create mentoring request: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration)

	return id, nil
}

// GetByID retrieves a single request by id
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.MentoringRequest, error) {
	start := time.Now()
	operation := "getMentoringRequestByID"

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM mentoring_requests WHERE id = $1`, requestColumns),
		id)

	request, err := models.ScanMentoringRequest(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("request")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch mentoring request: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return request, nil
}

// GetByMentor retrieves all requests targeting a mentor filtered by statuses
func (r *RequestRepository) GetByMentor(ctx context.Context, mentorID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error) {
	return r.getByParty(ctx, "getMentoringRequestsByMentor", "mentor_id", mentorID, statuses)
}

// GetByMentee retrieves all requests submitted by a mentee filtered by statuses
func (r *RequestRepository) GetByMentee(ctx context.Context, menteeID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error) {
	return r.getByParty(ctx, "getMentoringRequestsByMentee", "mentee_id", menteeID, statuses)
}

func (r *RequestRepository) getByParty(ctx context.Context, operation, column, userID string, statuses []models.RequestStatus) ([]*models.MentoringRequest, error) {
	start := time.Now()

	query := fmt.Sprintf(`
		SELECT %s FROM mentoring_requests
		WHERE %s = $1 AND status = ANY($2)
		ORDER BY created_at DESC`, requestColumns, column)

	statusStrings := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusStrings = append(statusStrings, string(s))
	}

	rows, err := r.pool.Query(ctx, query, userID, statusStrings)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch mentoring requests: %w", err)
	}

	requests, err := models.ScanMentoringRequests(rows)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to scan mentoring requests: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return requests, nil
}

// Accept atomically flips a pending request to accepted and ensures the
// corresponding relationship row exists in active status. Both writes commit
// together or not at all. The status flip is conditioned on the request
// still being pending (compare-and-swap), so a concurrent accept or decline
// resolves to exactly one winner; the loser sees ErrInvalidState.
func (r *RequestRepository) Accept(ctx context.Context, requestID string) (*models.MentoringRequest, error) {
	start := time.Now()
	operation := "acceptMentoringRequest"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE mentoring_requests
		SET status = $2, updated_at = now(), status_changed_at = now()
		WHERE id = $1 AND status = $3
		RETURNING %s`, requestColumns),
		requestID, models.RequestStatusAccepted, models.RequestStatusPending)

	request, err := models.ScanMentoringRequest(row)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the CAS: the request no longer exists or is no longer
			// pending. Classify for the caller.
			recordMetrics(operation, "conflict", duration)
			return nil, r.classifyMissedUpdate(ctx, requestID)
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to accept mentoring request: %w", err)
	}

	// Relationship upsert: no duplicate row for an already-paired couple
	_, err = tx.Exec(ctx, `
		INSERT INTO relationships (mentor_id, mentee_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT uq_relationships_pair DO NOTHING`,
		request.MentorID, request.MenteeID, models.RelationshipStatusActive)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to ensure relationship: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration)

	return request, nil
}

// Decline flips a pending request to declined with an optional reason
func (r *RequestRepository) Decline(ctx context.Context, requestID string, reason string) (*models.MentoringRequest, error) {
	start := time.Now()
	operation := "declineMentoringRequest"

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE mentoring_requests
		SET status = $2, decline_reason = $3, updated_at = now(), status_changed_at = now()
		WHERE id = $1 AND status = $4
		RETURNING %s`, requestColumns),
		requestID, models.RequestStatusDeclined, nilIfEmpty(reason), models.RequestStatusPending)

	request, err := models.ScanMentoringRequest(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "conflict", duration)
			return nil, r.classifyMissedUpdate(ctx, requestID)
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to decline mentoring request: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return request, nil
}

// Cancel flips a pending request to cancelled (requester-initiated)
func (r *RequestRepository) Cancel(ctx context.Context, requestID string) (*models.MentoringRequest, error) {
	start := time.Now()
	operation := "cancelMentoringRequest"

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE mentoring_requests
		SET status = $2, updated_at = now(), status_changed_at = now()
		WHERE id = $1 AND status = $3
		RETURNING %s`, requestColumns),
		requestID, models.RequestStatusCancelled, models.RequestStatusPending)

	request, err := models.ScanMentoringRequest(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "conflict", duration)
			return nil, r.classifyMissedUpdate(ctx, requestID)
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to cancel mentoring request: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return request, nil
}

// classifyMissedUpdate distinguishes "request gone" from "request no longer
// pending" after a conditional update matched zero rows
func (r *RequestRepository) classifyMissedUpdate(ctx context.Context, requestID string) error {
	var status models.RequestStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM mentoring_requests WHERE id = $1`,
		requestID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundError("request")
		}
		return fmt.Errorf("failed to classify request state: %w", err)
	}
	return apperrors.InvalidStateError("request", string(status), "")
}

var _ RequestRepositoryInterface = (*RequestRepository)(nil)
