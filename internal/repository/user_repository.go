package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const userColumns = `id, name, email, role, hourly_rate, availability, created_at, updated_at, deleted_at`

// UserRepositoryInterface defines the interface for user data access
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (string, error)
	UpdateAvailability(ctx context.Context, id string, availability string) error
	UpdateHourlyRate(ctx context.Context, id string, hourlyRate float64) error
}

// UserRepository handles user data access with a read-through cache for
// profile lookups (the session amount computation reads mentor rates on
// every booking).
type UserRepository struct {
	pool      *pgxpool.Pool
	userCache *cache.UserCache
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool, userCache *cache.UserCache) *UserRepository {
	return &UserRepository{
		pool:      pool,
		userCache: userCache,
	}
}

// GetByID retrieves a user by id, serving from cache when possible
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if r.userCache != nil {
		if user, ok := r.userCache.Get(id); ok {
			return user, nil
		}
	}

	start := time.Now()
	operation := "getUserByID"

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userColumns),
		id)

	user, err := models.ScanUser(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("user")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	recordMetrics(operation, "success", duration)

	if r.userCache != nil {
		r.userCache.Set(user)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	operation := "getUserByEmail"

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND deleted_at IS NULL`, userColumns),
		email)

	user, err := models.ScanUser(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("user")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return user, nil
}

// Create inserts a new user and returns its id
func (r *UserRepository) Create(ctx context.Context, user *models.User) (string, error) {
	start := time.Now()
	operation := "createUser"

	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, role, hourly_rate, availability)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		user.Name,
		user.Email,
		user.Role,
		user.HourlyRate,
		nilIfEmpty(user.Availability),
	).Scan(&id)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return id, nil
}

// UpdateAvailability updates a user's free-form availability description
func (r *UserRepository) UpdateAvailability(ctx context.Context, id string, availability string) error {
	return r.updateField(ctx, "updateUserAvailability", id,
		`UPDATE users SET availability = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		availability)
}

// UpdateHourlyRate updates a mentor's hourly rate
func (r *UserRepository) UpdateHourlyRate(ctx context.Context, id string, hourlyRate float64) error {
	return r.updateField(ctx, "updateUserHourlyRate", id,
		`UPDATE users SET hourly_rate = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		hourlyRate)
}

func (r *UserRepository) updateField(ctx context.Context, operation, id, query string, value any) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, query, id, value)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("user")
	}

	recordMetrics(operation, "success", duration)

	if r.userCache != nil {
		r.userCache.Invalidate(id)
	}

	return nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
