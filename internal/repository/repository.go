package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// recordMetrics records database operation metrics
func recordMetrics(operation, status string, duration float64) {
	metrics.DBRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.DBRequestTotal.WithLabelValues(operation, status).Inc()
}

// isUniqueViolation reports whether err is a unique constraint violation,
// optionally on a specific constraint name
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// nilIfEmpty returns nil for empty strings so they are stored as NULL
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
