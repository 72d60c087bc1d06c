package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin
// context so the observability middleware can include the reason in the
// request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondServiceError maps a service-layer error onto its HTTP status. The
// sentinel errors are the whole taxonomy: anything unmatched is a
// persistence or internal failure and reports as 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found", err)
	case apperrors.Is(err, apperrors.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "Access denied", err)
	case apperrors.Is(err, apperrors.ErrInvalidState):
		respondError(c, http.StatusConflict, "Invalid state for this operation", err)
	case apperrors.Is(err, apperrors.ErrDuplicateRequest):
		respondError(c, http.StatusConflict, "An active request already exists for this mentor", err)
	case apperrors.Is(err, apperrors.ErrRelationshipRequired):
		respondError(c, http.StatusForbidden, "An active mentoring relationship is required", err)
	case apperrors.Is(err, apperrors.ErrSchedulingConflict):
		respondError(c, http.StatusConflict, "The requested time conflicts with an existing session", err)
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "Invalid input", err)
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
