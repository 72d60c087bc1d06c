package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
)

// SessionHandler handles mentoring session HTTP endpoints
type SessionHandler struct {
	service      services.SessionServiceInterface
	availability services.AvailabilityServiceInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service services.SessionServiceInterface, availability services.AvailabilityServiceInterface) *SessionHandler {
	return &SessionHandler{service: service, availability: availability}
}

// Book handles POST /api/v1/sessions/book (mentee-initiated)
func (h *SessionHandler) Book(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.BookSessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.Book(c.Request.Context(), actor, &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Create handles POST /api/v1/sessions (mentor-initiated)
func (h *SessionHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.CreateSessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.Create(c.Request.Context(), actor, &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// List handles GET /api/v1/sessions?status=upcoming,in_progress
func (h *SessionHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	statuses, err := parseSessionStatuses(c.Query("status"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid status filter", err)
		return
	}

	response, err := h.service.List(c.Request.Context(), actor, statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	session, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Start handles POST /api/v1/sessions/:id/start
func (h *SessionHandler) Start(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	session, err := h.service.Start(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// End handles POST /api/v1/sessions/:id/end
func (h *SessionHandler) End(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.EndSessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.End(c.Request.Context(), actor, c.Param("id"), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Cancel handles POST /api/v1/sessions/:id/cancel
func (h *SessionHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.CancelSessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Reschedule handles POST /api/v1/sessions/:id/reschedule
func (h *SessionHandler) Reschedule(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.RescheduleSessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.Reschedule(c.Request.Context(), actor, c.Param("id"), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Update handles PATCH /api/v1/sessions/:id
func (h *SessionHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var update models.SessionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	session, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), &update)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CheckAvailability handles GET /api/v1/sessions/availability?start=...&durationMinutes=...
// The answer is advisory; the booking transaction remains authoritative.
func (h *SessionHandler) CheckAvailability(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "start must be an RFC3339 timestamp", err)
		return
	}

	durationMinutes := 60
	if raw := c.Query("durationMinutes"); raw != "" {
		durationMinutes, err = strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "durationMinutes must be a number", err)
			return
		}
	}

	conflict, err := h.availability.HasConflict(c.Request.Context(), actor.UserID, start, durationMinutes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": !conflict})
}

func parseSessionStatuses(filter string) ([]models.SessionStatus, error) {
	if filter == "" {
		return nil, nil
	}

	statuses := []models.SessionStatus{}
	for _, raw := range strings.Split(filter, ",") {
		status := models.SessionStatus(strings.TrimSpace(raw))
		switch status {
		case models.SessionStatusUpcoming, models.SessionStatusInProgress,
			models.SessionStatusCompleted, models.SessionStatusCancelled:
			statuses = append(statuses, status)
		default:
			return nil, &unknownStatusError{value: string(status)}
		}
	}
	return statuses, nil
}
