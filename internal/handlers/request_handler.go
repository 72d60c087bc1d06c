package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
)

// RequestHandler handles mentoring request HTTP endpoints
type RequestHandler struct {
	service services.RequestServiceInterface
}

// NewRequestHandler creates a new mentoring request handler
func NewRequestHandler(service services.RequestServiceInterface) *RequestHandler {
	return &RequestHandler{service: service}
}

// Submit handles POST /api/v1/requests
func (h *RequestHandler) Submit(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	request, err := h.service.Submit(c.Request.Context(), actor, &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// List handles GET /api/v1/requests?status=pending,accepted
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	statuses, err := parseRequestStatuses(c.Query("status"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid status filter", err)
		return
	}

	response, err := h.service.ListForActor(c.Request.Context(), actor, statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	request, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Accept handles POST /api/v1/requests/:id/accept
func (h *RequestHandler) Accept(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.AcceptRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	request, err := h.service.Accept(c.Request.Context(), actor, c.Param("id"), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Decline handles POST /api/v1/requests/:id/decline
func (h *RequestHandler) Decline(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	var payload models.DeclineRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ParseValidationErrors(err),
		})
		return
	}

	request, err := h.service.Decline(c.Request.Context(), actor, c.Param("id"), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Cancel handles POST /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	request, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func parseRequestStatuses(filter string) ([]models.RequestStatus, error) {
	if filter == "" {
		return nil, nil
	}

	statuses := []models.RequestStatus{}
	for _, raw := range strings.Split(filter, ",") {
		status := models.RequestStatus(strings.TrimSpace(raw))
		switch status {
		case models.RequestStatusPending, models.RequestStatusAccepted,
			models.RequestStatusDeclined, models.RequestStatusCancelled:
			statuses = append(statuses, status)
		default:
			return nil, &unknownStatusError{value: string(status)}
		}
	}
	return statuses, nil
}

type unknownStatusError struct {
	value string
}

func (e *unknownStatusError) Error() string {
	return "unknown status: " + e.value
}
