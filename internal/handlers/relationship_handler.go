package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/services"
)

// RelationshipHandler handles relationship HTTP endpoints
type RelationshipHandler struct {
	service services.RelationshipServiceInterface
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(service services.RelationshipServiceInterface) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

// List handles GET /api/v1/relationships
func (h *RelationshipHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	relationships, err := h.service.ListForActor(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"relationships": relationships,
		"total":         len(relationships),
	})
}

// End handles POST /api/v1/relationships/:id/end
func (h *RelationshipHandler) End(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Missing authentication", nil)
		return
	}

	if err := h.service.End(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
