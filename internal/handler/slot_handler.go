package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/middleware"
	"github.com/stablebook/service-booking/pkg/response"
)

// SlotHandler handles HTTP requests for blocked slot operations.
type SlotHandler struct {
	service *application.SlotService
}

// NewSlotHandler creates a new SlotHandler.
func NewSlotHandler(service *application.SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

// RegisterRoutes registers all blocked slot routes on the given router group.
func (h *SlotHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	slots := r.Group("/blocked-slots")
	slots.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleOwner, auth.RoleAdmin))
	{
		slots.POST("", h.Block)
		slots.DELETE("/:id", h.Unblock)
	}

	stables := r.Group("/stables")
	stables.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleOwner, auth.RoleAdmin))
	{
		stables.GET("/:stableId/blocked-slots", h.ListBlocks)
	}
}

// Block handles POST /api/v1/blocked-slots
func (h *SlotHandler) Block(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.BlockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Block(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// Unblock handles DELETE /api/v1/blocked-slots/:id
func (h *SlotHandler) Unblock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot ID")
		return
	}

	if err := h.service.Unblock(c.Request.Context(), actor, slotID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": slotID})
}

// ListBlocks handles GET /api/v1/stables/:stableId/blocked-slots
func (h *SlotHandler) ListBlocks(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stableID, err := uuid.Parse(c.Param("stableId"))
	if err != nil {
		response.BadRequest(c, "invalid stable ID")
		return
	}

	dtos, err := h.service.ListBlocks(c.Request.Context(), actor, stableID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}
