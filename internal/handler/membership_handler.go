package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/middleware"
	"github.com/stablebook/service-booking/pkg/response"
)

// MembershipHandler handles HTTP requests for rider memberships.
type MembershipHandler struct {
	service *application.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(service *application.MembershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// RegisterRoutes registers all membership routes on the given router group.
func (h *MembershipHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	memberships := r.Group("/memberships")
	{
		memberships.GET("/plans", h.GetPlans)

		authed := memberships.Group("")
		authed.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleRider))
		{
			authed.POST("", h.Subscribe)
			authed.GET("/me", h.GetMyMembership)
			authed.DELETE("/me", h.CancelMembership)
		}
	}
}

// GetPlans handles GET /api/v1/memberships/plans
func (h *MembershipHandler) GetPlans(c *gin.Context) {
	response.Success(c, h.service.GetPlans(c.Request.Context()))
}

// Subscribe handles POST /api/v1/memberships
func (h *MembershipHandler) Subscribe(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Subscribe(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetMyMembership handles GET /api/v1/memberships/me
func (h *MembershipHandler) GetMyMembership(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dto, err := h.service.GetMyMembership(c.Request.Context(), riderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// CancelMembership handles DELETE /api/v1/memberships/me
func (h *MembershipHandler) CancelMembership(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.CancelMembership(c.Request.Context(), riderID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"cancelled": true})
}
