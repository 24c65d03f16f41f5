package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/middleware"
	"github.com/stablebook/service-booking/pkg/response"
)

// PromoHandler handles HTTP requests for promo code operations.
type PromoHandler struct {
	service *application.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

// RegisterRoutes registers all promo routes on the given router group.
func (h *PromoHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	promos := r.Group("/promos")
	promos.Use(middleware.AuthMiddleware(jwtManager))
	{
		promos.GET("/active", h.GetActivePromos)
		promos.POST("/validate", h.ValidatePromo)
		promos.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreatePromo)
		promos.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), h.DeactivatePromo)
	}
}

// CreatePromo handles POST /api/v1/promos
func (h *PromoHandler) CreatePromo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreatePromo(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// ValidatePromo handles POST /api/v1/promos/validate
func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidatePromo(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetActivePromos handles GET /api/v1/promos/active
func (h *PromoHandler) GetActivePromos(c *gin.Context) {
	dtos, err := h.service.GetActivePromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// DeactivatePromo handles DELETE /api/v1/promos/:id
func (h *PromoHandler) DeactivatePromo(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}

	if err := h.service.DeactivatePromo(c.Request.Context(), promoID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deactivated": promoID})
}
