package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stablebook/service-booking/internal/application"
	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/middleware"
	"github.com/stablebook/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/horses/:horseId/availability", h.GetAvailability)

	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", middleware.RequireRole(auth.RoleRider), h.Reserve)
		bookings.GET("/me", middleware.RequireRole(auth.RoleRider), h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}

	stables := r.Group("/stables")
	stables.Use(middleware.AuthMiddleware(jwtManager))
	{
		stables.GET("/:stableId/bookings", middleware.RequireRole(auth.RoleOwner), h.ListStableBookings)
	}
}

// Reserve handles POST /api/v1/bookings
func (h *BookingHandler) Reserve(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ReserveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Reserve(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListMyBookings handles GET /api/v1/bookings/me
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := pagination(c)
	dtos, total, err := h.service.ListMyBookings(c.Request.Context(), riderID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, page, limit)
}

// ListStableBookings handles GET /api/v1/stables/:stableId/bookings
func (h *BookingHandler) ListStableBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stableID, err := uuid.Parse(c.Param("stableId"))
	if err != nil {
		response.BadRequest(c, "invalid stable ID")
		return
	}

	page, limit := pagination(c)
	dtos, total, err := h.service.ListStableBookings(c.Request.Context(), actor, stableID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, page, limit)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Cancel(c.Request.Context(), actor, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetAvailability handles GET /api/v1/horses/:horseId/availability
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	horseID, err := uuid.Parse(c.Param("horseId"))
	if err != nil {
		response.BadRequest(c, "invalid horse ID")
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.BadRequest(c, "invalid from (use RFC3339)")
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.BadRequest(c, "invalid to (use RFC3339)")
		return
	}

	dtos, err := h.service.Availability(c.Request.Context(), horseID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"horse_id": horseID, "busy": dtos})
}

// actorFrom extracts the authenticated actor, writing a 401 when the auth
// context is missing.
func actorFrom(c *gin.Context) (bookingDomain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return bookingDomain.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return bookingDomain.Actor{}, false
	}
	return bookingDomain.Actor{UserID: userID, Role: role}, true
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
