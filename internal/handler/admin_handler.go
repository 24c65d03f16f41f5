package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/middleware"
	"github.com/stablebook/service-booking/pkg/response"
)

// AdminHandler exposes operator endpoints: booking listings, statistics, and
// manual sweep triggers for incident recovery.
type AdminHandler struct {
	service *application.BookingService
	clk     clock.Clock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.BookingService, clk clock.Clock) *AdminHandler {
	return &AdminHandler{service: service, clk: clk}
}

// RegisterRoutes registers all admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats", h.GetStats)
		admin.POST("/sweeps/completions", h.RunCompletionSweep)
		admin.POST("/sweeps/reminders", h.RunReminderSweep)
	}
}

// ListBookings handles GET /api/v1/admin/bookings
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := pagination(c)
	dtos, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, page, limit)
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	dto, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// RunCompletionSweep handles POST /api/v1/admin/sweeps/completions
func (h *AdminHandler) RunCompletionSweep(c *gin.Context) {
	res, err := h.service.SweepCompletions(c.Request.Context(), h.clk.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}

// RunReminderSweep handles POST /api/v1/admin/sweeps/reminders
func (h *AdminHandler) RunReminderSweep(c *gin.Context) {
	res, err := h.service.SweepReminders(c.Request.Context(), h.clk.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}
