package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/response"
)

// WebhookHandler receives synchronous payment callbacks. It covers the same
// transitions the Kafka consumer drives, for payment providers that deliver
// over HTTP instead of the bus.
type WebhookHandler struct {
	service *application.BookingService
	secret  string
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *application.BookingService, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret, logger: logger}
}

// RegisterRoutes registers the webhook routes on the given router group.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/payment", h.HandlePaymentWebhook)
}

// paymentWebhookPayload is the provider callback body.
type paymentWebhookPayload struct {
	BookingID  uuid.UUID `json:"booking_id" binding:"required"`
	Status     string    `json:"status" binding:"required"`
	PaymentRef string    `json:"payment_ref"`
	Reason     string    `json:"reason"`
}

// HandlePaymentWebhook handles POST /api/v1/webhooks/payment
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	provided := c.GetHeader("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var payload paymentWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var err error
	switch payload.Status {
	case "succeeded":
		if payload.PaymentRef == "" {
			response.BadRequest(c, "payment_ref is required for succeeded status")
			return
		}
		err = h.service.ConfirmPayment(c.Request.Context(), payload.BookingID, payload.PaymentRef)
	case "failed":
		err = h.service.CancelForFailedPayment(c.Request.Context(), payload.BookingID, payload.Reason)
	default:
		response.BadRequest(c, "unknown status: "+payload.Status)
		return
	}

	if err != nil {
		h.logger.Error("payment webhook failed",
			zap.String("booking_id", payload.BookingID.String()),
			zap.String("status", payload.Status),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"processed": true})
}
