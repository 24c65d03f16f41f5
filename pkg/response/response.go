package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stablebook/service-booking/pkg/domain"
)

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Paginated writes a 200 with pagination metadata.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Error maps a domain error onto an HTTP status. Unrecognized errors become
// a 500 with a generic body; the cause is attached to the gin context so the
// logging middleware records it.
func Error(c *gin.Context, err error) {
	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		body := gin.H{"error": domErr.Message}
		if len(domErr.Details) > 0 {
			body["details"] = domErr.Details
		}
		c.JSON(statusFor(domErr.Err), body)
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrValidation), errors.Is(kind, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrConflict),
		errors.Is(kind, domain.ErrSlotConflict),
		errors.Is(kind, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
