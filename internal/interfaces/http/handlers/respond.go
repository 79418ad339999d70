// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// writeError maps the error taxonomy onto HTTP statuses. Field-level
// validation errors carry their per-field details so the client can render
// them inline.
func writeError(c *gin.Context, err error) {
	var fields apperrors.FieldErrors
	if errors.As(err, &fields) {
		details := make(map[string]string, len(fields))
		for _, fe := range fields {
			details[fe.Field] = fe.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	status := http.StatusBadGateway
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindAuthorization:
		status = http.StatusUnauthorized
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindVerificationFailed:
		status = http.StatusPaymentRequired
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}
