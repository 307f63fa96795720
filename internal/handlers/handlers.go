package handlers

import (
	"errors"
	"net/http"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/logger"
	"parkhub/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// writeError maps domain errors onto HTTP status codes. Unknown errors are
// logged and returned as an opaque 500.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrLotNotFound),
		errors.Is(err, apperrors.ErrSpaceNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrSpaceUnavailable),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrLotHasSpaces),
		errors.Is(err, apperrors.ErrSpaceInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable, please retry"})

	default:
		logger.WithContext(c.Request.Context()).Error("Unhandled error",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
