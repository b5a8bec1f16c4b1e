package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"investment-platform/internal/platform"
)

// fail maps engine errors to HTTP status codes and writes the error body.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, platform.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, platform.ErrValidation), errors.Is(err, platform.ErrInsufficientFunds):
		status = http.StatusBadRequest
	case errors.Is(err, platform.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, platform.ErrAlreadySettled):
		status = http.StatusConflict
	case errors.Is(err, platform.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
