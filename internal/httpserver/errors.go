package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"customerhub/internal/domain"
)

const (
	msgDuplicateEmail  = "Email is already registered"
	msgNotFound        = "Customer not found"
	msgAddressNotFound = "Address not found"
	msgInternal        = "Internal server error"
)

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// writeError maps service errors onto the JSON {message} envelope.
func (h *customerHandler) writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgDuplicateEmail, "field": "email"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": vErr.Error(), "field": vErr.Field})
	case errors.Is(err, domain.ErrAddressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": msgAddressNotFound})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": msgNotFound})
	default:
		h.logger.Printf("http: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}
