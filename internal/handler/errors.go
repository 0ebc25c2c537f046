package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"groov/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to transport status codes. Services never
// write HTTP themselves.
func respondError(c *gin.Context, err error) {
	var gw *domain.GatewayError
	if errors.As(err, &gw) {
		body := gin.H{"error": "payment gateway error"}
		if json.Valid(gw.Body) {
			body["gateway"] = json.RawMessage(gw.Body)
		} else {
			body["gateway"] = string(gw.Body)
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
