package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessionauth/internal/auth"
)

// respondMessage sends the {"message": ...} body used across the API.
func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, auth.MessageResponse{Message: message})
}

// respondNotFound answers unknown routes.
func respondNotFound(c *gin.Context) {
	respondMessage(c, http.StatusNotFound, "not found")
}

// respondMethodNotAllowed answers known paths called with the wrong method.
func respondMethodNotAllowed(c *gin.Context) {
	respondMessage(c, http.StatusMethodNotAllowed, "method not allowed")
}
