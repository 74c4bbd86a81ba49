package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessionauth/internal/entities"
	"github.com/mrlokans/sessionauth/internal/logging"
)

// ContextKeyUser holds the principal set by RequireAuth.
const ContextKeyUser = "auth_user"

// MessageResponse is the body of every auth response that is not a user.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the envelope written by ErrorHandler.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorHandler is the single place where unexpected failures become HTTP
// responses. Handlers attach them with c.Error and return; expected
// failures (rejections) never reach it.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		logging.LogError(c.Request.Context(), logger, "request failed", err)

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Message: "internal server error",
			Code:    ErrorCode(err),
		})
	}
}

// RequireAuth aborts with 401 unless the session holds a principal.
func RequireAuth(sessions Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessions.Principal(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, MessageResponse{Message: "not logged in"})
			return
		}
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// CurrentUser returns the principal stored by RequireAuth.
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	v, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*entities.User)
	return user, ok
}
