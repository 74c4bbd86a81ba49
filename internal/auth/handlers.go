package auth

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessionauth/internal/entities"
	"github.com/mrlokans/sessionauth/internal/logging"
)

// AuditLog receives one event per register, login and logout attempt.
type AuditLog interface {
	Record(ctx context.Context, event *entities.AuditEvent)
}

// AuthController handles the authentication HTTP endpoints.
type AuthController struct {
	service     *Service
	sessions    *SessionManager
	rateLimiter *RateLimiter
	audit       AuditLog
}

// NewAuthController creates a controller. rateLimiter may be nil to disable
// login throttling.
func NewAuthController(service *Service, sessions *SessionManager, rateLimiter *RateLimiter) *AuthController {
	return &AuthController{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
	}
}

// WithAuditLog sets where attempts are recorded. A nil log disables auditing.
func (ac *AuthController) WithAuditLog(log AuditLog) *AuthController {
	ac.audit = log
	return ac
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/register", ac.Register)
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
	router.GET("/me", RequireAuth(ac.sessions), ac.Me)
}

// Stop releases the rate limiter goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

func bindCredentials(c *gin.Context) (Credentials, bool) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid request body"})
		return creds, false
	}
	return creds, true
}

// respond writes a rejection as its fixed response and hands any other
// error to ErrorHandler.
func respond(c *gin.Context, err error) {
	if rejection, ok := AsRejection(err); ok {
		c.JSON(rejection.Status, MessageResponse{Message: rejection.Message})
		return
	}
	_ = c.Error(err)
}

// Register handles POST /register.
func (ac *AuthController) Register(c *gin.Context) {
	creds, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := ac.service.Register(c.Request.Context(), creds)
	if err != nil {
		ac.record(c, entities.AuthActionRegister, 0, creds.Username, err)
		respond(c, err)
		return
	}
	ac.record(c, entities.AuthActionRegister, user.ID, user.Username, nil)

	c.JSON(http.StatusOK, user)
}

// Login handles POST /login.
func (ac *AuthController) Login(c *gin.Context) {
	creds, ok := bindCredentials(c)
	if !ok {
		return
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, creds.Username); !allowed {
			ac.record(c, entities.AuthActionLogin, 0, creds.Username, errRateLimited)
			tooManyAttempts(c, retryAfter)
			return
		}
	}

	message, err := ac.service.Login(c.Request.Context(), creds, ac.sessions)
	if err != nil {
		if rejection, ok := AsRejection(err); ok && rejection.Status == http.StatusUnauthorized && ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, creds.Username)
		}
		ac.record(c, entities.AuthActionLogin, 0, creds.Username, err)
		respond(c, err)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, creds.Username)
	}
	if user, ok := ac.sessions.Principal(c.Request.Context()); ok {
		ac.record(c, entities.AuthActionLogin, user.ID, user.Username, nil)
	}
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

func tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	c.Header("Retry-After", strconv.Itoa(max(seconds, 1)))
	c.JSON(errRateLimited.Status, MessageResponse{Message: errRateLimited.Message})
}

// Logout handles GET /logout.
func (ac *AuthController) Logout(c *gin.Context) {
	user, loggedIn := ac.sessions.Principal(c.Request.Context())

	message, err := ac.service.Logout(c.Request.Context(), ac.sessions)
	if loggedIn {
		ac.record(c, entities.AuthActionLogout, user.ID, user.Username, err)
	}
	if err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// MeResponse is the body of GET /me.
type MeResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	LoginAt  *time.Time `json:"login_at,omitempty"`
}

// Me handles GET /me and returns the session principal.
func (ac *AuthController) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "not logged in"})
		return
	}

	resp := MeResponse{ID: user.ID, Username: user.Username}
	if loginAt := ac.sessions.LoginAt(c.Request.Context()); !loginAt.IsZero() {
		resp.LoginAt = &loginAt
	}
	c.JSON(http.StatusOK, resp)
}

var errRateLimited = &Rejection{Status: http.StatusTooManyRequests, Message: "Too many login attempts"}

// record hands an audit event for the current request to the audit log.
// Rejections are stored with their message, other failures with their code.
func (ac *AuthController) record(c *gin.Context, action entities.AuthAction, userID uint, username string, err error) {
	if ac.audit == nil {
		return
	}

	event := &entities.AuditEvent{
		UserID:    userID,
		Username:  username,
		Action:    action,
		Status:    entities.AuditStatusSuccess,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: logging.RequestIDFromContext(c.Request.Context()),
		CreatedAt: time.Now(),
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		if rejection, ok := AsRejection(err); ok {
			event.Reason = rejection.Message
		} else {
			event.Reason = ErrorCode(err)
		}
	}

	ac.audit.Record(c.Request.Context(), event)
}
