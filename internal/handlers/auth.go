package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenManager
	revoker     auth.Revoker
	log         *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenManager, revoker auth.Revoker, log *logrus.Logger) *AuthHandler {
	registerValidators()
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		revoker:     revoker,
		log:         log,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string   `json:"username" binding:"required,min=3,max=50,notblank"`
		Email    string   `json:"email" binding:"required,max=100,email"`
		Password string   `json:"password" binding:"required,min=6,max=40"`
		Roles    []string `json:"roles"`
	}

	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username, "roles": user.Roles}).
		Info("user registered")
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "User registered successfully!"})
}

// Login authenticates a user and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required,notblank"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.WithError(err).Error("sign token failed")
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, dto.ToJwtResponse(token, *user))
}

// Logout revokes the caller's token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), principal.TokenID, principal.ExpiresAt); err != nil {
		h.log.WithError(err).WithField("request_id", c.GetString(constants.ContextKeyRequestID)).
			Error("token revocation failed")
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.userService.GetByUsername(c.Request.Context(), principal.Username)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.AlreadyExists(c, "Username is already taken!")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, "Email is already in use!")
	case errors.Is(err, services.ErrDuplicateUser):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrInvalidUsername):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"username": err.Error()})
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		logInternal(h.log, c, err)
		apierrors.InternalError(c, "Internal server error")
	}
}

func logInternal(log *logrus.Logger, c *gin.Context, err error) {
	log.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString(constants.ContextKeyRequestID),
		"route":      c.FullPath(),
	}).Error("request failed")
}
