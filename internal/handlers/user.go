package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// UserHandler serves the administrative user endpoints.
type UserHandler struct {
	userService *services.UserService
	log         *logrus.Logger
}

func NewUserHandler(userService *services.UserService, log *logrus.Logger) *UserHandler {
	registerValidators()
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// ListUsers returns every user
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.GetAll(c.Request.Context(), utils.GetPaginationParams(c))
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponses(users))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// DeleteUser removes a user together with the tasks it created
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.respondUserError(c, err)
		return
	}

	h.log.WithField("user_id", id).Info("user deleted")
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		logInternal(h.log, c, err)
		apierrors.InternalError(c, "Internal server error")
	}
}
