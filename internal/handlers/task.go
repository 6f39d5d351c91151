package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *logrus.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *logrus.Logger) *TaskHandler {
	registerValidators()
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// CreateTask creates a task owned by the caller
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title        string               `json:"title" binding:"required,min=3,max=100,notblank"`
		Description  string               `json:"description" binding:"max=1000"`
		Priority     *models.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
		AssignedToID *uint64              `json:"assignedToId"`
		DueDate      *time.Time           `json:"dueDate"`
	}

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), principal, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(*task))
}

// ListTasks returns all tasks, optionally paginated with ?page=&limit=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.taskService.GetAll(c.Request.Context(), utils.GetPaginationParams(c))
	h.respondTasks(c, tasks, err)
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// ListTasksByAssignee returns tasks assigned to a user, optionally filtered by ?status=
func (h *TaskHandler) ListTasksByAssignee(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s, err := models.ParseTaskStatus(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		status = &s
	}

	tasks, err := h.taskService.GetByAssignee(c.Request.Context(), userID, status)
	h.respondTasks(c, tasks, err)
}

func (h *TaskHandler) ListTasksByCreator(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	tasks, err := h.taskService.GetByCreator(c.Request.Context(), userID)
	h.respondTasks(c, tasks, err)
}

func (h *TaskHandler) ListTasksByStatus(c *gin.Context) {
	status, err := models.ParseTaskStatus(c.Param("status"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid status")
		return
	}

	tasks, err := h.taskService.GetByStatus(c.Request.Context(), status)
	h.respondTasks(c, tasks, err)
}

func (h *TaskHandler) ListTasksByPriority(c *gin.Context) {
	priority, err := models.ParseTaskPriority(c.Param("priority"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid priority")
		return
	}

	tasks, err := h.taskService.GetByPriority(c.Request.Context(), priority)
	h.respondTasks(c, tasks, err)
}

// ListOverdueTasks returns open tasks past their due date
func (h *TaskHandler) ListOverdueTasks(c *gin.Context) {
	tasks, err := h.taskService.GetOverdue(c.Request.Context())
	h.respondTasks(c, tasks, err)
}

// GetStats returns task counts for the dashboard
func (h *TaskHandler) GetStats(c *gin.Context) {
	stats, err := h.taskService.Stats(c.Request.Context())
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskStatsResponse(stats))
}

// UpdateTask applies a partial update; null or missing fields are left unchanged
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title        *string              `json:"title" binding:"omitempty,min=3,max=100,notblank"`
		Description  *string              `json:"description" binding:"omitempty,max=1000"`
		Status       *models.TaskStatus   `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS COMPLETED CANCELLED"`
		Priority     *models.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
		AssignedToID *uint64              `json:"assignedToId"`
		DueDate      *time.Time           `json:"dueDate"`
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), id, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), id); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}

func (h *TaskHandler) respondTasks(c *gin.Context, tasks []models.Task, err error) {
	if err != nil {
		h.respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponses(tasks))
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.NotFound(c, "Assigned user not found")
	case errors.Is(err, services.ErrCallerNotFound):
		apierrors.Unauthorized(c, "User not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, err.Error())
	default:
		logInternal(h.log, c, err)
		apierrors.InternalError(c, "Internal server error")
	}
}
