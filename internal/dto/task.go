package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// UserInfo is the user summary embedded in task responses
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AssignedTo  *UserInfo           `json:"assignedTo"`
	CreatedBy   UserInfo            `json:"createdBy"`
	DueDate     *time.Time          `json:"dueDate"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TaskStatsResponse is the dashboard summary
type TaskStatsResponse struct {
	TotalTasks        int64 `json:"totalTasks"`
	TodoTasks         int64 `json:"todoTasks"`
	InProgressTasks   int64 `json:"inProgressTasks"`
	CompletedTasks    int64 `json:"completedTasks"`
	OverdueTasksCount int64 `json:"overdueTasksCount"`
}

// Conversion functions

// ToTaskResponse converts a Task model to TaskResponse
func ToTaskResponse(task models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedBy:   toUserInfo(task.CreatedBy),
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.AssignedTo != nil {
		info := toUserInfo(*task.AssignedTo)
		resp.AssignedTo = &info
	}

	return resp
}

// ToTaskResponses converts a slice of tasks, never returning nil
func ToTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskResponse(task)
	}
	return out
}

func ToTaskStatsResponse(stats *services.TaskStats) TaskStatsResponse {
	return TaskStatsResponse{
		TotalTasks:        stats.Total,
		TodoTasks:         stats.Todo,
		InProgressTasks:   stats.InProgress,
		CompletedTasks:    stats.Completed,
		OverdueTasksCount: stats.Overdue,
	}
}

func toUserInfo(u models.UserSummary) UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
