package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assigned user not found")
	ErrCallerNotFound   = errors.New("authenticated user not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrInvalidPriority  = errors.New("invalid task priority")
)

// TaskService handles task business logic
type TaskService struct {
	store repository.Store
	now   func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store) *TaskService {
	return &TaskService{
		store: store,
		now:   time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Priority     *models.TaskPriority
	AssignedToID *uint64
	DueDate      *time.Time
}

// UpdateTaskInput represents input for updating a task. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	DueDate      *time.Time
}

// TaskStats is a point-in-time summary of all tasks.
type TaskStats struct {
	Total      int64
	Todo       int64
	InProgress int64
	Completed  int64
	Overdue    int64
}

// Create creates a task owned by caller. New tasks always start as TODO.
func (s *TaskService) Create(ctx context.Context, caller *auth.Principal, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	priority := models.TaskPriorityMedium
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		priority = *input.Priority
	}

	var created *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		creator, err := tx.Users().FindByUsername(ctx, caller.Username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCallerNotFound
			}
			return fmt.Errorf("failed to find creator: %w", err)
		}

		if input.AssignedToID != nil {
			if err := ensureUserExists(ctx, tx, *input.AssignedToID); err != nil {
				return err
			}
		}

		now := s.clock()
		task := &models.Task{
			Title:        input.Title,
			Description:  input.Description,
			Status:       models.TaskStatusTodo,
			Priority:     priority,
			AssignedToID: input.AssignedToID,
			CreatedByID:  creator.ID,
			DueDate:      toUTC(input.DueDate),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		created, err = tx.Tasks().FindByID(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetAll returns every task, optionally paginated.
func (s *TaskService) GetAll(ctx context.Context, page *utils.PaginationParams) ([]models.Task, error) {
	return s.list(ctx, repository.TaskFilter{Page: page})
}

// GetByID returns a task with creator and assignee summaries
func (s *TaskService) GetByID(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetByAssignee returns tasks assigned to userID, optionally narrowed to one status.
// An unknown user simply has no tasks.
func (s *TaskService) GetByAssignee(ctx context.Context, userID uint64, status *models.TaskStatus) ([]models.Task, error) {
	return s.list(ctx, repository.TaskFilter{AssignedToID: &userID, Status: status})
}

func (s *TaskService) GetByCreator(ctx context.Context, userID uint64) ([]models.Task, error) {
	return s.list(ctx, repository.TaskFilter{CreatedByID: &userID})
}

func (s *TaskService) GetByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, repository.TaskFilter{Status: &status})
}

func (s *TaskService) GetByPriority(ctx context.Context, priority models.TaskPriority) ([]models.Task, error) {
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}
	return s.list(ctx, repository.TaskFilter{Priority: &priority})
}

// GetOverdue returns open tasks whose due date has passed.
func (s *TaskService) GetOverdue(ctx context.Context) ([]models.Task, error) {
	now := s.clock()
	return s.list(ctx, repository.TaskFilter{OverdueAt: &now})
}

// Update applies the non-nil fields of input. Any status may move to any other status.
func (s *TaskService) Update(ctx context.Context, id uint64, input UpdateTaskInput) (*models.Task, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	var updated *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := tx.Tasks().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Status != nil {
			task.Status = *input.Status
		}
		if input.Priority != nil {
			task.Priority = *input.Priority
		}
		if input.DueDate != nil {
			task.DueDate = toUTC(input.DueDate)
		}
		if input.AssignedToID != nil {
			if err := ensureUserExists(ctx, tx, *input.AssignedToID); err != nil {
				return err
			}
			task.AssignedToID = input.AssignedToID
		}

		task.UpdatedAt = s.nextTimestamp(task.UpdatedAt)

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		updated, err = tx.Tasks().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete physically removes a task
func (s *TaskService) Delete(ctx context.Context, id uint64) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Tasks().Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Stats counts tasks by status plus the overdue ones, all within one transaction.
func (s *TaskService) Stats(ctx context.Context) (*TaskStats, error) {
	now := s.clock()
	stats := &TaskStats{}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		counts := []struct {
			dst    *int64
			filter repository.TaskFilter
		}{
			{&stats.Total, repository.TaskFilter{}},
			{&stats.Todo, repository.TaskFilter{Status: statusPtr(models.TaskStatusTodo)}},
			{&stats.InProgress, repository.TaskFilter{Status: statusPtr(models.TaskStatusInProgress)}},
			{&stats.Completed, repository.TaskFilter{Status: statusPtr(models.TaskStatusCompleted)}},
			{&stats.Overdue, repository.TaskFilter{OverdueAt: &now}},
		}

		for _, c := range counts {
			n, err := tx.Tasks().Count(ctx, c.filter)
			if err != nil {
				return fmt.Errorf("failed to count tasks: %w", err)
			}
			*c.dst = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter) ([]models.Task, error) {
	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// clock returns the current instant in UTC at the millisecond precision the schema stores.
func (s *TaskService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// nextTimestamp never returns a value at or before prev.
func (s *TaskService) nextTimestamp(prev time.Time) time.Time {
	now := s.clock()
	if floor := prev.UTC().Add(time.Millisecond); now.Before(floor) {
		return floor.Truncate(time.Millisecond)
	}
	return now
}

func ensureUserExists(ctx context.Context, tx repository.Store, id uint64) error {
	if _, err := tx.Users().FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

func statusPtr(s models.TaskStatus) *models.TaskStatus {
	return &s
}

func toUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Millisecond)
	return &u
}
