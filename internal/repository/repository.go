package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// Store groups the repositories and owns the transaction boundary.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository

	// Transaction runs fn against a Store bound to a single database transaction.
	// Any error returned by fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts the user and its role rows
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID, roles included
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username, roles included
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns users ordered by ID
	List(ctx context.Context, page *utils.PaginationParams) ([]models.User, error)

	// Delete removes the user. Tasks it created are deleted and tasks assigned to it are unassigned.
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with creator and assignee summaries
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks matching the filter, ordered by ID
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Count counts tasks matching the filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// Update writes every mutable column of task
	Update(ctx context.Context, task *models.Task) error

	// Delete physically removes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing and counting tasks
type TaskFilter struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	CreatedByID  *uint64
	// OverdueAt selects tasks due strictly before this instant that are neither completed nor cancelled.
	OverdueAt *time.Time
	Page      *utils.PaginationParams
}
