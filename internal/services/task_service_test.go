package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func priorityPtr(p models.TaskPriority) *models.TaskPriority { return &p }

func stringPtr(s string) *string { return &s }

func TestTaskService_CreateDefaults(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(context.Background(), principalFor(alice), CreateTaskInput{
		Title:       "Write docs",
		Description: "for the API",
	})
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Equal(t, alice.ID, task.CreatedBy.ID)
	assert.Equal(t, "alice", task.CreatedBy.Username)
	assert.Nil(t, task.AssignedTo)
	assert.True(t, task.CreatedAt.Equal(env.clock))
	assert.True(t, task.UpdatedAt.Equal(env.clock))
}

func TestTaskService_CreateWithAssignee(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	due := time.Date(2024, 3, 10, 17, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	task, err := env.tasks.Create(context.Background(), principalFor(alice), CreateTaskInput{
		Title:        "Review",
		Priority:     priorityPtr(models.TaskPriorityUrgent),
		AssignedToID: &bob.ID,
		DueDate:      &due,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TaskPriorityUrgent, task.Priority)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, "bob", task.AssignedTo.Username)
	assert.Equal(t, "bob@example.com", task.AssignedTo.Email)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
}

func TestTaskService_CreateTruncatesDueDate(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.register(t, "alice")

	due := time.Date(2024, 3, 10, 8, 0, 48, 813430430, time.UTC)
	task, err := env.tasks.Create(context.Background(), principalFor(alice), CreateTaskInput{
		Title:   "Precise",
		DueDate: &due,
	})
	require.NoError(t, err)

	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2024, 3, 10, 8, 0, 48, 813000000, time.UTC), *task.DueDate)

	stored, err := env.tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DueDate)
	assert.True(t, stored.DueDate.Equal(*task.DueDate))
}

func TestTaskService_CreateErrors(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	missing := uint64(999)
	_, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Lost", AssignedToID: &missing})
	assert.True(t, errors.Is(err, ErrAssigneeNotFound))

	ghost := &auth.Principal{UserID: 77, Username: "ghost"}
	_, err = env.tasks.Create(ctx, ghost, CreateTaskInput{Title: "Haunted"})
	assert.True(t, errors.Is(err, ErrCallerNotFound))

	_, err = env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "   "})
	assert.True(t, errors.Is(err, ErrTitleRequired))

	all, err := env.tasks.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTaskService_UpdateTitleOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	due := env.clock.Add(72 * time.Hour)
	created, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{
		Title:        "Old title",
		Description:  "keep me",
		Priority:     priorityPtr(models.TaskPriorityHigh),
		AssignedToID: &bob.ID,
		DueDate:      &due,
	})
	require.NoError(t, err)

	// The clock does not move, yet updatedAt must still advance.
	updated, err := env.tasks.Update(ctx, created.ID, UpdateTaskInput{Title: stringPtr("New title")})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, models.TaskPriorityHigh, updated.Priority)
	assert.Equal(t, models.TaskStatusTodo, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, bob.ID, updated.AssignedTo.ID)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	again, err := env.tasks.Update(ctx, created.ID, UpdateTaskInput{Title: stringPtr("Newer title")})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
}

func TestTaskService_UpdateStatusAndAssignee(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	task, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)

	completed := models.TaskStatusCompleted
	updated, err := env.tasks.Update(ctx, task.ID, UpdateTaskInput{Status: &completed, AssignedToID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "bob", updated.AssignedTo.Username)

	// Any status may follow any other.
	todo := models.TaskStatusTodo
	reopened, err := env.tasks.Update(ctx, task.ID, UpdateTaskInput{Status: &todo})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, reopened.Status)

	missing := uint64(999)
	_, err = env.tasks.Update(ctx, task.ID, UpdateTaskInput{AssignedToID: &missing})
	assert.True(t, errors.Is(err, ErrAssigneeNotFound))

	_, err = env.tasks.Update(ctx, 12345, UpdateTaskInput{Title: stringPtr("nope")})
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestTaskService_Queries(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	past := env.clock.Add(-24 * time.Hour)
	future := env.clock.Add(24 * time.Hour)

	lateTodo, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Late todo", DueDate: &past, AssignedToID: &bob.ID})
	require.NoError(t, err)
	lateDone, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Late done", DueDate: &past})
	require.NoError(t, err)
	_, err = env.tasks.Create(ctx, principalFor(bob), CreateTaskInput{
		Title:        "Upcoming",
		DueDate:      &future,
		Priority:     priorityPtr(models.TaskPriorityLow),
		AssignedToID: &bob.ID,
	})
	require.NoError(t, err)

	completed := models.TaskStatusCompleted
	_, err = env.tasks.Update(ctx, lateDone.ID, UpdateTaskInput{Status: &completed})
	require.NoError(t, err)

	overdue, err := env.tasks.GetOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, lateTodo.ID, overdue[0].ID)

	assigned, err := env.tasks.GetByAssignee(ctx, bob.ID, nil)
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	todo := models.TaskStatusTodo
	assignedTodo, err := env.tasks.GetByAssignee(ctx, bob.ID, &todo)
	require.NoError(t, err)
	assert.Len(t, assignedTodo, 2)

	none, err := env.tasks.GetByAssignee(ctx, 999, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	byCreator, err := env.tasks.GetByCreator(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)

	done, err := env.tasks.GetByStatus(ctx, models.TaskStatusCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "Late done", done[0].Title)

	low, err := env.tasks.GetByPriority(ctx, models.TaskPriorityLow)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Upcoming", low[0].Title)

	_, err = env.tasks.GetByStatus(ctx, models.TaskStatus("DONE"))
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestTaskService_Stats(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	stats, err := env.tasks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, TaskStats{}, *stats)

	past := env.clock.Add(-time.Hour)
	statuses := []models.TaskStatus{
		models.TaskStatusTodo,
		models.TaskStatusTodo,
		models.TaskStatusInProgress,
		models.TaskStatusCompleted,
		models.TaskStatusCancelled,
	}
	for i, status := range statuses {
		task, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Task", DueDate: &past})
		require.NoError(t, err, i)
		if status != models.TaskStatusTodo {
			s := status
			_, err = env.tasks.Update(ctx, task.ID, UpdateTaskInput{Status: &s})
			require.NoError(t, err)
		}
	}

	stats, err = env.tasks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(2), stats.Todo)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(3), stats.Overdue)
	assert.LessOrEqual(t, stats.Todo+stats.InProgress+stats.Completed, stats.Total)
}

func TestTaskService_Delete(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, principalFor(alice), CreateTaskInput{Title: "Temporary"})
	require.NoError(t, err)

	require.NoError(t, env.tasks.Delete(ctx, task.ID))

	_, err = env.tasks.GetByID(ctx, task.ID)
	assert.True(t, errors.Is(err, ErrTaskNotFound))
	assert.True(t, errors.Is(env.tasks.Delete(ctx, task.ID), ErrTaskNotFound))
}

func TestTaskService_NextTimestamp(t *testing.T) {
	env := setupServiceTestEnv(t)

	prev := env.clock
	assert.Equal(t, prev.Add(time.Millisecond), env.tasks.nextTimestamp(prev))

	later := env.clock.Add(-time.Hour)
	assert.Equal(t, env.clock, env.tasks.nextTimestamp(later))
}
