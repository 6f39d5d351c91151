package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

const taskColumns = "tasks.id, tasks.title, tasks.description, tasks.status, tasks.priority, " +
	"tasks.assigned_to_id, tasks.created_by_id, tasks.due_date, tasks.created_at, tasks.updated_at, " +
	"creator.username AS creator_username, creator.email AS creator_email, " +
	"assignee.username AS assignee_username, assignee.email AS assignee_email"

// taskRecord is one row of the tasks ⋈ users read.
type taskRecord struct {
	ID               uint64
	Title            string
	Description      string
	Status           models.TaskStatus
	Priority         models.TaskPriority
	AssignedToID     *uint64
	CreatedByID      uint64
	DueDate          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CreatorUsername  string
	CreatorEmail     string
	AssigneeUsername *string
	AssigneeEmail    *string
}

func (rec taskRecord) toTask() models.Task {
	task := models.Task{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		Status:       rec.Status,
		Priority:     rec.Priority,
		AssignedToID: rec.AssignedToID,
		CreatedByID:  rec.CreatedByID,
		DueDate:      rec.DueDate,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		CreatedBy: models.UserSummary{
			ID:       rec.CreatedByID,
			Username: rec.CreatorUsername,
			Email:    rec.CreatorEmail,
		},
	}

	if rec.AssignedToID != nil && rec.AssigneeUsername != nil {
		assignee := models.UserSummary{ID: *rec.AssignedToID, Username: *rec.AssigneeUsername}
		if rec.AssigneeEmail != nil {
			assignee.Email = *rec.AssigneeEmail
		}
		task.AssignedTo = &assignee
	}

	return task
}

func (r *GormTaskRepository) selectTasks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tasks").
		Select(taskColumns).
		Joins("JOIN users AS creator ON creator.id = tasks.created_by_id").
		Joins("LEFT JOIN users AS assignee ON assignee.id = tasks.assigned_to_id")
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var records []taskRecord
	if err := r.selectTasks(ctx).
		Where("tasks.id = ?", id).
		Limit(1).
		Scan(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	task := records[0].toTask()
	return &task, nil
}

// List retrieves tasks with filtering and optional pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var records []taskRecord
	if err := r.selectTasks(ctx).
		Scopes(filter.apply, database.Paginate(filter.Page)).
		Order("tasks.id ASC").
		Scan(&records).Error; err != nil {
		return nil, err
	}

	tasks := make([]models.Task, len(records))
	for i, rec := range records {
		tasks[i] = rec.toTask()
	}
	return tasks, nil
}

// Count counts tasks matching the filter; pagination is ignored.
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(filter.apply).
		Count(&count).Error
	return count, err
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	res := r.db.WithContext(ctx).
		Model(&models.Task{ID: task.ID}).
		Select("title", "description", "status", "priority", "assigned_to_id", "due_date", "updated_at").
		Updates(task)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (f TaskFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("tasks.status = ?", *f.Status)
	}
	if f.Priority != nil {
		db = db.Where("tasks.priority = ?", *f.Priority)
	}
	if f.AssignedToID != nil {
		db = db.Where("tasks.assigned_to_id = ?", *f.AssignedToID)
	}
	if f.CreatedByID != nil {
		db = db.Where("tasks.created_by_id = ?", *f.CreatedByID)
	}
	if f.OverdueAt != nil {
		db = db.Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", *f.OverdueAt).
			Where("tasks.status NOT IN ?", []string{string(models.TaskStatusCompleted), string(models.TaskStatusCancelled)})
	}
	return db
}
