package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when inserting the user row fails.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateUserRoles is returned when inserting the role rows fails.
	ErrCreateUserRoles = errors.New("user repository: create user roles failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts the user and its roles atomically.
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		if len(user.Roles) == 0 {
			return nil
		}

		rows := make([]models.UserRole, len(user.Roles))
		for i, role := range user.Roles {
			rows[i] = models.UserRole{UserID: user.ID, Role: role}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUserRoles, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	if err := r.attachRoles(ctx, []*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if err := r.attachRoles(ctx, []*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *GormUserRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns users ordered by ID
func (r *GormUserRepository) List(ctx context.Context, page *utils.PaginationParams) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Scopes(database.Paginate(page)).
		Find(&users).Error; err != nil {
		return nil, err
	}

	ptrs := make([]*models.User, len(users))
	for i := range users {
		ptrs[i] = &users[i]
	}
	if err := r.attachRoles(ctx, ptrs); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user together with the tasks it created; tasks assigned to it lose their assignee.
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("assigned_to_id = ?", id).
			Update("assigned_to_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unassign tasks: %w", err)
		}

		if err := tx.Where("created_by_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete created tasks: %w", err)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to delete roles: %w", err)
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// attachRoles loads role rows for users with a single query.
func (r *GormUserRepository) attachRoles(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	var rows []models.UserRole
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("role ASC").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}

	byUser := make(map[uint64][]string, len(users))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.Role)
	}
	for _, u := range users {
		u.Roles = byUser[u.ID]
		if u.Roles == nil {
			u.Roles = []string{}
		}
	}
	return nil
}
