package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

var (
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrEmailTaken           = errors.New("email is already in use")
	ErrDuplicateUser        = errors.New("username or email already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidUsername      = errors.New("username must be between 3 and 50 characters")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// UserService handles registration, authentication and user administration.
type UserService struct {
	store      repository.Store
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, bcryptCost int) *UserService {
	return &UserService{
		store:      store,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// Register creates a new user with the requested roles (USER when none are given).
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}

	roles, err := NormalizeRoles(input.Roles)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	now := s.now().UTC()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
		Roles:        roles,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		users := tx.Users()

		taken, err := users.ExistsByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return ErrUsernameTaken
		}

		taken, err = users.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return ErrEmailTaken
		}

		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUser
			}
			return fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials. Unknown users and wrong passwords are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetAll returns every user, optionally paginated.
func (s *UserService) GetAll(ctx context.Context, page *utils.PaginationParams) ([]models.User, error) {
	users, err := s.store.Users().List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Delete removes a user. Tasks it created go with it; tasks assigned to it become unassigned.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// EnsureAdmin creates an administrator account, or returns the existing one when
// username already belongs to an administrator.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	existing, err := s.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		if existing.HasRole(constants.RoleAdmin) {
			return existing, false, nil
		}
		return nil, false, ErrUsernameTaken
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, err
	}

	user, err := s.Register(ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Roles:    []string{constants.RoleAdmin},
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// NormalizeRoles upper-cases role names, strips a ROLE_ prefix and removes duplicates.
// An empty set becomes {USER}.
func NormalizeRoles(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	roles := make([]string, 0, len(raw))

	for _, r := range raw {
		role := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(r)), "ROLE_")
		if role != constants.RoleUser && role != constants.RoleAdmin {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, r)
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	if len(roles) == 0 {
		return []string{constants.RoleUser}, nil
	}
	sort.Strings(roles)
	return roles, nil
}
