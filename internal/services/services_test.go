package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/logger"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type serviceTestEnv struct {
	store repository.Store
	users *UserService
	tasks *TaskService
	clock time.Time
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBDSN: ":memory:"}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	env := &serviceTestEnv{
		store: repository.NewStore(db),
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	env.users = NewUserService(env.store, bcrypt.MinCost)
	env.tasks = NewTaskService(env.store)
	env.users.now = func() time.Time { return env.clock }
	env.tasks.now = func() time.Time { return env.clock }
	return env
}

func (env *serviceTestEnv) register(t *testing.T, username string, roles ...string) *models.User {
	t.Helper()
	user, err := env.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Roles:    roles,
	})
	require.NoError(t, err)
	return user
}

func principalFor(user *models.User) *auth.Principal {
	return &auth.Principal{UserID: user.ID, Username: user.Username, Roles: user.Roles}
}
