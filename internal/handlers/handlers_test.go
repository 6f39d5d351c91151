package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/logger"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"golang.org/x/crypto/bcrypt"
)

type handlerTestEnv struct {
	router      *gin.Engine
	userService *services.UserService
	tokens      *auth.TokenManager
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBDSN: ":memory:"}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log := logger.Discard()
	store := repository.NewStore(db)
	userService := services.NewUserService(store, bcrypt.MinCost)
	taskService := services.NewTaskService(store)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	authHandler := NewAuthHandler(userService, tokens, auth.NoopRevoker{}, log)
	taskHandler := NewTaskHandler(taskService, log)
	userHandler := NewUserHandler(userService, log)

	r := gin.New()
	requireAuth := middleware.RequireAuth(tokens, auth.NoopRevoker{}, log)

	r.POST("/api/auth/signup", authHandler.Signup)
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/auth/me", requireAuth, authHandler.GetCurrentUser)

	tasks := r.Group("/api/tasks", requireAuth, middleware.RequireRoles(constants.RoleUser, constants.RoleAdmin))
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("", taskHandler.ListTasks)
	tasks.GET("/overdue", taskHandler.ListOverdueTasks)
	tasks.GET("/stats", taskHandler.GetStats)
	tasks.GET("/user/:userId", taskHandler.ListTasksByAssignee)
	tasks.GET("/creator/:userId", taskHandler.ListTasksByCreator)
	tasks.GET("/status/:status", taskHandler.ListTasksByStatus)
	tasks.GET("/priority/:priority", taskHandler.ListTasksByPriority)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", middleware.RequireRoles(constants.RoleAdmin), taskHandler.DeleteTask)

	users := r.Group("/api/users", requireAuth, middleware.RequireRoles(constants.RoleAdmin))
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	return &handlerTestEnv{
		router:      r,
		userService: userService,
		tokens:      tokens,
	}
}

func (env *handlerTestEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signupAndLogin registers a user through the API and returns its token and id.
func (env *handlerTestEnv) signupAndLogin(t *testing.T, username string, roles ...string) (string, uint64) {
	t.Helper()

	payload := map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}
	if len(roles) > 0 {
		payload["roles"] = roles
	}
	w := env.do(t, http.MethodPost, "/api/auth/signup", "", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		ID    uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
