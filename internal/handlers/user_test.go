package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/dto"
)

func TestUserHandler_AdminOnly(t *testing.T) {
	env := setupHandlerTestEnv(t)
	userToken, _ := env.signupAndLogin(t, "alice")

	w := env.do(t, http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_ListAndGet(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, aliceID := env.signupAndLogin(t, "alice")
	adminToken, _ := env.signupAndLogin(t, "root", "ADMIN")

	w := env.do(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]dto.UserResponse](t, w)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, []string{"ADMIN"}, users[1].Roles)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodGet, "/api/users?limit=1&page=2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users = decode[[]dto.UserResponse](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0].Username)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", aliceID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode[dto.UserResponse](t, w).Email)

	w = env.do(t, http.MethodGet, "/api/users/777", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_Delete(t *testing.T) {
	env := setupHandlerTestEnv(t)
	aliceToken, aliceID := env.signupAndLogin(t, "alice")
	adminToken, _ := env.signupAndLogin(t, "root", "ADMIN")

	w := env.do(t, http.MethodPost, "/api/tasks", aliceToken, map[string]interface{}{"title": "Alice's task"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[dto.TaskResponse](t, w)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", aliceID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", aliceID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
