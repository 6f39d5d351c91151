package dto

import (
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// UserResponse represents a user in API responses
type UserResponse struct {
	ID       uint64   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// JwtResponse is returned by a successful login
type JwtResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       uint64   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// ToUserResponse converts a User model to UserResponse
func ToUserResponse(user models.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    roles,
	}
}

func ToUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, user := range users {
		out[i] = ToUserResponse(user)
	}
	return out
}

// ToJwtResponse builds the login response for user and its signed token
func ToJwtResponse(token string, user models.User) JwtResponse {
	u := ToUserResponse(user)
	return JwtResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
	}
}
