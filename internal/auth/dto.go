package auth

import (
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/user"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    user.UserResponse `json:"user"`
	Warning string            `json:"warning,omitempty"`
}

// RegisterRequest creates an account. Role defaults to "user".
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type VerifyResponse struct {
	Valid   bool               `json:"valid"`
	User    *user.UserResponse `json:"user,omitempty"`
	Warning string             `json:"warning,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type RolesResponse struct {
	Roles map[string]role.Info `json:"roles"`
}
