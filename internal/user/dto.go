package user

import (
	"time"

	"github.com/frahmantamala/pisda/internal/core/role"
)

// UserResponse is the public view of an account. The password hash is never part of it.
type UserResponse struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Role          role.Role  `json:"role"`
	EffectiveRole role.Role  `json:"effectiveRole"`
	Status        Status     `json:"status"`
	OriginalRole  *role.Role `json:"originalRole,omitempty"`
	BannedAt      *time.Time `json:"bannedAt,omitempty"`
	Profile       *Profile   `json:"profile,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLogin     *time.Time `json:"lastLogin"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

type UserEnvelope struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateUserInput struct {
	Username string
	Password string
	Role     role.Role
	Profile  *Profile
}

// UpdateUserRequest is the admin patch body. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Username *string       `json:"username,omitempty"`
	Password *string       `json:"password,omitempty"`
	Role     *string       `json:"role,omitempty"`
	Status   *string       `json:"status,omitempty"`
	Profile  *ProfilePatch `json:"profile,omitempty"`
}

// ProfilePatch merges into the stored profile field by field. An empty
// dismissalDate clears it.
type ProfilePatch struct {
	LastName       *string `json:"lastName,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	MiddleName     *string `json:"middleName,omitempty"`
	BirthYear      *int    `json:"birthYear,omitempty"`
	EmploymentDate *string `json:"employmentDate,omitempty"`
	DismissalDate  *string `json:"dismissalDate,omitempty"`
	Department     *string `json:"department,omitempty"`
	Section        *string `json:"section,omitempty"`
	Position       *string `json:"position,omitempty"`
	EmployeeStatus *string `json:"employeeStatus,omitempty"`
}

// SelfUpdateRequest is what a user may change on their own account.
type SelfUpdateRequest struct {
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	MiddleName      *string `json:"middleName,omitempty"`
	BirthYear       *int    `json:"birthYear,omitempty"`
	CurrentPassword string  `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

func ToResponses(users []*User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out
}
