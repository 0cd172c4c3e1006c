package user

import (
	"errors"
	"time"

	"github.com/frahmantamala/pisda/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/user"
	"github.com/frahmantamala/pisda/internal/core/role"
)

// BootstrapUsername is the seeded administrator that can never be deleted, banned, renamed or demoted.
const BootstrapUsername = "admin"

type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

type EmployeeStatus string

const (
	EmployeeActive    EmployeeStatus = "active"
	EmployeeDismissed EmployeeStatus = "dismissed"
	EmployeeVacation  EmployeeStatus = "vacation"
	EmployeeSickLeave EmployeeStatus = "sick_leave"
)

var EmployeeStatuses = []string{
	string(EmployeeActive),
	string(EmployeeDismissed),
	string(EmployeeVacation),
	string(EmployeeSickLeave),
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         role.Role
	Status       Status
	OriginalRole *role.Role
	BannedAt     *time.Time
	Profile      *Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

type Profile struct {
	LastName       string         `json:"lastName"`
	FirstName      string         `json:"firstName"`
	MiddleName     string         `json:"middleName"`
	BirthYear      *int           `json:"birthYear"`
	EmploymentDate string         `json:"employmentDate,omitempty"`
	DismissalDate  *string        `json:"dismissalDate"`
	Department     string         `json:"department"`
	Section        string         `json:"section"`
	Position       string         `json:"position"`
	EmployeeStatus EmployeeStatus `json:"employeeStatus"`
}

// EffectiveRole is the role used for every authorization decision.
func (u *User) EffectiveRole() role.Role {
	if u.Status == StatusBanned {
		return role.Guest
	}
	return u.Role
}

func (u *User) IsBanned() bool {
	return u.Status == StatusBanned
}

func (u *User) IsBootstrapAdmin() bool {
	return u.Username == BootstrapUsername
}

// Ban demotes the effective role to guest while remembering the stored role.
func (u *User) Ban(now time.Time) {
	original := u.Role
	u.OriginalRole = &original
	u.Status = StatusBanned
	u.BannedAt = &now
	u.UpdatedAt = now
}

// Unban restores the role captured by Ban.
func (u *User) Unban(now time.Time) {
	if u.OriginalRole != nil {
		u.Role = *u.OriginalRole
	}
	u.OriginalRole = nil
	u.BannedAt = nil
	u.Status = StatusActive
	u.UpdatedAt = now
}

// EmploymentCheck is the outcome of the employment gate.
type EmploymentCheck struct {
	Allowed bool
	Reason  string
	Warning string
}

// CheckEmployment blocks dismissed employees once their dismissal date has
// passed and warns about employees on leave. Accounts without a profile pass.
func (u *User) CheckEmployment(now time.Time) EmploymentCheck {
	if u.Profile == nil || u.Profile.EmployeeStatus == "" {
		return EmploymentCheck{Allowed: true}
	}

	switch u.Profile.EmployeeStatus {
	case EmployeeDismissed:
		if u.Profile.DismissalDate == nil || *u.Profile.DismissalDate == "" {
			return EmploymentCheck{Allowed: true}
		}
		dismissed, err := time.Parse(validation.DateLayout, *u.Profile.DismissalDate)
		if err != nil {
			return EmploymentCheck{Allowed: true}
		}
		if now.After(dismissed) {
			return EmploymentCheck{Allowed: false, Reason: "Access denied: employee has been dismissed"}
		}
	case EmployeeSickLeave:
		return EmploymentCheck{Allowed: true, Warning: "Employee is on sick leave"}
	case EmployeeVacation:
		return EmploymentCheck{Allowed: true, Warning: "Employee is on vacation"}
	}

	return EmploymentCheck{Allowed: true}
}

func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		EffectiveRole: u.EffectiveRole(),
		Status:        u.Status,
		OriginalRole:  u.OriginalRole,
		BannedAt:      u.BannedAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLogin:     u.LastLogin,
	}
	if u.Profile != nil {
		p := *u.Profile
		resp.Profile = &p
	}
	return resp
}

func ToDataModel(u *User) *userDatamodel.User {
	row := &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		Status:       string(u.Status),
		BannedAt:     u.BannedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    u.LastLogin,
	}
	if u.OriginalRole != nil {
		original := u.OriginalRole.String()
		row.OriginalRole = &original
	}
	if u.Profile != nil {
		row.Profile = &userDatamodel.Profile{
			LastName:       u.Profile.LastName,
			FirstName:      u.Profile.FirstName,
			MiddleName:     u.Profile.MiddleName,
			BirthYear:      u.Profile.BirthYear,
			EmploymentDate: u.Profile.EmploymentDate,
			DismissalDate:  u.Profile.DismissalDate,
			Department:     u.Profile.Department,
			Section:        u.Profile.Section,
			Position:       u.Profile.Position,
			EmployeeStatus: string(u.Profile.EmployeeStatus),
		}
	}
	return row
}

// FromDataModel tolerates unknown role names in stored rows by falling back to user.
func FromDataModel(row *userDatamodel.User) *User {
	u := &User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Role:         parseStoredRole(row.Role),
		Status:       Status(row.Status),
		BannedAt:     row.BannedAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin,
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if row.OriginalRole != nil {
		original := parseStoredRole(*row.OriginalRole)
		u.OriginalRole = &original
	}
	if row.Profile != nil {
		u.Profile = &Profile{
			LastName:       row.Profile.LastName,
			FirstName:      row.Profile.FirstName,
			MiddleName:     row.Profile.MiddleName,
			BirthYear:      row.Profile.BirthYear,
			EmploymentDate: row.Profile.EmploymentDate,
			DismissalDate:  row.Profile.DismissalDate,
			Department:     row.Profile.Department,
			Section:        row.Profile.Section,
			Position:       row.Profile.Position,
			EmployeeStatus: EmployeeStatus(row.Profile.EmployeeStatus),
		}
	}
	return u
}

func parseStoredRole(s string) role.Role {
	r, err := role.Parse(s)
	if err != nil || !r.Persistable() {
		return role.User
	}
	return r
}
