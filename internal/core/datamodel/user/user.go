package user

import "time"

// User is the persisted account row. The JSON tags describe users.json; the
// password hash keeps the "password" key used by existing data files.
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"column:username;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"password"`
	Role         string     `gorm:"column:role;not null;default:user" json:"role"`
	Status       string     `gorm:"column:status;not null;default:active" json:"status"`
	OriginalRole *string    `gorm:"column:original_role" json:"originalRole,omitempty"`
	BannedAt     *time.Time `gorm:"column:banned_at" json:"bannedAt,omitempty"`
	Profile      *Profile   `gorm:"column:profile;serializer:json;type:text" json:"profile,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updatedAt"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

type Profile struct {
	LastName       string  `json:"lastName"`
	FirstName      string  `json:"firstName"`
	MiddleName     string  `json:"middleName"`
	BirthYear      *int    `json:"birthYear"`
	EmploymentDate string  `json:"employmentDate,omitempty"`
	DismissalDate  *string `json:"dismissalDate"`
	Department     string  `json:"department"`
	Section        string  `json:"section"`
	Position       string  `json:"position"`
	EmployeeStatus string  `json:"employeeStatus"`
}
