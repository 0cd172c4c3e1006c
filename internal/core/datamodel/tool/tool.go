package tool

import "time"

// Tool is one row per configured tool.
type Tool struct {
	Name        string    `gorm:"column:name;primaryKey"`
	Active      bool      `gorm:"column:active;not null"`
	Permissions []string  `gorm:"column:permissions;serializer:json;type:text"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	SortOrder   *int      `gorm:"column:sort_order"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Tool) TableName() string {
	return "tools"
}

// DefaultPermission lists the tools granted to a role by default.
type DefaultPermission struct {
	Role      string    `gorm:"column:role;primaryKey"`
	Tools     []string  `gorm:"column:tools;serializer:json;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (DefaultPermission) TableName() string {
	return "tool_default_permissions"
}
