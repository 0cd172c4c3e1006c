package printform

import "time"

type PrintForm struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Template    string    `gorm:"column:template" json:"template"`
	Fields      []Field   `gorm:"column:fields;serializer:json;type:text" json:"fields"`
	Settings    Settings  `gorm:"column:settings;serializer:json;type:text" json:"settings"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
	CreatedBy   string    `gorm:"column:created_by" json:"createdBy"`
}

func (PrintForm) TableName() string {
	return "print_forms"
}

type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
}

type Settings struct {
	PageSize    string  `json:"pageSize"`
	Orientation string  `json:"orientation"`
	Margins     Margins `json:"margins"`
}

type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}
