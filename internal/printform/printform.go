package printform

import (
	"errors"
	"time"

	printformDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/printform"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/tools"
)

// ToolName is the registry name that gates the print-form routes.
const ToolName = "print-forms"

const (
	DefaultPageSize    = "A4"
	DefaultOrientation = "portrait"
	DefaultMargin      = 20
	DefaultFormat      = "pdf"
	DefaultPrinter     = "default"
	SystemAuthor       = "system"
)

func Manifest() tools.Manifest {
	return tools.Manifest{
		Name:        ToolName,
		Title:       "Print Forms",
		Description: "Document templates with preview, export and printing",
		Permissions: []role.Role{role.Editor, role.Admin},
		Order:       2,
	}
}

// ExportFormats lists the formats Export accepts.
var ExportFormats = []string{"pdf", "docx", "xlsx", "html"}

var ErrNotFound = errors.New("print form not found")

type (
	Field    = printformDatamodel.Field
	Settings = printformDatamodel.Settings
	Margins  = printformDatamodel.Margins
)

type PrintForm struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Template    string    `json:"template"`
	Fields      []Field   `json:"fields"`
	Settings    Settings  `json:"settings"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CreatedBy   string    `json:"createdBy"`
}

func DefaultSettings() Settings {
	return Settings{
		PageSize:    DefaultPageSize,
		Orientation: DefaultOrientation,
		Margins: Margins{
			Top:    DefaultMargin,
			Right:  DefaultMargin,
			Bottom: DefaultMargin,
			Left:   DefaultMargin,
		},
	}
}

// Render substitutes the form's {field} tokens with data.
func (f *PrintForm) Render(data map[string]interface{}) string {
	return Render(f.Template, f.Fields, data)
}

func ToDataModel(f *PrintForm) *printformDatamodel.PrintForm {
	fields := f.Fields
	if fields == nil {
		fields = []Field{}
	}
	return &printformDatamodel.PrintForm{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Template:    f.Template,
		Fields:      fields,
		Settings:    f.Settings,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		CreatedBy:   f.CreatedBy,
	}
}

func FromDataModel(row *printformDatamodel.PrintForm) *PrintForm {
	fields := row.Fields
	if fields == nil {
		fields = []Field{}
	}
	return &PrintForm{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Template:    row.Template,
		Fields:      fields,
		Settings:    row.Settings,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		CreatedBy:   row.CreatedBy,
	}
}
