package printform

import "time"

type CreateFormRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Template    string    `json:"template"`
	Fields      []Field   `json:"fields"`
	Settings    *Settings `json:"settings,omitempty"`
}

// UpdateFormRequest merges into the stored form. Absent fields are left unchanged.
type UpdateFormRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Template    *string   `json:"template,omitempty"`
	Fields      *[]Field  `json:"fields,omitempty"`
	Settings    *Settings `json:"settings,omitempty"`
}

// DocumentRequest carries the substitution data for preview, export and print.
type DocumentRequest struct {
	Data    map[string]interface{} `json:"data,omitempty"`
	Format  string                 `json:"format,omitempty"`
	Copies  int                    `json:"copies,omitempty"`
	Printer string                 `json:"printer,omitempty"`
}

type FormsResponse struct {
	Forms []*PrintForm `json:"forms"`
}

type FormEnvelope struct {
	Message string     `json:"message,omitempty"`
	Form    *PrintForm `json:"form"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PreviewResponse struct {
	Form      *PrintForm             `json:"form"`
	Data      map[string]interface{} `json:"data"`
	Preview   string                 `json:"preview"`
	HTML      string                 `json:"html"`
	Timestamp time.Time              `json:"timestamp"`
}

type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Format   string `json:"format"`
	Size     int    `json:"size"`
}

type ExportResponse struct {
	Form      *PrintForm             `json:"form"`
	Data      map[string]interface{} `json:"data"`
	Document  Document               `json:"document"`
	Timestamp time.Time              `json:"timestamp"`
}

type PrintJob struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Printer string `json:"printer"`
	Copies  int    `json:"copies"`
}

type PrintResponse struct {
	Form      *PrintForm             `json:"form"`
	Data      map[string]interface{} `json:"data"`
	PrintJob  PrintJob               `json:"printJob"`
	Timestamp time.Time              `json:"timestamp"`
}
