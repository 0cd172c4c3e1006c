package printform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/common/validation"
	printformDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/printform"
	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*printformDatamodel.PrintForm, error)
	GetByID(ctx context.Context, id string) (*printformDatamodel.PrintForm, error)
	Create(ctx context.Context, row *printformDatamodel.PrintForm) error
	// Modify applies fn to the stored row and persists it atomically.
	Modify(ctx context.Context, id string, fn func(row *printformDatamodel.PrintForm) error) (*printformDatamodel.PrintForm, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]*PrintForm, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list print forms", "error", err)
		return nil, internal.NewInternalError("failed to list print forms", err)
	}

	forms := make([]*PrintForm, 0, len(rows))
	for _, row := range rows {
		forms = append(forms, FromDataModel(row))
	}
	return forms, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PrintForm, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("get print form", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, req CreateFormRequest, actor *internal.Identity) (*PrintForm, error) {
	v := validation.NewValidator()
	v.Field("name", req.Name).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	form := &PrintForm{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Template:    req.Template,
		Fields:      req.Fields,
		Settings:    DefaultSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   authorName(actor),
	}
	if req.Settings != nil {
		form.Settings = *req.Settings
	}

	row := ToDataModel(form)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapRepoError("create print form", err)
	}

	created := FromDataModel(row)
	s.logger.Info("print form created", "form_id", created.ID, "name", created.Name, "created_by", created.CreatedBy)
	s.publish(ctx, events.NewFormEvent(events.EventTypeFormCreated, created.ID, created.Name, created.CreatedBy))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateFormRequest, actor *internal.Identity) (*PrintForm, error) {
	if req.Name != nil {
		v := validation.NewValidator()
		v.Field("name", *req.Name).Required().MaxLength(200)
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	row, err := s.repo.Modify(ctx, id, func(row *printformDatamodel.PrintForm) error {
		if req.Name != nil {
			row.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			row.Description = *req.Description
		}
		if req.Template != nil {
			row.Template = *req.Template
		}
		if req.Fields != nil {
			row.Fields = *req.Fields
		}
		if req.Settings != nil {
			row.Settings = *req.Settings
		}
		row.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError("update print form", err)
	}

	updated := FromDataModel(row)
	s.publish(ctx, events.NewFormEvent(events.EventTypeFormUpdated, updated.ID, updated.Name, authorName(actor)))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string, actor *internal.Identity) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.mapRepoError("delete print form", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("delete print form", err)
	}

	s.logger.Info("print form deleted", "form_id", id)
	s.publish(ctx, events.NewFormEvent(events.EventTypeFormDeleted, id, row.Name, authorName(actor)))
	return nil
}

// Preview renders the template with data. No document engine is involved.
func (s *Service) Preview(ctx context.Context, id string, data map[string]interface{}) (*PreviewResponse, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	return &PreviewResponse{
		Form:      form,
		Data:      data,
		Preview:   fmt.Sprintf("Preview of form %q", form.Name),
		HTML:      form.Render(data),
		Timestamp: s.now(),
	}, nil
}

// Export returns a stub document description for the requested format.
func (s *Service) Export(ctx context.Context, id string, req DocumentRequest) (*ExportResponse, error) {
	format := strings.ToLower(req.Format)
	if format == "" {
		format = DefaultFormat
	}
	v := validation.NewValidator()
	v.Field("format", format).OneOf(ExportFormats, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data := req.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	now := s.now()
	content := form.Render(data)
	return &ExportResponse{
		Form: form,
		Data: data,
		Document: Document{
			Filename: fmt.Sprintf("%s_%d.%s", form.Name, now.UnixMilli(), format),
			Content:  content,
			Format:   format,
			Size:     len(content),
		},
		Timestamp: now,
	}, nil
}

// Print queues a stub print job.
func (s *Service) Print(ctx context.Context, id string, req DocumentRequest) (*PrintResponse, error) {
	copies := req.Copies
	if copies == 0 {
		copies = 1
	}
	v := validation.NewValidator()
	v.Field("copies", int64(copies)).
		MinInt(1, internal.ErrCodeValidationFailed).
		MaxInt(100, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data := req.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	printer := req.Printer
	if printer == "" {
		printer = DefaultPrinter
	}

	job := PrintJob{
		ID:      uuid.NewString(),
		Status:  "queued",
		Printer: printer,
		Copies:  copies,
	}
	s.logger.Info("print job queued", "form_id", form.ID, "job_id", job.ID, "printer", printer, "copies", copies)
	return &PrintResponse{
		Form:      form,
		Data:      data,
		PrintJob:  job,
		Timestamp: s.now(),
	}, nil
}

func (s *Service) mapRepoError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return internal.ErrFormNotFound
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error("print form repository failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func authorName(actor *internal.Identity) string {
	if actor == nil || actor.Username == "" {
		return SystemAuthor
	}
	return actor.Username
}
