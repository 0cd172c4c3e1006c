package printform

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*PrintForm, error)
	Get(ctx context.Context, id string) (*PrintForm, error)
	Create(ctx context.Context, req CreateFormRequest, actor *internal.Identity) (*PrintForm, error)
	Update(ctx context.Context, id string, req UpdateFormRequest, actor *internal.Identity) (*PrintForm, error)
	Delete(ctx context.Context, id string, actor *internal.Identity) error
	Preview(ctx context.Context, id string, data map[string]interface{}) (*PreviewResponse, error)
	Export(ctx context.Context, id string, req DocumentRequest) (*ExportResponse, error)
	Print(ctx context.Context, id string, req DocumentRequest) (*PrintResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetForms handles GET /print-forms/forms
func (h *Handler) GetForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, FormsResponse{Forms: forms})
}

// GetForm handles GET /print-forms/forms/{id}
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, FormEnvelope{Form: form})
}

// CreateForm handles POST /print-forms/forms
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	form, err := h.Service.Create(r.Context(), req, internal.CallerFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, FormEnvelope{Message: "Print form created successfully", Form: form})
}

// UpdateForm handles PUT /print-forms/forms/{id}
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var req UpdateFormRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	form, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req, internal.CallerFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, FormEnvelope{Message: "Print form updated successfully", Form: form})
}

// DeleteForm handles DELETE /print-forms/forms/{id}
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), internal.CallerFromContext(r.Context())); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Print form deleted successfully"})
}

// PreviewForm handles GET /print-forms/forms/{id}/preview. Data comes from a
// JSON body when present, otherwise from the query string.
func (h *Handler) PreviewForm(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if req.Data == nil {
		req.Data = queryData(r)
	}

	resp, err := h.Service.Preview(r.Context(), chi.URLParam(r, "id"), req.Data)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// ExportDocument handles POST /print-forms/forms/{id}/export
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Export(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// PrintDocument handles POST /print-forms/forms/{id}/print
func (h *Handler) PrintDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Print(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.Logger.Error("PrintDocument: failed to queue print job", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func queryData(r *http.Request) map[string]interface{} {
	q := r.URL.Query()
	data := make(map[string]interface{}, len(q))
	for k, v := range q {
		if len(v) > 0 {
			data[k] = v[0]
		}
	}
	return data
}
