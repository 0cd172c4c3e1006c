package tools

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, r role.Role) ([]ToolView, error)
	Manage(ctx context.Context) (*ManageResponse, error)
	Merge(ctx context.Context, req ManageRequest, actorID int64) error
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

// GetTools handles GET /tools
func (h *Handler) GetTools(w http.ResponseWriter, r *http.Request) {
	caller := internal.CallerFromContext(r.Context())

	views, err := h.Service.List(r.Context(), caller.EffectiveRole)
	if err != nil {
		h.Logger.Error("GetTools: failed to list tools", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, views)
}

// GetManage handles GET /tools/manage
func (h *Handler) GetManage(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Manage(r.Context())
	if err != nil {
		h.Logger.Error("GetManage: failed to load tools", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateManage handles POST /tools/manage
func (h *Handler) UpdateManage(w http.ResponseWriter, r *http.Request) {
	var req ManageRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	caller := internal.CallerFromContext(r.Context())
	if err := h.Service.Merge(r.Context(), req, caller.UserID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ManageResult{Success: true, Message: "Tool settings saved"})
}
