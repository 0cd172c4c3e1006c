package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/frahmantamala/pisda/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest, caller *internal.Identity) (*user.User, error)
	Verify(ctx context.Context, caller *internal.Identity) (*VerifyResponse, error)
	Profile(ctx context.Context, id int64) (*user.User, error)
	UpdateProfile(ctx context.Context, id int64, req user.SelfUpdateRequest) (*user.User, error)
	Roles() map[string]role.Info
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), req)
	if err != nil {
		h.Logger.Debug("Login: authentication failed", "username", req.Username, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	created, err := h.Service.Register(r.Context(), req, internal.CallerFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, user.UserEnvelope{
		Message: "User created successfully",
		User:    created.ToResponse(),
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	caller := internal.CallerFromContext(r.Context())
	if caller.IsGuest() {
		h.WriteJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Error: internal.ErrAuthRequired.Message})
		return
	}

	resp, err := h.Service.Verify(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller := internal.CallerFromContext(r.Context())

	u, err := h.Service.Profile(r.Context(), caller.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, user.UserEnvelope{User: u.ToResponse()})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req user.SelfUpdateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	caller := internal.CallerFromContext(r.Context())
	u, err := h.Service.UpdateProfile(r.Context(), caller.UserID, req)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, user.UserEnvelope{
		Message: "Profile updated successfully",
		User:    u.ToResponse(),
	})
}

func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, RolesResponse{Roles: h.Service.Roles()})
}
