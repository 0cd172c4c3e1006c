package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/pkg/logger"
)

type ServiceAPI interface {
	ListAll(ctx context.Context) ([]*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, id int64, req UpdateUserRequest, actor *internal.Identity) (*User, error)
	Ban(ctx context.Context, id int64, actor *internal.Identity) (*User, error)
	Unban(ctx context.Context, id int64, actor *internal.Identity) (*User, error)
	Delete(ctx context.Context, id int64, actor *internal.Identity) error
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

// GetUsers handles GET /auth/users
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListAll(r.Context())
	if err != nil {
		h.Logger.Error("GetUsers: failed to list users", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: ToResponses(users)})
}

// GetUser handles GET /auth/users/{userId}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Int64Param(r, "userId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserEnvelope{User: u.ToResponse()})
}

// UpdateUser handles PUT /auth/users/{userId}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Int64Param(r, "userId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	actor := internal.CallerFromContext(r.Context())
	u, err := h.Service.Update(r.Context(), id, req, actor)
	if err != nil {
		h.Logger.Warn("UpdateUser: update rejected", "user_id", id, "actor_id", actor.UserID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserEnvelope{Message: "User updated", User: u.ToResponse()})
}

// BanUser handles POST /auth/users/{userId}/ban
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Int64Param(r, "userId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	actor := internal.CallerFromContext(r.Context())
	u, err := h.Service.Ban(r.Context(), id, actor)
	if err != nil {
		h.Logger.Warn("BanUser: ban rejected", "user_id", id, "actor_id", actor.UserID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserEnvelope{Message: "User banned", User: u.ToResponse()})
}

// UnbanUser handles POST /auth/users/{userId}/unban
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Int64Param(r, "userId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	actor := internal.CallerFromContext(r.Context())
	u, err := h.Service.Unban(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserEnvelope{Message: "User unbanned", User: u.ToResponse()})
}

// DeleteUser handles DELETE /auth/users/{userId}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Int64Param(r, "userId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	actor := internal.CallerFromContext(r.Context())
	if err := h.Service.Delete(r.Context(), id, actor); err != nil {
		h.Logger.Warn("DeleteUser: delete rejected", "user_id", id, "actor_id", actor.UserID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}
