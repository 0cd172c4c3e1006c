package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/tools"
	"github.com/frahmantamala/pisda/internal/user"
)

// Manifest registers the auth tool. Every role may sign in by default.
func Manifest() tools.Manifest {
	return tools.Manifest{
		Name:        tools.AuthTool,
		Title:       "Authentication",
		Description: "Sign-in, registration and user management",
		Permissions: role.All,
		Order:       1,
	}
}

// UserService is the part of the user service that authentication needs.
type UserService interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	ValidatePassword(u *user.User, plain string) bool
	Create(ctx context.Context, in user.CreateUserInput, actorID int64) (*user.User, error)
	UpdateSelf(ctx context.Context, id int64, req user.SelfUpdateRequest) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id int64) (*user.User, error)
	Now() time.Time
}

// ToolGate decides whether a role may use a tool.
type ToolGate interface {
	CheckAccess(ctx context.Context, tool string, r role.Role) error
}

type Service struct {
	users  UserService
	tools  ToolGate
	tokens TokenGenerator
	logger *slog.Logger
}

func NewService(users UserService, gate ToolGate, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tools:  gate,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies credentials, applies the employment gate and the auth tool
// gate for the effective role, and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, internal.NewValidationError("Username and password are required", internal.ErrCodeValidationFailed)
	}

	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.users.ValidatePassword(u, req.Password) {
		s.logger.Info("login rejected: bad password", "username", req.Username)
		return nil, internal.ErrInvalidCredentials
	}

	check := u.CheckEmployment(s.users.Now())
	if !check.Allowed {
		s.logger.Info("login rejected: employment gate", "user_id", u.ID, "reason", check.Reason)
		return nil, internal.NewForbiddenError(check.Reason, internal.ErrCodeEmployeeBlocked)
	}

	// A banned account signs in as a guest when the auth tool admits guests.
	if err := s.tools.CheckAccess(ctx, tools.AuthTool, u.EffectiveRole()); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	updated, err := s.users.UpdateLastLogin(ctx, u.ID)
	if err != nil {
		s.logger.Warn("failed to record last login", "user_id", u.ID, "error", err)
	} else {
		u = updated
	}

	s.logger.Info("user logged in", "user_id", u.ID, "effective_role", u.EffectiveRole().String())
	return &LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    u.ToResponse(),
		Warning: check.Warning,
	}, nil
}

// Register creates an account. Only administrators may request a role other
// than user, and the target role must be allowed to use the auth tool.
func (s *Service) Register(ctx context.Context, req RegisterRequest, caller *internal.Identity) (*user.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, internal.NewValidationError("Username and password are required", internal.ErrCodeValidationFailed)
	}
	if len(req.Password) < 6 {
		return nil, internal.NewValidationFieldError("password", "Password must be at least 6 characters", internal.ErrCodeValidationFailed)
	}

	requested := role.User
	if req.Role != "" {
		r, err := role.Parse(req.Role)
		if err != nil || !r.Persistable() {
			return nil, internal.NewValidationError("Role must be one of: user, editor, admin", internal.ErrCodeInvalidRole)
		}
		requested = r
	}

	allowed := []string{role.User.String()}
	if caller.IsAdmin() {
		allowed = append(allowed, role.Editor.String(), role.Admin.String())
	}
	if requested != role.User && !caller.IsAdmin() {
		s.logger.Warn("register rejected: role not allowed", "requested", requested.String(), "caller_id", caller.UserID)
		return nil, internal.NewForbiddenError(
			"Insufficient rights to create a user with this role. Allowed roles: "+strings.Join(allowed, ", "),
			internal.ErrCodeInsufficientRole,
		)
	}

	if err := s.tools.CheckAccess(ctx, tools.AuthTool, requested); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode == http.StatusForbidden {
			return nil, internal.NewForbiddenError(
				"Cannot create a user with a role that has no access to authentication",
				appErr.Code,
			).WithDetails(appErr.Details)
		}
		return nil, err
	}

	return s.users.Create(ctx, user.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     requested,
	}, caller.UserID)
}

// Identify resolves a bearer token to the current state of its account.
func (s *Service) Identify(ctx context.Context, token string) (*internal.Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.NewUnauthorizedError("User not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}

	return &internal.Identity{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		Status:        string(u.Status),
		EffectiveRole: u.EffectiveRole(),
		BannedAt:      u.BannedAt,
	}, nil
}

// Verify re-authorizes a token holder against the current account state so
// that a ban or a disabled tool takes effect on the next call.
func (s *Service) Verify(ctx context.Context, caller *internal.Identity) (*VerifyResponse, error) {
	if caller.IsGuest() {
		return nil, internal.ErrAuthRequired
	}

	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.NewUnauthorizedError("User not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}

	if u.IsBanned() {
		return nil, bannedError(u)
	}

	check := u.CheckEmployment(s.users.Now())
	if !check.Allowed {
		return nil, internal.NewForbiddenError(check.Reason, internal.ErrCodeEmployeeBlocked)
	}

	if err := s.tools.CheckAccess(ctx, tools.AuthTool, u.EffectiveRole()); err != nil {
		return nil, err
	}

	resp := u.ToResponse()
	return &VerifyResponse{Valid: true, User: &resp, Warning: check.Warning}, nil
}

func (s *Service) Profile(ctx context.Context, id int64) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, req user.SelfUpdateRequest) (*user.User, error) {
	return s.users.UpdateSelf(ctx, id, req)
}

func (s *Service) Roles() map[string]role.Info {
	return role.Infos()
}

func bannedError(u *user.User) *internal.AppError {
	details := map[string]interface{}{"status": string(u.Status)}
	if u.BannedAt != nil {
		details["bannedAt"] = u.BannedAt
	}
	return internal.ErrUserBanned.WithDetails(details)
}
