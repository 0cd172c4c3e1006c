package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/frahmantamala/pisda/internal/core/role"
)

// RepositoryAPI persists the tools configuration document.
type RepositoryAPI interface {
	// Load returns nil when nothing has been stored.
	Load(ctx context.Context) (*Config, error)
	// Update applies fn to the current document (DefaultConfig when absent) and stores it atomically.
	Update(ctx context.Context, fn func(cfg *Config) error) (*Config, error)
}

type Service struct {
	repo      RepositoryAPI
	registry  *Registry
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, registry *Registry, publisher events.Publisher, logger *slog.Logger) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Load returns the stored configuration with the auth invariants applied, or
// the default shape when nothing is stored.
func (s *Service) Load(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load tools config", "error", err)
		return nil, internal.NewInternalError("failed to load tools configuration", err)
	}
	if cfg == nil {
		return DefaultConfig(), nil
	}
	cfg.EnforceInvariants()
	return cfg, nil
}

// Save replaces the stored configuration. Submitted values that would disable
// auth or remove admin from it are corrected, not rejected.
func (s *Service) Save(ctx context.Context, cfg *Config) error {
	_, err := s.repo.Update(ctx, func(stored *Config) error {
		*stored = *cfg
		stored.EnforceInvariants()
		return nil
	})
	if err != nil {
		s.logger.Error("failed to save tools config", "error", err)
		return internal.NewInternalError("failed to save tools configuration", err)
	}
	return nil
}

// Merge applies an admin update. Payloads that disable auth or drop admin from
// its permissions are rejected and nothing is written.
func (s *Service) Merge(ctx context.Context, req ManageRequest, actorID int64) error {
	if err := validateManageRequest(req); err != nil {
		return err
	}

	_, err := s.repo.Update(ctx, func(cfg *Config) error {
		if cfg.Tools == nil {
			cfg.Tools = map[string]*ToolConfig{}
		}
		for name, tc := range req.Tools {
			if tc == nil {
				delete(cfg.Tools, name)
				continue
			}
			cfg.Tools[name] = tc
		}
		if req.DefaultPermissions != nil {
			cfg.DefaultPermissions = req.DefaultPermissions
		}
		cfg.EnforceInvariants()
		return nil
	})
	if err != nil {
		s.logger.Error("failed to merge tools config", "error", err)
		return internal.NewInternalError("failed to save tools configuration", err)
	}

	names := make([]string, 0, len(req.Tools))
	for name := range req.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	s.logger.Info("tools config updated", "tools", names, "actor_id", actorID)
	if err := s.publisher.Publish(ctx, events.NewToolsUpdatedEvent(names, actorID)); err != nil {
		s.logger.Warn("failed to publish tools event", "error", err)
	}
	return nil
}

func validateManageRequest(req ManageRequest) error {
	auth, present := req.Tools[AuthTool]
	if !present {
		return nil
	}
	if auth == nil {
		return internal.NewValidationError("The auth tool cannot be removed", internal.ErrCodeValidationFailed)
	}
	if auth.Permissions != nil && !auth.Permissions.Has(role.Admin) {
		return internal.NewValidationError("Administrator access to the auth tool cannot be removed", internal.ErrCodeValidationFailed)
	}
	if auth.Active != nil && !*auth.Active {
		return internal.NewValidationError("The auth tool cannot be disabled", internal.ErrCodeValidationFailed)
	}
	return nil
}

// CheckAccess decides whether r may use tool. Admin is always allowed and so
// is any tool without stored configuration.
func (s *Service) CheckAccess(ctx context.Context, tool string, r role.Role) error {
	if r == role.Admin {
		return nil
	}

	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	tc, ok := cfg.Tools[tool]
	if !ok || tc == nil {
		return nil
	}

	if !tc.IsActive() {
		return internal.NewForbiddenError(
			fmt.Sprintf("Tool %q has been disabled by an administrator", tool),
			internal.ErrCodeToolDisabled,
		).WithDetails(map[string]interface{}{"tool": tool, "status": "disabled"})
	}

	if tc.Permissions != nil && !tc.Permissions.Has(r) {
		return internal.NewForbiddenError(
			fmt.Sprintf("Access to tool %q is not permitted for your role", tool),
			internal.ErrCodeToolForbidden,
		).WithDetails(map[string]interface{}{"tool": tool, "role": r.String()})
	}

	return nil
}

// List returns the installed tools visible to r: admins see every tool, other
// roles see active tools that permit them.
func (s *Service) List(ctx context.Context, r role.Role) ([]ToolView, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ToolView, 0)
	for _, m := range s.registry.Manifests() {
		tc := cfg.Tools[m.Name]
		if r != role.Admin && !admits(tc, r) {
			continue
		}
		views = append(views, View(m, tc))
	}
	sortViews(views)
	return views, nil
}

// admits mirrors CheckAccess for non-admin roles: no stored config or no
// permission list means open.
func admits(tc *ToolConfig, r role.Role) bool {
	if tc == nil {
		return true
	}
	if !tc.IsActive() {
		return false
	}
	return tc.Permissions == nil || tc.Permissions.Has(r)
}

// Manage returns every installed tool plus the default permissions.
func (s *Service) Manage(ctx context.Context) (*ManageResponse, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ToolView, 0)
	for _, m := range s.registry.Manifests() {
		v := View(m, cfg.Tools[m.Name])
		v.IsInstalled = true
		views = append(views, v)
	}
	sortViews(views)

	return &ManageResponse{
		Tools:              views,
		DefaultPermissions: cfg.DefaultPermissions,
	}, nil
}

// SeedDefaults writes a config entry for every registered tool that has none,
// using the manifest's permissions and order. With reset the stored document
// is replaced first. It returns the names that were added.
func (s *Service) SeedDefaults(ctx context.Context, reset bool) ([]string, error) {
	var added []string
	_, err := s.repo.Update(ctx, func(cfg *Config) error {
		if reset {
			*cfg = *DefaultConfig()
		}
		if cfg.Tools == nil {
			cfg.Tools = map[string]*ToolConfig{}
		}
		for _, m := range s.registry.Manifests() {
			if _, ok := cfg.Tools[m.Name]; ok {
				continue
			}
			active := true
			order := m.Order
			tc := &ToolConfig{Active: &active, Title: m.Title, Description: m.Description}
			if order > 0 {
				tc.Order = &order
			}
			if len(m.Permissions) > 0 {
				tc.Permissions = role.NewSet(m.Permissions...)
			}
			cfg.Tools[m.Name] = tc
			added = append(added, m.Name)
		}
		cfg.EnforceInvariants()
		return nil
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to seed tools configuration", err)
	}
	return added, nil
}
