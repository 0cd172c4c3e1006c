package tools

import (
	"sort"
	"sync"

	"github.com/frahmantamala/pisda/internal/core/role"
)

const (
	// AuthTool is always active and always grants admin access.
	AuthTool = "auth"

	defaultOrder = 999
)

// ToolConfig is the stored override for one tool. A nil Active means active;
// nil Permissions means every role is permitted.
type ToolConfig struct {
	Active      *bool    `json:"active,omitempty"`
	Permissions role.Set `json:"permissions"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Order       *int     `json:"order,omitempty"`
}

func (c *ToolConfig) IsActive() bool {
	return c == nil || c.Active == nil || *c.Active
}

// Config is the whole tools configuration document.
type Config struct {
	Tools              map[string]*ToolConfig `json:"tools"`
	DefaultPermissions map[string][]string    `json:"defaultPermissions"`
}

// DefaultConfig is the shape used when nothing has been stored yet.
func DefaultConfig() *Config {
	return &Config{
		Tools: map[string]*ToolConfig{},
		DefaultPermissions: map[string][]string{
			role.Guest.String():  {},
			role.User.String():   {},
			role.Editor.String(): {},
			role.Admin.String():  {},
		},
	}
}

// EnforceInvariants keeps the auth tool active and admin-accessible.
func (c *Config) EnforceInvariants() {
	if c.Tools == nil {
		c.Tools = map[string]*ToolConfig{}
	}
	if c.DefaultPermissions == nil {
		c.DefaultPermissions = map[string][]string{}
	}

	auth, ok := c.Tools[AuthTool]
	if !ok || auth == nil {
		return
	}
	active := true
	auth.Active = &active
	if auth.Permissions != nil && !auth.Permissions.Has(role.Admin) {
		auth.Permissions.Add(role.Admin)
	}
}

// Manifest describes a tool compiled into the server.
type Manifest struct {
	Name        string
	Title       string
	Description string
	Permissions []role.Role
	Order       int
}

// Registry holds the manifests of the installed tools.
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]Manifest
}

func NewRegistry(manifests ...Manifest) *Registry {
	r := &Registry{manifests: make(map[string]Manifest, len(manifests))}
	for _, m := range manifests {
		r.Register(m)
	}
	return r
}

func (r *Registry) Register(m Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[m.Name] = m
}

func (r *Registry) Get(name string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[name]
	return m, ok
}

// Manifests returns the registered manifests sorted by name.
func (r *Registry) Manifests() []Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Manifest, 0, len(r.manifests))
	for _, m := range r.manifests {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// View merges the stored config over a manifest.
func View(m Manifest, cfg *ToolConfig) ToolView {
	v := ToolView{
		Name:        m.Name,
		Title:       m.Name,
		Description: m.Description,
		Active:      cfg.IsActive(),
		Order:       defaultOrder,
	}
	if m.Title != "" {
		v.Title = m.Title
	}
	if m.Order > 0 {
		v.Order = m.Order
	}

	perms := role.NewSet(role.Guest)
	if len(m.Permissions) > 0 {
		perms = role.NewSet(m.Permissions...)
	}

	if cfg != nil {
		if cfg.Title != "" {
			v.Title = cfg.Title
		}
		if cfg.Description != "" {
			v.Description = cfg.Description
		}
		if cfg.Permissions != nil {
			perms = cfg.Permissions
		}
		if cfg.Order != nil {
			v.Order = *cfg.Order
		}
	}
	v.Permissions = perms.Names()
	return v
}

func sortViews(views []ToolView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Order != views[j].Order {
			return views[i].Order < views[j].Order
		}
		return views[i].Name < views[j].Name
	})
}
