package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/auth"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/printform"
	"github.com/frahmantamala/pisda/internal/tools"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/internal/transport/middleware"
	"github.com/frahmantamala/pisda/internal/transport/swagger"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/go-chi/chi"
)

// Routes carries everything the router needs. Nil handlers leave their
// routes unregistered; a nil Metrics disables /metrics.
type Routes struct {
	Config *internal.Config
	Logger *slog.Logger

	Identity middleware.IdentityResolver
	ToolGate middleware.ToolGate
	Metrics  *middleware.Metrics
	Docs     *swagger.Document

	Health     *HealthHandler
	Auth       *auth.Handler
	Users      *user.Handler
	Tools      *tools.Handler
	PrintForms *printform.Handler
}

func RegisterAllRoutes(router *chi.Mux, rt Routes) {
	cfg := rt.Config
	if cfg == nil {
		cfg = internal.DefaultConfig()
	}
	lg := rt.Logger
	if lg == nil {
		lg = slog.Default()
	}
	base := transport.NewBaseHandler(lg)
	authz := middleware.NewAuthorization(rt.ToolGate, base)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(lg, cfg.IsDevelopment()))
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes, base))
	}
	router.Use(middleware.LoggingMiddleware(lg))
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(middleware.SecurityHeaders(!cfg.IsDevelopment()))
	if rt.Metrics != nil {
		router.Use(rt.Metrics.Middleware)
	}

	if rt.Metrics != nil {
		router.Handle(cfg.Observability.Metrics.Path, rt.Metrics.Handler())
	}
	if rt.Docs != nil {
		router.Get("/openapi.yml", rt.Docs.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}
	if cfg.Server.StorageDir != "" {
		router.Handle("/storage/*", storageHandler("/storage/", cfg.Server.StorageDir))
	}

	router.Route("/api", func(r chi.Router) {
		r.NotFound(apiNotFound(base))
		if cfg.RateLimit.Enabled {
			r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
		}

		if rt.Health != nil {
			r.Get("/health", rt.Health.Health)
			r.Get("/ping", rt.Health.Ping)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.Identity, base))

			if rt.Auth != nil {
				r.Route("/auth", func(ar chi.Router) {
					ar.Post("/login", rt.Auth.Login)
					ar.Post("/register", rt.Auth.Register)
					ar.Get("/verify", rt.Auth.Verify)
					ar.Get("/roles", rt.Auth.GetRoles)

					ar.Group(func(pr chi.Router) {
						pr.Use(authz.RequireActive)
						pr.Use(authz.RequireTool(tools.AuthTool))
						pr.Use(authz.RequireMinRole(role.User))
						pr.Get("/profile", rt.Auth.GetProfile)
						pr.Put("/profile", rt.Auth.UpdateProfile)
					})

					if rt.Users != nil {
						registerUserRoutes(ar, rt.Users, authz)
					}
				})
			}

			if rt.Tools != nil {
				r.Get("/tools", rt.Tools.GetTools)
				r.Group(func(mr chi.Router) {
					mr.Use(authz.RequireMinRole(role.Admin))
					mr.Get("/tools/manage", rt.Tools.GetManage)
					mr.Post("/tools/manage", rt.Tools.UpdateManage)
				})
			}

			if rt.PrintForms != nil {
				r.Route("/print-forms/forms", func(fr chi.Router) {
					fr.Use(authz.RequireActive)
					fr.Use(authz.RequireTool(printform.ToolName))
					fr.Use(authz.RequireMinRole(role.Editor))

					fr.Get("/", rt.PrintForms.GetForms)
					fr.Post("/", rt.PrintForms.CreateForm)
					fr.Get("/{id}", rt.PrintForms.GetForm)
					fr.Put("/{id}", rt.PrintForms.UpdateForm)
					fr.Delete("/{id}", rt.PrintForms.DeleteForm)
					fr.Get("/{id}/preview", rt.PrintForms.PreviewForm)
					fr.Post("/{id}/export", rt.PrintForms.ExportDocument)
					fr.Post("/{id}/print", rt.PrintForms.PrintDocument)
				})
			}
		})
	})

	if cfg.Server.WebDir != "" {
		router.NotFound(newSPAHandler(cfg.Server.WebDir).ServeHTTP)
	}
}

func registerUserRoutes(r chi.Router, h *user.Handler, authz *middleware.Authorization) {
	r.Route("/users", func(ur chi.Router) {
		ur.Use(authz.RequireActive)
		ur.Use(authz.RequireTool(tools.AuthTool))

		ur.With(authz.RequireMinRole(role.Admin)).Get("/", h.GetUsers)
		ur.With(authz.RequireOwnerOrAdmin("userId")).Get("/{userId}", h.GetUser)

		ur.Group(func(ar chi.Router) {
			ar.Use(authz.RequireMinRole(role.Admin))
			ar.Put("/{userId}", h.UpdateUser)
			ar.Post("/{userId}/ban", h.BanUser)
			ar.Post("/{userId}/unban", h.UnbanUser)
			ar.Delete("/{userId}", h.DeleteUser)
		})
	})
}

// compile-time checks
var (
	_ middleware.IdentityResolver = (*auth.Service)(nil)
	_ middleware.ToolGate         = (*tools.Service)(nil)
	_ http.Handler                = (*spaHandler)(nil)
)
