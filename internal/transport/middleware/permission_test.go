package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/transport/middleware"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func decodeBody(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("Authorization", func() {
	var (
		gate  *stubGate
		authz *middleware.Authorization
	)

	BeforeEach(func() {
		gate = &stubGate{denied: map[string]error{}}
		authz = middleware.NewAuthorization(gate, nil)
	})

	Describe("RequireMinRole", func() {
		DescribeTable("editor minimum",
			func(r role.Role, expected int) {
				req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/print-forms/forms", nil),
					&internal.Identity{UserID: 1, Role: r, EffectiveRole: r})
				rec := httptest.NewRecorder()
				authz.RequireMinRole(role.Editor)(okHandler).ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(expected))
			},
			Entry("guest", role.Guest, http.StatusForbidden),
			Entry("user", role.User, http.StatusForbidden),
			Entry("editor", role.Editor, http.StatusOK),
			Entry("admin", role.Admin, http.StatusOK),
		)

		It("should report the required and current role", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			rec := httptest.NewRecorder()
			authz.RequireMinRole(role.Admin)(okHandler).ServeHTTP(rec, req)

			body := decodeBody(rec)
			Expect(body["code"]).To(Equal(string(internal.ErrCodeInsufficientRole)))
			Expect(body["required"]).To(Equal("admin"))
			Expect(body["current"]).To(Equal("guest"))
		})

		It("should use the effective role of a banned account", func() {
			req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil),
				&internal.Identity{UserID: 3, Role: role.Editor, EffectiveRole: role.Guest, Status: "banned"})
			rec := httptest.NewRecorder()
			authz.RequireMinRole(role.User)(okHandler).ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("RequireTool", func() {
		It("should pass when the gate allows the role", func() {
			req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil),
				&internal.Identity{UserID: 2, Role: role.Editor, EffectiveRole: role.Editor})
			rec := httptest.NewRecorder()
			authz.RequireTool("print-forms")(okHandler).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(gate.calls).To(ConsistOf("print-forms:editor"))
		})

		It("should forward the gate's rejection", func() {
			gate.denied["print-forms"] = internal.NewForbiddenError("disabled", internal.ErrCodeToolDisabled).
				WithDetails(map[string]interface{}{"tool": "print-forms", "status": "disabled"})
			req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil),
				&internal.Identity{UserID: 2, Role: role.Editor, EffectiveRole: role.Editor})
			rec := httptest.NewRecorder()
			authz.RequireTool("print-forms")(okHandler).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			body := decodeBody(rec)
			Expect(body["code"]).To(Equal(string(internal.ErrCodeToolDisabled)))
			Expect(body["tool"]).To(Equal("print-forms"))
		})

		It("should fail closed when the configuration cannot be read", func() {
			gate.denied["print-forms"] = internal.NewInternalError("failed to load tool configuration", nil)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			authz.RequireTool("print-forms")(okHandler).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("RequireOwnerOrAdmin", func() {
		var router *chi.Mux

		serve := func(path string, id *internal.Identity) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, path, nil), id))
			return rec
		}

		BeforeEach(func() {
			router = chi.NewRouter()
			router.With(authz.RequireOwnerOrAdmin("userId")).Get("/users/{userId}", okHandler)
		})

		It("should let the owner through", func() {
			rec := serve("/users/5", &internal.Identity{UserID: 5, Role: role.User, EffectiveRole: role.User})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should reject another user", func() {
			rec := serve("/users/6", &internal.Identity{UserID: 5, Role: role.User, EffectiveRole: role.User})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decodeBody(rec)["code"]).To(Equal(string(internal.ErrCodeNotOwner)))
		})

		It("should let an admin read any account", func() {
			rec := serve("/users/6", &internal.Identity{UserID: 1, Role: role.Admin, EffectiveRole: role.Admin})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should reject a guest", func() {
			rec := serve("/users/5", internal.GuestIdentity())
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should reject a malformed id", func() {
			rec := serve("/users/abc", &internal.Identity{UserID: 5, Role: role.User, EffectiveRole: role.User})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RequireActive", func() {
		It("should reject a banned account with the ban time", func() {
			bannedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
			req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil),
				&internal.Identity{UserID: 3, Role: role.User, EffectiveRole: role.Guest, Status: "banned", BannedAt: &bannedAt})
			rec := httptest.NewRecorder()
			authz.RequireActive(okHandler).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			body := decodeBody(rec)
			Expect(body["code"]).To(Equal(string(internal.ErrCodeUserBanned)))
			Expect(body["bannedAt"]).To(Equal("2026-02-01T10:00:00Z"))
		})

		It("should pass active accounts and guests", func() {
			for _, id := range []*internal.Identity{
				internal.GuestIdentity(),
				{UserID: 4, Role: role.User, EffectiveRole: role.User, Status: "active"},
			} {
				rec := httptest.NewRecorder()
				authz.RequireActive(okHandler).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), id))
				Expect(rec.Code).To(Equal(http.StatusOK))
			}
		})
	})
})
