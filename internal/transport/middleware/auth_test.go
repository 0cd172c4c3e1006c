package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Authenticate", func() {
	var (
		resolver *stubResolver
		seen     *internal.Identity
		handler  http.Handler
	)

	BeforeEach(func() {
		seen = nil
		resolver = &stubResolver{identities: map[string]*internal.Identity{
			"editor-token": {UserID: 7, Username: "alice", Role: role.Editor, EffectiveRole: role.Editor, Status: "active"},
		}}
		handler = middleware.Authenticate(resolver, transport.NewBaseHandler(nil))(captureIdentity(&seen))
	})

	It("should continue as guest without a token", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(seen.IsGuest()).To(BeTrue())
		Expect(seen.EffectiveRole).To(Equal(role.Guest))
	})

	It("should attach the resolved identity", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
		req.Header.Set("Authorization", "Bearer editor-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(seen.UserID).To(Equal(int64(7)))
		Expect(seen.EffectiveRole).To(Equal(role.Editor))
	})

	It("should reject an invalid token with 403", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(seen).To(BeNil())

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["code"]).To(Equal(string(internal.ErrCodeInvalidToken)))
	})

	It("should reject a token for a deleted account with 401", func() {
		resolver.err = internal.NewUnauthorizedError("User not found", internal.ErrCodeUserNotFound)
		req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
		req.Header.Set("Authorization", "Bearer editor-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should validate the credential of a non-bearer scheme and reject it", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(seen).To(BeNil())
	})

	It("should continue as guest when the header carries no credential", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
		req.Header.Set("Authorization", "Bearer")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(seen.IsGuest()).To(BeTrue())
	})
})
