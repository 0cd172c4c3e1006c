package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Handler", func() {
	var (
		service *user.Service
		handler *user.Handler
		router  chi.Router
		caller  *internal.Identity
		bob     *user.User
	)

	BeforeEach(func() {
		service = user.NewService(NewMockRepository(), bcrypt.MinCost, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx := context.Background()
		admin, _, err := service.EnsureBootstrapAdmin(ctx, "admin123")
		Expect(err).NotTo(HaveOccurred())
		bob, err = service.Create(ctx, user.CreateUserInput{Username: "bob", Password: "secret1", Role: role.User}, admin.ID)
		Expect(err).NotTo(HaveOccurred())

		caller = &internal.Identity{UserID: admin.ID, Username: "admin", Role: role.Admin, EffectiveRole: role.Admin}
		handler = user.NewHandler(service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithIdentity(r.Context(), caller)))
			})
		})
		router.Get("/users", handler.GetUsers)
		router.Get("/users/{userId}", handler.GetUser)
		router.Put("/users/{userId}", handler.UpdateUser)
		router.Post("/users/{userId}/ban", handler.BanUser)
		router.Post("/users/{userId}/unban", handler.UnbanUser)
		router.Delete("/users/{userId}", handler.DeleteUser)
	})

	do := func(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var decoded map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &decoded)).To(Succeed())
		return rec, decoded
	}

	It("should list users without password hashes", func() {
		rec, body := do(http.MethodGet, "/users", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))

		users := body["users"].([]interface{})
		Expect(users).To(HaveLen(2))
		Expect(users[1].(map[string]interface{})).To(HaveKeyWithValue("effectiveRole", "user"))
	})

	It("should ban and unban a user", func() {
		rec, body := do(http.MethodPost, "/users/2/ban", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		u := body["user"].(map[string]interface{})
		Expect(u).To(HaveKeyWithValue("status", "banned"))
		Expect(u).To(HaveKeyWithValue("effectiveRole", "guest"))
		Expect(u).To(HaveKeyWithValue("originalRole", "user"))

		rec, body = do(http.MethodPost, "/users/2/unban", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(body["user"].(map[string]interface{})).To(HaveKeyWithValue("role", "user"))
	})

	It("should reject banning the caller's own account", func() {
		rec, body := do(http.MethodPost, "/users/1/ban", nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(body).To(HaveKeyWithValue("code", string(internal.ErrCodeSelfOperation)))
	})

	It("should return 404 for missing users", func() {
		rec, body := do(http.MethodDelete, "/users/42", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(body).To(HaveKey("error"))
	})

	It("should reject non-numeric ids", func() {
		rec, _ := do(http.MethodGet, "/users/abc", nil)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should update a user", func() {
		rec, body := do(http.MethodPut, "/users/2", map[string]interface{}{"role": "editor"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(body["user"].(map[string]interface{})).To(HaveKeyWithValue("role", "editor"))
	})

	It("should reject malformed bodies", func() {
		req := httptest.NewRequest(http.MethodPut, "/users/2", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should delete a user", func() {
		rec, _ := do(http.MethodDelete, "/users/2", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		_, err := service.FindByID(context.Background(), bob.ID)
		Expect(err).To(HaveOccurred())
	})
})
