package auth_test

import (
	"context"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/auth"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/tools"
	"github.com/frahmantamala/pisda/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func statusOf(err error) int {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.StatusCode
}

var _ = Describe("Service", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
	})

	restrictAuth := func(roles ...role.Role) {
		Expect(f.tools.Merge(ctx, tools.ManageRequest{Tools: map[string]*tools.ToolConfig{
			tools.AuthTool: {Permissions: role.NewSet(append(roles, role.Admin)...)},
		}}, f.admin.ID)).To(Succeed())
	}

	Describe("Login", func() {
		It("should issue a token and report the effective role", func() {
			f.createUser("alice", role.Editor)

			resp, err := f.service.Login(ctx, auth.LoginRequest{Username: "alice", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Token).NotTo(BeEmpty())
			Expect(resp.User.EffectiveRole).To(Equal(role.Editor))
			Expect(resp.User.LastLogin).NotTo(BeNil())
			Expect(resp.Warning).To(BeEmpty())

			claims, err := f.tokens.ValidateToken(resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(resp.User.ID))
		})

		DescribeTable("rejects bad input",
			func(req auth.LoginRequest, status int) {
				f.createUser("alice", role.User)
				_, err := f.service.Login(ctx, req)
				Expect(statusOf(err)).To(Equal(status))
			},
			Entry("missing username", auth.LoginRequest{Password: "secret1"}, http.StatusBadRequest),
			Entry("missing password", auth.LoginRequest{Username: "alice"}, http.StatusBadRequest),
			Entry("unknown user", auth.LoginRequest{Username: "nobody", Password: "secret1"}, http.StatusUnauthorized),
			Entry("wrong password", auth.LoginRequest{Username: "alice", Password: "wrong!!"}, http.StatusUnauthorized),
		)

		It("should block a dismissed employee after the dismissal date", func() {
			u := f.createUser("bob", role.User)
			_, err := f.users.Update(ctx, u.ID, user.UpdateUserRequest{Profile: &user.ProfilePatch{
				EmployeeStatus: strPtr(string(user.EmployeeDismissed)),
				DismissalDate:  strPtr("2026-01-15"),
			}}, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())

			resp, err := f.service.Login(ctx, auth.LoginRequest{Username: "bob", Password: "secret1"})
			Expect(resp).To(BeNil())
			Expect(err).To(MatchError(ContainSubstring("dismissed")))
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			stored, err := f.users.FindByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.LastLogin).To(BeNil())
		})

		It("should warn an employee on vacation", func() {
			u := f.createUser("carol", role.User)
			_, err := f.users.Update(ctx, u.ID, user.UpdateUserRequest{Profile: &user.ProfilePatch{
				EmployeeStatus: strPtr(string(user.EmployeeVacation)),
			}}, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())

			resp, err := f.service.Login(ctx, auth.LoginRequest{Username: "carol", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Token).NotTo(BeEmpty())
			Expect(resp.Warning).NotTo(BeEmpty())
		})

		It("should sign a banned account in as a guest when the auth tool is open", func() {
			u := f.createUser("dave", role.Editor)
			_, err := f.users.Ban(ctx, u.ID, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())

			resp, err := f.service.Login(ctx, auth.LoginRequest{Username: "dave", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Token).NotTo(BeEmpty())
			Expect(resp.User.Role).To(Equal(role.Editor))
			Expect(resp.User.EffectiveRole).To(Equal(role.Guest))
		})

		It("should reject a banned account when guests may not use the auth tool", func() {
			u := f.createUser("dave", role.Editor)
			_, err := f.users.Ban(ctx, u.ID, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())
			restrictAuth(role.User, role.Editor)

			_, err = f.service.Login(ctx, auth.LoginRequest{Username: "dave", Password: "secret1"})
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Body()).To(HaveKeyWithValue("role", "guest"))
		})

		It("should apply the auth tool gate to the effective role", func() {
			f.createUser("erin", role.User)
			restrictAuth(role.Editor)

			_, err := f.service.Login(ctx, auth.LoginRequest{Username: "erin", Password: "secret1"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Body()).To(HaveKeyWithValue("tool", tools.AuthTool))
			Expect(appErr.Body()).To(HaveKeyWithValue("role", "user"))

			_, err = f.service.Login(ctx, auth.LoginRequest{Username: "admin", Password: "admin123"})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Register", func() {
		It("should create a user for an anonymous caller", func() {
			created, err := f.service.Register(ctx, auth.RegisterRequest{Username: "frank", Password: "secret1"}, internal.GuestIdentity())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Role).To(Equal(role.User))
		})

		It("should refuse elevated roles for non-admin callers without creating a record", func() {
			editor := &internal.Identity{UserID: 9, Role: role.Editor, EffectiveRole: role.Editor}

			_, err := f.service.Register(ctx, auth.RegisterRequest{Username: "mallory", Password: "secret1", Role: "admin"}, editor)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			_, err = f.users.FindByUsername(ctx, "mallory")
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})

		It("should let an administrator create editors", func() {
			created, err := f.service.Register(ctx, auth.RegisterRequest{Username: "grace", Password: "secret1", Role: "editor"}, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Role).To(Equal(role.Editor))
		})

		It("should refuse a role without access to the auth tool", func() {
			restrictAuth(role.User)

			_, err := f.service.Register(ctx, auth.RegisterRequest{Username: "heidi", Password: "secret1", Role: "editor"}, f.adminIdentity())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusForbidden))
			Expect(appErr.Body()).To(HaveKeyWithValue("role", "editor"))
		})

		DescribeTable("validates input",
			func(req auth.RegisterRequest, status int) {
				_, err := f.service.Register(ctx, req, f.adminIdentity())
				Expect(statusOf(err)).To(Equal(status))
			},
			Entry("short password", auth.RegisterRequest{Username: "ivan", Password: "12345"}, http.StatusBadRequest),
			Entry("missing username", auth.RegisterRequest{Password: "secret1"}, http.StatusBadRequest),
			Entry("unknown role", auth.RegisterRequest{Username: "ivan", Password: "secret1", Role: "root"}, http.StatusBadRequest),
			Entry("guest role", auth.RegisterRequest{Username: "ivan", Password: "secret1", Role: "guest"}, http.StatusBadRequest),
			Entry("duplicate username", auth.RegisterRequest{Username: "admin", Password: "secret1"}, http.StatusConflict),
		)
	})

	Describe("Identify", func() {
		It("should resolve the current account state", func() {
			u := f.createUser("judy", role.Editor)
			token, err := f.tokens.GenerateToken(u)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.users.Ban(ctx, u.ID, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())

			id, err := f.service.Identify(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(id.Role).To(Equal(role.Editor))
			Expect(id.EffectiveRole).To(Equal(role.Guest))
			Expect(id.BannedAt).NotTo(BeNil())
		})

		It("should reject an invalid token with 403", func() {
			_, err := f.service.Identify(ctx, "garbage")
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("should reject a token for a deleted account with 401", func() {
			u := f.createUser("ken", role.User)
			token, err := f.tokens.GenerateToken(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.users.Delete(ctx, u.ID, f.adminIdentity())).To(Succeed())

			_, err = f.service.Identify(ctx, token)
			Expect(statusOf(err)).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Verify", func() {
		It("should refuse guests", func() {
			_, err := f.service.Verify(ctx, internal.GuestIdentity())
			Expect(statusOf(err)).To(Equal(http.StatusUnauthorized))
		})

		It("should re-check the account on every call", func() {
			u := f.createUser("leo", role.User)
			caller := &internal.Identity{UserID: u.ID, Role: role.User, EffectiveRole: role.User}

			resp, err := f.service.Verify(ctx, caller)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Valid).To(BeTrue())
			Expect(resp.User.Username).To(Equal("leo"))

			restrictAuth(role.Editor)
			_, err = f.service.Verify(ctx, caller)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("should reject a banned account even with a valid token", func() {
			u := f.createUser("mia", role.User)
			_, err := f.users.Ban(ctx, u.ID, f.adminIdentity())
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Verify(ctx, &internal.Identity{UserID: u.ID, Role: role.User, EffectiveRole: role.Guest})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserBanned))
			Expect(appErr.Body()).To(HaveKey("bannedAt"))
		})
	})

	Describe("Profile", func() {
		It("should change the password only with the current one", func() {
			u := f.createUser("nina", role.User)

			_, err := f.service.UpdateProfile(ctx, u.ID, user.SelfUpdateRequest{CurrentPassword: "wrong!!", NewPassword: strPtr("newsecret")})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

			updated, err := f.service.UpdateProfile(ctx, u.ID, user.SelfUpdateRequest{
				FirstName:       strPtr("Nina"),
				CurrentPassword: "secret1",
				NewPassword:     strPtr("newsecret"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Profile.FirstName).To(Equal("Nina"))

			_, err = f.service.Login(ctx, auth.LoginRequest{Username: "nina", Password: "newsecret"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should describe every role", func() {
			roles := f.service.Roles()
			Expect(roles).To(HaveLen(4))
			Expect(roles["editor"].Level).To(Equal(2))
		})
	})
})
