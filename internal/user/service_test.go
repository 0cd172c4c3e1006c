package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func statusOf(err error) int {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.StatusCode
}

var _ = Describe("Service", func() {
	var (
		repo    *MockRepository
		service *user.Service
		ctx     context.Context
		admin   *user.User
		alice   *user.User
		adminID *internal.Identity
		fixedAt time.Time
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		service = user.NewService(repo, bcrypt.MinCost, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		fixedAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		service.SetClock(func() time.Time { return fixedAt })
		ctx = context.Background()

		var err error
		admin, _, err = service.EnsureBootstrapAdmin(ctx, "admin123")
		Expect(err).NotTo(HaveOccurred())
		alice, err = service.Create(ctx, user.CreateUserInput{Username: "alice", Password: "secret1", Role: role.Editor}, admin.ID)
		Expect(err).NotTo(HaveOccurred())

		adminID = &internal.Identity{UserID: admin.ID, Username: admin.Username, Role: role.Admin, EffectiveRole: role.Admin}
	})

	Describe("EnsureBootstrapAdmin", func() {
		It("should create the admin account with id 1 once", func() {
			Expect(admin.ID).To(Equal(int64(1)))
			Expect(admin.Role).To(Equal(role.Admin))
			Expect(service.ValidatePassword(admin, "admin123")).To(BeTrue())

			again, created, err := service.EnsureBootstrapAdmin(ctx, "other-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(again.ID).To(Equal(admin.ID))
		})
	})

	Describe("Create", func() {
		It("should hash the password before storing it", func() {
			stored := repo.Stored(alice.ID)
			Expect(stored.PasswordHash).NotTo(Equal("secret1"))
			Expect(service.ValidatePassword(alice, "secret1")).To(BeTrue())
			Expect(service.ValidatePassword(alice, "wrong")).To(BeFalse())
		})

		It("should allocate the next id", func() {
			Expect(alice.ID).To(Equal(int64(2)))
		})

		It("should reject duplicate usernames with a conflict", func() {
			_, err := service.Create(ctx, user.CreateUserInput{Username: "alice", Password: "secret2", Role: role.User}, 0)
			Expect(errors.Is(err, internal.ErrUserExists)).To(BeTrue())
			Expect(statusOf(err)).To(Equal(http.StatusConflict))
		})

		It("should never persist the guest role", func() {
			_, err := service.Create(ctx, user.CreateUserInput{Username: "ghost", Password: "secret2", Role: role.Guest}, 0)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should reject short passwords", func() {
			_, err := service.Create(ctx, user.CreateUserInput{Username: "bob", Password: "12345", Role: role.User}, 0)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Ban and Unban", func() {
		It("should demote the effective role to guest and restore the original role", func() {
			banned, err := service.Ban(ctx, alice.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(banned.Status).To(Equal(user.StatusBanned))
			Expect(banned.EffectiveRole()).To(Equal(role.Guest))
			Expect(*banned.OriginalRole).To(Equal(role.Editor))
			Expect(*banned.BannedAt).To(Equal(fixedAt))

			unbanned, err := service.Unban(ctx, alice.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unbanned.Status).To(Equal(user.StatusActive))
			Expect(unbanned.Role).To(Equal(role.Editor))
			Expect(unbanned.EffectiveRole()).To(Equal(role.Editor))
			Expect(unbanned.OriginalRole).To(BeNil())
			Expect(unbanned.BannedAt).To(BeNil())
		})

		It("should reject banning an already banned user", func() {
			_, err := service.Ban(ctx, alice.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Ban(ctx, alice.ID, adminID)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should reject unbanning an active user", func() {
			_, err := service.Unban(ctx, alice.ID, adminID)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should return not found for unknown users", func() {
			_, err := service.Ban(ctx, 99, adminID)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})

		It("should apply role changes on a banned account at unban time", func() {
			_, err := service.Ban(ctx, alice.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			updated, err := service.Update(ctx, alice.ID, user.UpdateUserRequest{Role: strPtr("user")}, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.EffectiveRole()).To(Equal(role.Guest))

			unbanned, err := service.Unban(ctx, alice.ID, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unbanned.Role).To(Equal(role.User))
		})
	})

	Describe("bootstrap admin protections", func() {
		var otherAdmin *internal.Identity

		BeforeEach(func() {
			second, err := service.Create(ctx, user.CreateUserInput{Username: "root2", Password: "secret3", Role: role.Admin}, admin.ID)
			Expect(err).NotTo(HaveOccurred())
			otherAdmin = &internal.Identity{UserID: second.ID, Username: second.Username, Role: role.Admin, EffectiveRole: role.Admin}
		})

		It("should never ban the bootstrap admin", func() {
			_, err := service.Ban(ctx, admin.ID, otherAdmin)
			Expect(errors.Is(err, internal.ErrProtectedAccount)).To(BeTrue())
			Expect(repo.Stored(admin.ID).Status).To(Equal("active"))
		})

		It("should never delete the bootstrap admin", func() {
			err := service.Delete(ctx, admin.ID, otherAdmin)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
			Expect(repo.Stored(admin.ID)).NotTo(BeNil())
		})

		DescribeTable("should reject patches that change role, status or username",
			func(req user.UpdateUserRequest) {
				_, err := service.Update(ctx, admin.ID, req, otherAdmin)
				Expect(errors.Is(err, internal.ErrProtectedAccount)).To(BeTrue())
				stored := repo.Stored(admin.ID)
				Expect(stored.Role).To(Equal("admin"))
				Expect(stored.Status).To(Equal("active"))
				Expect(stored.Username).To(Equal("admin"))
			},
			Entry("demotion", user.UpdateUserRequest{Role: strPtr("editor")}),
			Entry("ban through status", user.UpdateUserRequest{Status: strPtr("banned")}),
			Entry("rename", user.UpdateUserRequest{Username: strPtr("root")}),
		)

		It("should still allow profile edits", func() {
			updated, err := service.Update(ctx, admin.ID, user.UpdateUserRequest{
				Profile: &user.ProfilePatch{Department: strPtr("Security")},
			}, otherAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Profile.Department).To(Equal("Security"))
			Expect(updated.Profile.LastName).To(Equal("Administrator"))
		})
	})

	Describe("self protections", func() {
		var self *internal.Identity

		BeforeEach(func() {
			second, err := service.Create(ctx, user.CreateUserInput{Username: "root2", Password: "secret3", Role: role.Admin}, admin.ID)
			Expect(err).NotTo(HaveOccurred())
			self = &internal.Identity{UserID: second.ID, Username: second.Username, Role: role.Admin, EffectiveRole: role.Admin}
		})

		It("should not let a user ban themself", func() {
			_, err := service.Ban(ctx, self.UserID, self)
			Expect(errors.Is(err, internal.ErrSelfOperation)).To(BeTrue())
			Expect(repo.Stored(self.UserID).Status).To(Equal("active"))
		})

		It("should not let a user delete themself", func() {
			err := service.Delete(ctx, self.UserID, self)
			Expect(errors.Is(err, internal.ErrSelfOperation)).To(BeTrue())
			Expect(repo.Stored(self.UserID)).NotTo(BeNil())
		})

		It("should not let a user demote themself", func() {
			_, err := service.Update(ctx, self.UserID, user.UpdateUserRequest{Role: strPtr("user")}, self)
			Expect(errors.Is(err, internal.ErrSelfOperation)).To(BeTrue())
			Expect(repo.Stored(self.UserID).Role).To(Equal("admin"))
		})
	})

	Describe("Update", func() {
		It("should reject renaming onto an existing username", func() {
			_, err := service.Update(ctx, alice.ID, user.UpdateUserRequest{Username: strPtr("admin")}, adminID)
			Expect(statusOf(err)).To(Equal(http.StatusConflict))
		})

		It("should rehash a new password", func() {
			_, err := service.Update(ctx, alice.ID, user.UpdateUserRequest{Password: strPtr("newpass1")}, adminID)
			Expect(err).NotTo(HaveOccurred())
			reloaded, err := service.FindByID(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.ValidatePassword(reloaded, "newpass1")).To(BeTrue())
		})

		It("should validate profile dates and statuses", func() {
			_, err := service.Update(ctx, alice.ID, user.UpdateUserRequest{
				Profile: &user.ProfilePatch{DismissalDate: strPtr("yesterday")},
			}, adminID)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

			_, err = service.Update(ctx, alice.ID, user.UpdateUserRequest{
				Profile: &user.ProfilePatch{EmployeeStatus: strPtr("retired")},
			}, adminID)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should route a status change through ban semantics", func() {
			updated, err := service.Update(ctx, alice.ID, user.UpdateUserRequest{Status: strPtr("banned")}, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.OriginalRole).To(Equal(role.Editor))
			Expect(updated.BannedAt).NotTo(BeNil())
		})
	})

	Describe("UpdateSelf", func() {
		It("should require the current password to change it", func() {
			_, err := service.UpdateSelf(ctx, alice.ID, user.SelfUpdateRequest{NewPassword: strPtr("another1")})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

			_, err = service.UpdateSelf(ctx, alice.ID, user.SelfUpdateRequest{CurrentPassword: "wrong", NewPassword: strPtr("another1")})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

			updated, err := service.UpdateSelf(ctx, alice.ID, user.SelfUpdateRequest{CurrentPassword: "secret1", NewPassword: strPtr("another1")})
			Expect(err).NotTo(HaveOccurred())
			Expect(service.ValidatePassword(updated, "another1")).To(BeTrue())
		})

		It("should update personal name fields", func() {
			updated, err := service.UpdateSelf(ctx, alice.ID, user.SelfUpdateRequest{FirstName: strPtr("Alice"), LastName: strPtr("Smith")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Profile.FirstName).To(Equal("Alice"))
			Expect(updated.Profile.LastName).To(Equal("Smith"))
			Expect(updated.Role).To(Equal(role.Editor))
		})
	})

	Describe("Delete", func() {
		It("should remove the account", func() {
			Expect(service.Delete(ctx, alice.ID, adminID)).To(Succeed())
			_, err := service.FindByID(ctx, alice.ID)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("UpdateLastLogin", func() {
		It("should stamp the login time", func() {
			updated, err := service.UpdateLastLogin(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.LastLogin).To(Equal(fixedAt))
		})
	})

	Describe("repository failures", func() {
		It("should surface them as internal errors", func() {
			repo.shouldFail = true
			repo.failError = errors.New("disk full")
			_, err := service.ListAll(ctx)
			Expect(statusOf(err)).To(Equal(http.StatusInternalServerError))
		})
	})
})

var _ = Describe("User", func() {
	DescribeTable("EffectiveRole",
		func(r role.Role, status user.Status, expected role.Role) {
			u := &user.User{Role: r, Status: status}
			Expect(u.EffectiveRole()).To(Equal(expected))
		},
		Entry("active user", role.User, user.StatusActive, role.User),
		Entry("active editor", role.Editor, user.StatusActive, role.Editor),
		Entry("active admin", role.Admin, user.StatusActive, role.Admin),
		Entry("banned editor", role.Editor, user.StatusBanned, role.Guest),
		Entry("banned admin", role.Admin, user.StatusBanned, role.Guest),
	)

	Describe("CheckEmployment", func() {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		profileWith := func(status user.EmployeeStatus, dismissal string) *user.User {
			p := &user.Profile{EmployeeStatus: status}
			if dismissal != "" {
				p.DismissalDate = &dismissal
			}
			return &user.User{Profile: p}
		}

		It("should allow accounts without a profile", func() {
			Expect((&user.User{}).CheckEmployment(now).Allowed).To(BeTrue())
		})

		It("should block dismissed employees after their dismissal date", func() {
			check := profileWith(user.EmployeeDismissed, "2025-01-31").CheckEmployment(now)
			Expect(check.Allowed).To(BeFalse())
			Expect(check.Reason).NotTo(BeEmpty())
		})

		It("should allow dismissed employees before their dismissal date", func() {
			Expect(profileWith(user.EmployeeDismissed, "2025-12-31").CheckEmployment(now).Allowed).To(BeTrue())
		})

		It("should allow dismissed employees without a dismissal date", func() {
			Expect(profileWith(user.EmployeeDismissed, "").CheckEmployment(now).Allowed).To(BeTrue())
		})

		It("should warn about vacation and sick leave", func() {
			vacation := profileWith(user.EmployeeVacation, "").CheckEmployment(now)
			Expect(vacation.Allowed).To(BeTrue())
			Expect(vacation.Warning).NotTo(BeEmpty())

			sick := profileWith(user.EmployeeSickLeave, "").CheckEmployment(now)
			Expect(sick.Allowed).To(BeTrue())
			Expect(sick.Warning).NotTo(BeEmpty())
		})
	})
})
