package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/user"
	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/frahmantamala/pisda/internal/core/role"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryAPI stores account rows. Lookups return ErrNotFound for missing
// rows; writes that would duplicate a username return ErrDuplicateUsername.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	// Create assigns the next id to row.
	Create(ctx context.Context, row *userDatamodel.User) error
	// Modify applies fn to the stored row and persists it atomically.
	Modify(ctx context.Context, id int64, fn func(row *userDatamodel.User) error) (*userDatamodel.User, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	publisher  events.Publisher
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

func NewService(repo RepositoryAPI, bcryptCost int, publisher events.Publisher, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("find user by id", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.mapRepoError("find user by username", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) ListAll(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) ValidatePassword(u *User, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (s *Service) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.bcryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

// Create stores a new active account. actorID is 0 for self-registration and seeding.
func (s *Service) Create(ctx context.Context, in CreateUserInput, actorID int64) (*User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateNewPassword(in.Password); err != nil {
		return nil, err
	}
	if !in.Role.Persistable() {
		return nil, internal.NewValidationError("Role must be one of: user, editor, admin", internal.ErrCodeInvalidRole)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       StatusActive,
		Profile:      in.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Profile == nil {
		u.Profile = &Profile{
			EmploymentDate: now.Format(validation.DateLayout),
			EmployeeStatus: EmployeeActive,
		}
	}

	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapRepoError("create user", err)
	}

	created := FromDataModel(row)
	s.logger.Info("user created", "user_id", created.ID, "username", created.Username, "role", created.Role.String())
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserCreated, created.ID, created.Username, actorID))
	return created, nil
}

// Update applies an admin patch. Status changes go through the same rules as Ban and Unban.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest, actor *internal.Identity) (*User, error) {
	var newRole *role.Role
	if req.Role != nil {
		r, err := role.Parse(*req.Role)
		if err != nil || !r.Persistable() {
			return nil, internal.NewValidationError("Role must be one of: user, editor, admin", internal.ErrCodeInvalidRole)
		}
		newRole = &r
	}

	var newStatus *Status
	if req.Status != nil {
		st := Status(*req.Status)
		if st != StatusActive && st != StatusBanned {
			return nil, internal.NewValidationError("Status must be one of: active, banned", internal.ErrCodeInvalidStatus)
		}
		newStatus = &st
	}

	if req.Username != nil {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			return nil, err
		}
	}

	var newHash string
	if req.Password != nil {
		if err := validation.ValidateNewPassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		newHash = hash
	}

	if req.Profile != nil {
		if err := validateProfilePatch(req.Profile); err != nil {
			return nil, err
		}
	}

	self := actor != nil && actor.UserID == id
	now := s.now()

	updated, err := s.modify(ctx, id, func(u *User) error {
		if u.IsBootstrapAdmin() {
			if req.Username != nil && *req.Username != u.Username {
				return internal.ErrProtectedAccount
			}
			if newRole != nil && *newRole != u.Role {
				return internal.ErrProtectedAccount
			}
			if newStatus != nil && *newStatus != u.Status {
				return internal.ErrProtectedAccount
			}
		}
		if self {
			if newRole != nil && newRole.Level() < u.Role.Level() {
				return internal.ErrSelfOperation
			}
			if newStatus != nil && *newStatus == StatusBanned {
				return internal.ErrSelfOperation
			}
		}

		if req.Username != nil {
			u.Username = *req.Username
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		if newRole != nil {
			if u.IsBanned() {
				// Role changes on a banned account take effect on unban.
				r := *newRole
				u.OriginalRole = &r
			} else {
				u.Role = *newRole
			}
		}
		if newStatus != nil && *newStatus != u.Status {
			if *newStatus == StatusBanned {
				u.Ban(now)
			} else {
				u.Unban(now)
			}
		}
		if req.Profile != nil {
			u.Profile = applyProfilePatch(u.Profile, req.Profile)
		}
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", updated.ID, "actor_id", actorID(actor))
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserUpdated, updated.ID, updated.Username, actorID(actor)))
	return updated, nil
}

// UpdateSelf changes personal fields and, when the current password matches, the password.
func (s *Service) UpdateSelf(ctx context.Context, id int64, req SelfUpdateRequest) (*User, error) {
	var newHash string
	if req.NewPassword != nil {
		if req.CurrentPassword == "" {
			return nil, internal.NewValidationFieldError("currentPassword", "currentPassword is required to change the password", internal.ErrCodeValidationFailed)
		}
		if err := validation.ValidateNewPassword(*req.NewPassword); err != nil {
			return nil, err
		}
		current, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !s.ValidatePassword(current, req.CurrentPassword) {
			return nil, internal.NewValidationFieldError("currentPassword", "current password is incorrect", internal.ErrCodeInvalidCredentials)
		}
		hash, err := s.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		newHash = hash
	}

	if req.BirthYear != nil {
		v := validation.NewValidator()
		v.Field("birthYear", int64(*req.BirthYear)).
			MinInt(1900, internal.ErrCodeValidationFailed).
			MaxInt(int64(s.now().Year()), internal.ErrCodeValidationFailed)
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updated, err := s.modify(ctx, id, func(u *User) error {
		u.Profile = applyProfilePatch(u.Profile, &ProfilePatch{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			MiddleName: req.MiddleName,
			BirthYear:  req.BirthYear,
		})
		if newHash != "" {
			u.PasswordHash = newHash
		}
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewUserEvent(events.EventTypeUserUpdated, updated.ID, updated.Username, updated.ID))
	return updated, nil
}

func (s *Service) Ban(ctx context.Context, id int64, actor *internal.Identity) (*User, error) {
	if actor != nil && actor.UserID == id {
		return nil, internal.ErrSelfOperation
	}

	now := s.now()
	banned, err := s.modify(ctx, id, func(u *User) error {
		if u.IsBootstrapAdmin() {
			return internal.ErrProtectedAccount
		}
		if u.IsBanned() {
			return internal.NewValidationError("User is already banned", internal.ErrCodeInvalidStatus)
		}
		u.Ban(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user banned", "user_id", banned.ID, "actor_id", actorID(actor))
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserBanned, banned.ID, banned.Username, actorID(actor)))
	return banned, nil
}

func (s *Service) Unban(ctx context.Context, id int64, actor *internal.Identity) (*User, error) {
	now := s.now()
	unbanned, err := s.modify(ctx, id, func(u *User) error {
		if !u.IsBanned() {
			return internal.NewValidationError("User is not banned", internal.ErrCodeInvalidStatus)
		}
		u.Unban(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user unbanned", "user_id", unbanned.ID, "actor_id", actorID(actor))
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserUnbanned, unbanned.ID, unbanned.Username, actorID(actor)))
	return unbanned, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor *internal.Identity) error {
	if actor != nil && actor.UserID == id {
		return internal.ErrSelfOperation
	}

	target, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsBootstrapAdmin() {
		return internal.ErrProtectedAccount
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id, "username", target.Username, "actor_id", actorID(actor))
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserDeleted, id, target.Username, actorID(actor)))
	return nil
}

func (s *Service) UpdateLastLogin(ctx context.Context, id int64) (*User, error) {
	now := s.now()
	return s.modify(ctx, id, func(u *User) error {
		u.LastLogin = &now
		return nil
	})
}

// EnsureBootstrapAdmin creates the admin account when no account uses its
// username. It reports whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, password string) (*User, bool, error) {
	existing, err := s.FindByUsername(ctx, BootstrapUsername)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, false, err
	}

	birthYear := 1980
	now := s.now()
	admin, err := s.Create(ctx, CreateUserInput{
		Username: BootstrapUsername,
		Password: password,
		Role:     role.Admin,
		Profile: &Profile{
			LastName:       "Administrator",
			FirstName:      "System",
			BirthYear:      &birthYear,
			EmploymentDate: now.Format(validation.DateLayout),
			Department:     "IT",
			Section:        "Administration",
			Position:       "System administrator",
			EmployeeStatus: EmployeeActive,
		},
	}, 0)
	if err != nil {
		if errors.Is(err, internal.ErrUserExists) {
			existing, findErr := s.FindByUsername(ctx, BootstrapUsername)
			return existing, false, findErr
		}
		return nil, false, err
	}

	s.logger.Warn("bootstrap admin account created, change its password", "user_id", admin.ID)
	return admin, true, nil
}

func (s *Service) modify(ctx context.Context, id int64, fn func(u *User) error) (*User, error) {
	row, err := s.repo.Modify(ctx, id, func(row *userDatamodel.User) error {
		u := FromDataModel(row)
		if err := fn(u); err != nil {
			return err
		}
		*row = *ToDataModel(u)
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError("modify user", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) mapRepoError(op string, err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return internal.ErrUserNotFound
	case errors.Is(err, ErrDuplicateUsername):
		return internal.ErrUserExists
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("user repository failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish user event", "event_type", event.EventType(), "error", err)
	}
}

func actorID(actor *internal.Identity) int64 {
	if actor == nil {
		return 0
	}
	return actor.UserID
}

func validateProfilePatch(p *ProfilePatch) *internal.AppError {
	v := validation.NewValidator()
	if p.EmploymentDate != nil {
		v.Field("employmentDate", *p.EmploymentDate).Date()
	}
	if p.DismissalDate != nil {
		v.Field("dismissalDate", *p.DismissalDate).Date()
	}
	if p.EmployeeStatus != nil {
		v.Field("employeeStatus", *p.EmployeeStatus).OneOf(EmployeeStatuses, internal.ErrCodeInvalidStatus)
	}
	return v.Validate()
}

func applyProfilePatch(current *Profile, p *ProfilePatch) *Profile {
	var out Profile
	if current != nil {
		out = *current
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.MiddleName != nil {
		out.MiddleName = *p.MiddleName
	}
	if p.BirthYear != nil {
		year := *p.BirthYear
		out.BirthYear = &year
	}
	if p.EmploymentDate != nil {
		out.EmploymentDate = *p.EmploymentDate
	}
	if p.DismissalDate != nil {
		if *p.DismissalDate == "" {
			out.DismissalDate = nil
		} else {
			d := *p.DismissalDate
			out.DismissalDate = &d
		}
	}
	if p.Department != nil {
		out.Department = *p.Department
	}
	if p.Section != nil {
		out.Section = *p.Section
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.EmployeeStatus != nil {
		out.EmployeeStatus = EmployeeStatus(*p.EmployeeStatus)
	}
	return &out
}
