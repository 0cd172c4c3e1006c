package jsonfile

import (
	"context"

	userDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/user"
	"github.com/frahmantamala/pisda/internal/storage/jsonfile"
	"github.com/frahmantamala/pisda/internal/user"
)

const FileName = "users.json"

// UserRepository keeps every account in a single JSON array.
type UserRepository struct {
	file *jsonfile.File[[]*userDatamodel.User]
}

func NewUserRepository(dataDir string) user.RepositoryAPI {
	return &UserRepository{
		file: jsonfile.New(dataDir, FileName, func() []*userDatamodel.User {
			return []*userDatamodel.User{}
		}),
	}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	return r.file.Read(ctx)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	rows, err := r.file.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	rows, err := r.file.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Username == username {
			return row, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	return r.file.Update(ctx, func(rows *[]*userDatamodel.User) error {
		var maxID int64
		for _, existing := range *rows {
			if existing.Username == row.Username {
				return user.ErrDuplicateUsername
			}
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		row.ID = maxID + 1
		stored := *row
		*rows = append(*rows, &stored)
		return nil
	})
}

func (r *UserRepository) Modify(ctx context.Context, id int64, fn func(row *userDatamodel.User) error) (*userDatamodel.User, error) {
	var result *userDatamodel.User
	err := r.file.Update(ctx, func(rows *[]*userDatamodel.User) error {
		idx := -1
		for i, existing := range *rows {
			if existing.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return user.ErrNotFound
		}

		updated := *(*rows)[idx]
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = id

		for i, existing := range *rows {
			if i != idx && existing.Username == updated.Username {
				return user.ErrDuplicateUsername
			}
		}

		(*rows)[idx] = &updated
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.file.Update(ctx, func(rows *[]*userDatamodel.User) error {
		for i, existing := range *rows {
			if existing.ID == id {
				*rows = append((*rows)[:i], (*rows)[i+1:]...)
				return nil
			}
		}
		return user.ErrNotFound
	})
}
