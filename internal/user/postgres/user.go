package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/user"
	"github.com/frahmantamala/pisda/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository stores accounts through GORM; it serves both PostgreSQL and SQLite.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userDatamodel.User{}).Where("username = ?", row.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return user.ErrDuplicateUsername
		}
		row.ID = 0
		return translate(tx.Create(row).Error)
	})
}

// Modify locks the row for the duration of fn so concurrent writers serialize.
func (r *UserRepository) Modify(ctx context.Context, id int64, fn func(row *userDatamodel.User) error) (*userDatamodel.User, error) {
	var result userDatamodel.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userDatamodel.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound
			}
			return err
		}

		if err := fn(&row); err != nil {
			return err
		}
		row.ID = id

		var clash int64
		if err := tx.Model(&userDatamodel.User{}).Where("username = ? AND id <> ?", row.Username, id).Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return user.ErrDuplicateUsername
		}

		if err := translate(tx.Save(&row).Error); err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrDuplicateUsername
	}
	return err
}
