package postgres

import (
	"context"
	"errors"

	printformDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/printform"
	"github.com/frahmantamala/pisda/internal/printform"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PrintFormRepository struct {
	db *gorm.DB
}

func NewPrintFormRepository(db *gorm.DB) printform.RepositoryAPI {
	return &PrintFormRepository{db: db}
}

func (r *PrintFormRepository) List(ctx context.Context) ([]*printformDatamodel.PrintForm, error) {
	var rows []*printformDatamodel.PrintForm
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *PrintFormRepository) GetByID(ctx context.Context, id string) (*printformDatamodel.PrintForm, error) {
	var row printformDatamodel.PrintForm
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, printform.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *PrintFormRepository) Create(ctx context.Context, row *printformDatamodel.PrintForm) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *PrintFormRepository) Modify(ctx context.Context, id string, fn func(row *printformDatamodel.PrintForm) error) (*printformDatamodel.PrintForm, error) {
	var result printformDatamodel.PrintForm
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row printformDatamodel.PrintForm
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return printform.ErrNotFound
			}
			return err
		}

		if err := fn(&row); err != nil {
			return err
		}
		row.ID = id

		if err := tx.Save(&row).Error; err != nil {
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

func (r *PrintFormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&printformDatamodel.PrintForm{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return printform.ErrNotFound
	}
	return nil
}
