package jsonfile

import (
	"context"

	printformDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/printform"
	"github.com/frahmantamala/pisda/internal/printform"
	"github.com/frahmantamala/pisda/internal/storage/jsonfile"
)

const FileName = "forms.json"

type PrintFormRepository struct {
	file *jsonfile.File[[]*printformDatamodel.PrintForm]
}

func NewPrintFormRepository(dataDir string) printform.RepositoryAPI {
	return &PrintFormRepository{
		file: jsonfile.New(dataDir, FileName, func() []*printformDatamodel.PrintForm {
			return []*printformDatamodel.PrintForm{}
		}),
	}
}

func (r *PrintFormRepository) List(ctx context.Context) ([]*printformDatamodel.PrintForm, error) {
	return r.file.Read(ctx)
}

func (r *PrintFormRepository) GetByID(ctx context.Context, id string) (*printformDatamodel.PrintForm, error) {
	rows, err := r.file.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, printform.ErrNotFound
}

func (r *PrintFormRepository) Create(ctx context.Context, row *printformDatamodel.PrintForm) error {
	return r.file.Update(ctx, func(rows *[]*printformDatamodel.PrintForm) error {
		stored := *row
		*rows = append(*rows, &stored)
		return nil
	})
}

func (r *PrintFormRepository) Modify(ctx context.Context, id string, fn func(row *printformDatamodel.PrintForm) error) (*printformDatamodel.PrintForm, error) {
	var result *printformDatamodel.PrintForm
	err := r.file.Update(ctx, func(rows *[]*printformDatamodel.PrintForm) error {
		for i, existing := range *rows {
			if existing.ID != id {
				continue
			}
			updated := *existing
			if err := fn(&updated); err != nil {
				return err
			}
			updated.ID = id
			(*rows)[i] = &updated
			result = &updated
			return nil
		}
		return printform.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PrintFormRepository) Delete(ctx context.Context, id string) error {
	return r.file.Update(ctx, func(rows *[]*printformDatamodel.PrintForm) error {
		for i, existing := range *rows {
			if existing.ID == id {
				*rows = append((*rows)[:i], (*rows)[i+1:]...)
				return nil
			}
		}
		return printform.ErrNotFound
	})
}
