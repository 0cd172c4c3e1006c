package jsonfile

import (
	"context"

	"github.com/frahmantamala/pisda/internal/storage/jsonfile"
	"github.com/frahmantamala/pisda/internal/tools"
)

const FileName = "tools-config.json"

type ToolsRepository struct {
	file *jsonfile.File[*tools.Config]
}

func NewToolsRepository(dataDir string) tools.RepositoryAPI {
	return &ToolsRepository{
		file: jsonfile.New(dataDir, FileName, func() *tools.Config { return nil }),
	}
}

func (r *ToolsRepository) Load(ctx context.Context) (*tools.Config, error) {
	return r.file.Read(ctx)
}

func (r *ToolsRepository) Update(ctx context.Context, fn func(cfg *tools.Config) error) (*tools.Config, error) {
	var result *tools.Config
	err := r.file.Update(ctx, func(doc **tools.Config) error {
		if *doc == nil {
			*doc = tools.DefaultConfig()
		}
		if err := fn(*doc); err != nil {
			return err
		}
		result = *doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
