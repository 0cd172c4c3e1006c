package postgres

import (
	"context"
	"time"

	toolDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/tool"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/tools"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToolsRepository keeps the tools document as one row per tool plus one row
// per role for the default permissions.
type ToolsRepository struct {
	db *gorm.DB
}

func NewToolsRepository(db *gorm.DB) tools.RepositoryAPI {
	return &ToolsRepository{db: db}
}

func (r *ToolsRepository) Load(ctx context.Context) (*tools.Config, error) {
	return load(r.db.WithContext(ctx), false)
}

func (r *ToolsRepository) Update(ctx context.Context, fn func(cfg *tools.Config) error) (*tools.Config, error) {
	var result *tools.Config
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := load(tx, true)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = tools.DefaultConfig()
		}

		if err := fn(cfg); err != nil {
			return err
		}

		if err := store(tx, cfg); err != nil {
			return err
		}
		result = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func load(db *gorm.DB, lock bool) (*tools.Config, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	// each query below starts from its own copy of the statement
	q := db.Session(&gorm.Session{})

	var toolRows []toolDatamodel.Tool
	if err := q.Model(&toolDatamodel.Tool{}).Order("name ASC").Find(&toolRows).Error; err != nil {
		return nil, err
	}
	var permRows []toolDatamodel.DefaultPermission
	if err := q.Model(&toolDatamodel.DefaultPermission{}).Order("role ASC").Find(&permRows).Error; err != nil {
		return nil, err
	}
	if len(toolRows) == 0 && len(permRows) == 0 {
		return nil, nil
	}

	cfg := &tools.Config{
		Tools:              make(map[string]*tools.ToolConfig, len(toolRows)),
		DefaultPermissions: make(map[string][]string, len(permRows)),
	}
	for _, row := range toolRows {
		active := row.Active
		cfg.Tools[row.Name] = &tools.ToolConfig{
			Active:      &active,
			Permissions: role.ParseSet(row.Permissions),
			Title:       row.Title,
			Description: row.Description,
			Order:       row.SortOrder,
		}
	}
	for _, row := range permRows {
		list := row.Tools
		if list == nil {
			list = []string{}
		}
		cfg.DefaultPermissions[row.Role] = list
	}
	return cfg, nil
}

// store rewrites both tables from cfg.
func store(tx *gorm.DB, cfg *tools.Config) error {
	if err := tx.Where("1 = 1").Delete(&toolDatamodel.Tool{}).Error; err != nil {
		return err
	}
	if err := tx.Where("1 = 1").Delete(&toolDatamodel.DefaultPermission{}).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	toolRows := make([]toolDatamodel.Tool, 0, len(cfg.Tools))
	for name, tc := range cfg.Tools {
		if tc == nil {
			continue
		}
		var perms []string
		if tc.Permissions != nil {
			perms = tc.Permissions.Names()
		}
		toolRows = append(toolRows, toolDatamodel.Tool{
			Name:        name,
			Active:      tc.IsActive(),
			Permissions: perms,
			Title:       tc.Title,
			Description: tc.Description,
			SortOrder:   tc.Order,
			UpdatedAt:   now,
		})
	}
	if len(toolRows) > 0 {
		if err := tx.Create(&toolRows).Error; err != nil {
			return err
		}
	}

	permRows := make([]toolDatamodel.DefaultPermission, 0, len(cfg.DefaultPermissions))
	for r, list := range cfg.DefaultPermissions {
		if list == nil {
			list = []string{}
		}
		permRows = append(permRows, toolDatamodel.DefaultPermission{Role: r, Tools: list, UpdatedAt: now})
	}
	if len(permRows) > 0 {
		if err := tx.Create(&permRows).Error; err != nil {
			return err
		}
	}
	return nil
}
