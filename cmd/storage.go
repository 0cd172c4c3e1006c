package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/frahmantamala/pisda/internal"
	printformDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/printform"
	toolDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/tool"
	userDatamodel "github.com/frahmantamala/pisda/internal/core/datamodel/user"
	"github.com/frahmantamala/pisda/internal/printform"
	printformJSON "github.com/frahmantamala/pisda/internal/printform/jsonfile"
	printformPostgres "github.com/frahmantamala/pisda/internal/printform/postgres"
	"github.com/frahmantamala/pisda/internal/storage/jsonfile"
	"github.com/frahmantamala/pisda/internal/tools"
	toolsJSON "github.com/frahmantamala/pisda/internal/tools/jsonfile"
	toolsPostgres "github.com/frahmantamala/pisda/internal/tools/postgres"
	"github.com/frahmantamala/pisda/internal/transport/rest"
	"github.com/frahmantamala/pisda/internal/user"
	userJSON "github.com/frahmantamala/pisda/internal/user/jsonfile"
	userPostgres "github.com/frahmantamala/pisda/internal/user/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Storage is the set of repositories for the configured driver.
type Storage struct {
	Users  user.RepositoryAPI
	Tools  tools.RepositoryAPI
	Forms  printform.RepositoryAPI
	Health map[string]rest.Pinger

	gormDB *gorm.DB
	closer func() error
}

func (s *Storage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func openStorage(cfg internal.StorageConfig, log *slog.Logger) (*Storage, error) {
	switch cfg.Driver {
	case internal.StorageDriverJSON:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		log.Info("using JSON file storage", "data_dir", cfg.DataDir)
		return &Storage{
			Users:  userJSON.NewUserRepository(cfg.DataDir),
			Tools:  toolsJSON.NewToolsRepository(cfg.DataDir),
			Forms:  printformJSON.NewPrintFormRepository(cfg.DataDir),
			Health: map[string]rest.Pinger{"storage": jsonfile.Dir(cfg.DataDir)},
		}, nil

	case internal.StorageDriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.Source), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		log.Info("using SQLite storage", "source", cfg.Source)
		return sqlStorage(db, sqlDB, sqlDB.Close), nil

	case internal.StorageDriverPostgres:
		pool, err := initDB(cfg)
		if err != nil {
			return nil, err
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool.DB}), gormConfig())
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("failed to open gorm on postgres pool: %w", err)
		}
		log.Info("using PostgreSQL storage",
			"max_open_conns", cfg.MaxOpenConns,
			"max_idle_conns", cfg.MaxIdleConns)
		return sqlStorage(db, pool, pool.Close), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func sqlStorage(db *gorm.DB, pinger rest.Pinger, closer func() error) *Storage {
	return &Storage{
		Users:  userPostgres.NewUserRepository(db),
		Tools:  toolsPostgres.NewToolsRepository(db),
		Forms:  printformPostgres.NewPrintFormRepository(db),
		Health: map[string]rest.Pinger{"database": pinger},
		gormDB: db,
		closer: closer,
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	}
}

// autoMigrate creates the tables from the row models. PostgreSQL uses the
// goose migrations instead.
func (s *Storage) autoMigrate() error {
	if s.gormDB == nil {
		return errors.New("auto-migration needs a SQL driver")
	}
	return s.gormDB.AutoMigrate(
		&userDatamodel.User{},
		&toolDatamodel.Tool{},
		&toolDatamodel.DefaultPermission{},
		&printformDatamodel.PrintForm{},
	)
}

// initDB opens the pgx connection pool.
func initDB(cfg internal.StorageConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
