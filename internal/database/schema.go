package database

import (
	"context"
	"fmt"
	"log/slog"

	"editorial/internal/config"
	"editorial/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	// SchemaModeHybrid applies SQL migrations on postgres and AutoMigrate outside production.
	SchemaModeHybrid = "hybrid"
	// SchemaModeSQL applies only the embedded postgres migrations.
	SchemaModeSQL = "sql"
	// SchemaModeAuto applies only GORM AutoMigrate.
	SchemaModeAuto = "auto"
)

// SchemaStatus describes what ApplySchema would do for a configuration.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func schemaMode(cfg *config.Config) string {
	if cfg.DBSchemaMode == "" {
		return SchemaModeHybrid
	}
	return cfg.DBSchemaMode
}

// schemaPolicy decides which schema steps run. The SQL migrations are written
// for postgres; the other drivers are managed by AutoMigrate.
func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := schemaMode(cfg)
	isPostgres := cfg.DBDriver == "postgres" || cfg.DBDriver == ""

	switch mode {
	case SchemaModeSQL:
		if !isPostgres {
			return false, false, fmt.Errorf("DB_SCHEMA_MODE=sql requires DB_DRIVER=postgres, got %q", cfg.DBDriver)
		}
		return true, false, nil
	case SchemaModeAuto:
		if cfg.IsProduction() && !cfg.DBAutoMigrateAllowDestructive {
			return false, false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		if !isPostgres {
			return false, true, nil
		}
		return true, !cfg.IsProduction(), nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate creates or updates the tables of every persistent model.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	return ensureSlugDateIndex(db)
}

// slugDateIndexes back the one-slug-per-published-day rule for drivers that
// support expression indexes. MySQL relies on the repository check alone.
var slugDateIndexes = map[string]string{
	"postgres": `CREATE UNIQUE INDEX IF NOT EXISTS uq_posts_slug_published_date
	ON posts (slug, ((published AT TIME ZONE 'UTC')::date))
	WHERE published IS NOT NULL`,
	"sqlite": `CREATE UNIQUE INDEX IF NOT EXISTS uq_posts_slug_published_date
	ON posts (slug, date(published))
	WHERE published IS NOT NULL`,
}

func ensureSlugDateIndex(db *gorm.DB) error {
	stmt, ok := slugDateIndexes[db.Dialector.Name()]
	if !ok {
		return nil
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create slug date index: %w", err)
	}
	return nil
}

// ApplySchema brings the database schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if runAuto {
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", schemaMode(cfg)),
			slog.String("driver", cfg.DBDriver),
			slog.String("env", cfg.Env),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

// GetSchemaStatus reports the schema policy and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               schemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}
	if !runSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pendingMigrations(applied, GetMigrations())

	return status, nil
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}
