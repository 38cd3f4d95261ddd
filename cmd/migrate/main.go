// Command migrate applies, inspects and rolls back the editorial schema.
//
//	migrate up              apply pending SQL migrations (postgres)
//	migrate auto            run GORM AutoMigrate for posts, topics, comments, contest and users
//	migrate status          report the schema mode and every migration's state
//	migrate list            list the embedded migrations
//	migrate down <version>  roll back one SQL migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"editorial/internal/config"
	"editorial/internal/database"
	"editorial/internal/middleware"
)

var errUsage = errors.New("usage: migrate <up|auto|status|list|down> [version]")

type command struct {
	name    string
	version int
}

func main() {
	flag.Parse()
	cmd, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(context.Background(), cmd); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("command", cmd.name), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseCommand(args []string) (command, error) {
	if len(args) < 1 {
		return command{}, errUsage
	}
	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	switch cmd.name {
	case "up", "auto", "status", "list":
		if len(args) > 1 {
			return command{}, fmt.Errorf("%s takes no arguments: %w", cmd.name, errUsage)
		}
	case "down":
		if len(args) != 2 {
			return command{}, fmt.Errorf("down needs a version: %w", errUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v <= 0 {
			return command{}, fmt.Errorf("invalid version %q", args[1])
		}
		cmd.version = v
	default:
		return command{}, errUsage
	}
	return cmd, nil
}

func run(ctx context.Context, cmd command) error {
	if cmd.name == "list" {
		for _, m := range database.GetMigrations() {
			fmt.Println(m.String())
		}
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	log := middleware.Logger.With(slog.String("driver", cfg.DBDriver), slog.String("env", cfg.Env))

	switch cmd.name {
	case "up":
		if cfg.DBDriver != "postgres" {
			return fmt.Errorf("sql migrations target postgres; use \"auto\" for %s", cfg.DBDriver)
		}
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		log.Info("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema: %w", err)
		}
		log.Info("editorial models migrated")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		log.Info("schema status",
			slog.String("mode", status.Mode),
			slog.Bool("run_sql", status.WillRunSQL),
			slog.Bool("run_auto", status.WillRunAutoMigrate),
			slog.Int("applied", len(status.AppliedVersions)),
			slog.Int("pending", len(status.PendingMigrations)),
		)
		for _, line := range statusLines(status) {
			fmt.Println(line)
		}
	case "down":
		if err := database.RollbackMigration(ctx, db, cmd.version); err != nil {
			return fmt.Errorf("rollback %06d: %w", cmd.version, err)
		}
		log.Info("migration rolled back", slog.Int("version", cmd.version))
	}
	return nil
}

// statusLines renders one line per embedded migration, applied or pending.
func statusLines(status *database.SchemaStatus) []string {
	if !status.WillRunSQL {
		return []string{fmt.Sprintf("mode %s does not use sql migrations", status.Mode)}
	}
	applied := make(map[int]bool, len(status.AppliedVersions))
	for _, v := range status.AppliedVersions {
		applied[v] = true
	}
	lines := []string{}
	for _, m := range database.GetMigrations() {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		lines = append(lines, fmt.Sprintf("%-8s %s", state, m.String()))
	}
	return lines
}
