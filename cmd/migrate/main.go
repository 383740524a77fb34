package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/storefront-labs/storefront-backend/internal/bootstrap"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/migrate"
)

var errUsage = errors.New("usage")

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name (for create)")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	fs.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary")
	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return options{}, fmt.Errorf("%w: missing -name for create", errUsage)
		}
	case "version":
		if opts.version == "" {
			return options{}, fmt.Errorf("%w: missing -version for version command", errUsage)
		}
	case "up", "down", "status", "validate":
	default:
		return options{}, fmt.Errorf("%w: unknown -cmd value %q", errUsage, opts.cmd)
	}
	return opts, nil
}

func (o options) source() migrate.Source {
	if o.embedded {
		return migrate.EmbeddedSource()
	}
	return migrate.DirSource(o.dir)
}

// needsDB reports whether the command talks to the database.
func (o options) needsDB() bool {
	return o.cmd != "create" && o.cmd != "validate"
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, logg, err := bootstrap.Env("migrate")
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to load config", err)
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      opts.cmd,
		"dir":      opts.dir,
		"embedded": opts.embedded,
	})

	if !opts.needsDB() {
		if err := runOffline(opts); err != nil {
			bootstrap.Exit(ctx, logg, "migrate command failed", err)
		}
		return
	}

	// db.New rather than bootstrap.Database: dev auto-migrate must not run
	// ahead of an explicit down or version command.
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		bootstrap.Exit(ctx, logg, "failed to bootstrap database", err)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		bootstrap.Exit(ctx, logg, "failed to open sql database", err)
	}

	logg.Info(ctx, "migrate ready")
	runErr := runOnline(ctx, sqlDB, opts)
	_ = dbClient.Close()
	if runErr != nil {
		bootstrap.Exit(ctx, logg, "migrate command failed", runErr)
	}
	logg.Info(ctx, "migrate finished")
}

func runOffline(opts options) error {
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created migration:", path)
	case "validate":
		if err := migrate.Validate(opts.source()); err != nil {
			return fmt.Errorf("validate migrations: %w", err)
		}
		fmt.Println("migration validation passed")
	}
	return nil
}

func runOnline(ctx context.Context, sqlDB *sql.DB, opts options) error {
	if opts.cmd == "version" {
		return migrate.MigrateToVersion(ctx, sqlDB, opts.source(), opts.version)
	}
	return migrate.Run(ctx, sqlDB, opts.source(), opts.cmd)
}
