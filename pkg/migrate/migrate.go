package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/storefront-labs/storefront-backend/pkg/migrate/migrations"
)

const (
	DefaultDir = "pkg/migrate/migrations"
	dialect    = "postgres"
)

// Source selects where migration files come from: Dir on disk, or the set
// compiled into the binary when Embedded is true.
type Source struct {
	Dir      string
	Embedded bool
}

// DirSource reads migrations from dir.
func DirSource(dir string) Source { return Source{Dir: dir} }

// EmbeddedSource reads the migrations compiled into the binary.
func EmbeddedSource() Source { return Source{Embedded: true} }

func (s Source) fsys() (fs.FS, error) {
	if s.Embedded {
		return migrations.FS, nil
	}
	if s.Dir == "" {
		return nil, errors.New("migrations dir is required")
	}
	return os.DirFS(s.Dir), nil
}

// prepare points goose at the source. goose keeps the base FS globally, so
// the returned restore must run before another source is used.
func (s Source) prepare() (dir string, restore func(), err error) {
	if err := goose.SetDialect(dialect); err != nil {
		return "", nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if !s.Embedded {
		if s.Dir == "" {
			return "", nil, errors.New("migrations dir is required")
		}
		return s.Dir, func() {}, nil
	}
	goose.SetBaseFS(migrations.FS)
	return ".", func() { goose.SetBaseFS(nil) }, nil
}

// Run executes a goose command (up, down, status, ...) against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return errors.New("db is required")
	}
	dir, restore, err := src.prepare()
	if err != nil {
		return err
	}
	defer restore()

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at target
// (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	dir, restore, err := src.prepare()
	if err != nil {
		return err
	}
	defer restore()

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current < version:
		err = goose.UpToContext(ctx, db, dir, version)
	case current > version:
		err = goose.DownToContext(ctx, db, dir, version)
	}
	if err != nil {
		return fmt.Errorf("goose %d -> %d: %w", current, version, err)
	}
	return nil
}
