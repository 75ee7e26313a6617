package storage

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded schema for the dialect. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB, dialectName string) error {
	if _, err := dialectFor(dialectName); err != nil {
		return err
	}

	dir := path.Join("migrations", dialectName)
	files, err := fs.Glob(migrations, path.Join(dir, "*.sql"))
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		script, err := migrations.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "read %s", file)
		}
		for _, stmt := range splitStatements(string(script)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "apply %s", path.Base(file))
			}
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
