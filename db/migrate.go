package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/sym"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationDir = "sqlite/migrations"

// Migration is one embedded schema step. Version is the numeric filename prefix.
type Migration struct {
	Version string
	File    string
}

// Migrations lists the embedded migrations in apply order.
func Migrations() ([]Migration, error) {
	entries, err := migrations.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		out = append(out, Migration{Version: strings.SplitN(e.Name(), "_", 2)[0], File: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

// Migrate runs all pending migrations, each in its own transaction.
// 000 creates schema_migrations and then records itself.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	ms, err := Migrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range ms {
		done, err := isApplied(db, m)
		if err != nil {
			return err
		}
		if done {
			if logger != nil {
				logger.Debugw("Skipping migration (already applied)", "migration", m.File, "version", m.Version)
			}
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		applied++
		if logger != nil {
			logger.Infow("Applied migration", "migration", m.File, "version", m.Version, "symbol", sym.DB)
		}
	}

	if logger != nil {
		logger.Infow("Migrations complete",
			"symbol", sym.DB,
			"total_migrations", len(ms),
			"applied", applied,
		)
	}
	return nil
}

func isApplied(db *sql.DB, m Migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.Version).Scan(&exists)
	if err == nil {
		return exists, nil
	}
	// Only 000 may run before the table exists.
	if m.Version != "000" {
		return false, errors.Wrapf(err, "schema_migrations unreadable before %s", m.File)
	}
	return false, nil
}

func apply(db *sql.DB, m Migration) error {
	stmt, err := migrations.ReadFile(path.Join(migrationDir, m.File))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.File)
	}
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.File)
	}
	if _, err := tx.Exec(string(stmt)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.File)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.File)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.File)
}
