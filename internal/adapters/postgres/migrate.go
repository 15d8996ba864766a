package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Migration is one versioned schema change, read from <version>.up.sql and
// <version>.down.sql.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// LoadMigrations reads every *.up.sql / *.down.sql pair in dir, ordered by version.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	byVersion := make(map[string]*Migration)
	for _, e := range entries {
		name := e.Name()
		var version, kind string
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			version, kind = strings.TrimSuffix(name, ".up.sql"), "up"
		case strings.HasSuffix(name, ".down.sql"):
			version, kind = strings.TrimSuffix(name, ".down.sql"), "down"
		default:
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if kind == "up" {
			m.Up = string(data)
		} else {
			m.Down = string(data)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// pending returns the migrations not yet recorded as applied, in order.
func pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// lastApplied returns the newest applied migration, if any.
func lastApplied(all []Migration, applied map[string]bool) (Migration, bool) {
	for i := len(all) - 1; i >= 0; i-- {
		if applied[all[i].Version] {
			return all[i], true
		}
	}
	return Migration{}, false
}

func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	if _, err := db.Pool.Exec(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := db.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// MigrateUp applies every pending migration, each in its own transaction,
// and returns the versions applied.
func (db *DB) MigrateUp(ctx context.Context, all []Migration) ([]string, error) {
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range pending(all, applied) {
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return done, fmt.Errorf("begin %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, m.Up); err != nil {
			_ = tx.Rollback(ctx)
			return done, fmt.Errorf("apply %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return done, fmt.Errorf("record %s: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return done, fmt.Errorf("commit %s: %w", m.Version, err)
		}
		done = append(done, m.Version)
	}
	return done, nil
}

// MigrateDown reverts the most recently applied migration. It returns an
// empty version when nothing is applied.
func (db *DB) MigrateDown(ctx context.Context, all []Migration) (string, error) {
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return "", err
	}
	m, ok := lastApplied(all, applied)
	if !ok {
		return "", nil
	}
	if m.Down == "" {
		return "", fmt.Errorf("migration %s has no down script", m.Version)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin %s: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.Down); err != nil {
		return "", fmt.Errorf("revert %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
		return "", fmt.Errorf("unrecord %s: %w", m.Version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit %s: %w", m.Version, err)
	}
	return m.Version, nil
}
