package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// IsRemote reports whether target names a libsql server rather than a local
// sqlite file.
func IsRemote(target string) bool {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	return false
}

// OpenDB opens a libsql url through the libsql driver and anything else as a
// sqlite file (":memory:" included).
func OpenDB(target string) (*sql.DB, error) {
	if target == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}

	if IsRemote(target) {
		db, err := sql.Open("libsql", target)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		return db, nil
	}

	if target != ":memory:" {
		err := os.MkdirAll(filepath.Dir(target), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", target)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

func wrapOpenAndMigrate(err error) error {
	return fmt.Errorf("open and migrate db: %w", err)
}

// OpenAndMigrateDB opens target and applies schema to it. The schema must be
// idempotent ("create ... if not exists"), it runs on every start.
func OpenAndMigrateDB(ctx context.Context, schema, target string) (*sql.DB, error) {
	db, err := OpenDB(target)
	if err != nil {
		return nil, wrapOpenAndMigrate(err)
	}
	err = Migrate(ctx, db, schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenAndMigrate(err)
	}
	return db, nil
}

// Migrate runs every statement of schema in order.
func Migrate(ctx context.Context, db *sql.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("apply %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
