package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Bump it whenever
// schema.sql changes incompatibly.
const schemaVersion = 1

// DB wraps a sql.DB for the tactics store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. A database stamped with another schema version is rejected.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	}

	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != 0 && version != schemaVersion {
		conn.Close()
		return nil, fmt.Errorf("database %s has schema version %d, expected %d (run 'drop' and re-import)",
			path, version, schemaVersion)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stamp schema version: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
