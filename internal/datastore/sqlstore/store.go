// Package sqlstore maps entity types onto the tables of a SQL database
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/datastore"
	"github.com/conduit-lang/entitydict/internal/dictionary"
	"github.com/conduit-lang/entitydict/internal/model"
)

// Dialect lists the tables of a database
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

const (
	sqliteTablesQuery   = `SELECT name FROM sqlite_master WHERE type = 'table'`
	postgresTablesQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema()`
)

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

func (d Dialect) tablesQuery() string {
	if d == SQLite {
		return sqliteTablesQuery
	}
	return postgresTablesQuery
}

// Store introspects a database schema. Types whose table exists are marked
// persistent before binding.
type Store struct {
	db      *sql.DB
	dialect Dialect
	scope   []string
	logger  *zap.Logger
}

// New creates a store over an open database
func New(db *sql.DB, dialect Dialect, scope []string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, scope: scope, logger: logger}
}

// Open opens the database with a registered driver and pings it
func Open(ctx context.Context, driver, dsn string, scope []string, logger *zap.Logger) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, dialect, scope, logger), nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements datastore.DataStore
func (s *Store) Name() string {
	return "sql/" + string(s.dialect)
}

// Tables returns the table names of the current schema
func (s *Store) Tables(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.tablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// PopulateEntityDictionary implements datastore.DataStore
func (s *Store) PopulateEntityDictionary(ctx context.Context, d *dictionary.Dictionary) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}

	types := d.Catalog().Types(s.scope...)
	var persistent []reflect.Type
	for _, t := range types {
		if t.Kind() != reflect.Struct {
			continue
		}
		desc, err := d.Scanner().Describe(t)
		if err != nil {
			continue
		}
		table := datastore.TableName(desc)
		switch {
		case tables[table]:
			persistent = append(persistent, t)
		case desc.Annotations.Has(model.Entity):
			s.logger.Warn("entity has no table", zap.Stringer("type", t), zap.String("table", table))
		}
	}

	s.logger.Info("introspected schema",
		zap.String("store", s.Name()),
		zap.Int("tables", len(tables)),
		zap.Int("mapped", len(persistent)),
	)
	return datastore.Populate(d, types, persistent)
}
