// SPDX-License-Identifier: MPL-2.0

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/shellplus/shellplus/internal/issue"
)

// DriverSQLite is the only supported driver name.
const DriverSQLite = "sqlite"

// ErrUnsupportedDriver is returned by Open for drivers other than sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

type (
	// Config selects the database to open.
	Config struct {
		Driver string
		DSN    string
		// Alias names the connection in query reports. Defaults to "default".
		Alias string
	}

	// QueryEvent describes one executed statement.
	QueryEvent struct {
		SQL      string
		Args     []any
		Duration time.Duration
		Alias    string
		Err      error
	}

	// Interceptor observes executed statements. It runs synchronously on
	// the goroutine that issued the statement.
	Interceptor func(QueryEvent)

	// ExecResult summarises a statement that returns no rows.
	ExecResult struct {
		RowsAffected int64 `json:"rowsAffected"`
		LastInsertID int64 `json:"lastInsertId"`
	}

	// DB is an open data layer connection.
	DB struct {
		db    *sql.DB
		alias string

		mu           sync.RWMutex
		interceptors []Interceptor
	}
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Driver != DriverSQLite {
		return nil, issue.NewErrorContext().
			WithOperation("open database").
			WithResource(cfg.Driver).
			WithSuggestion("Set database.driver to \"sqlite\"").
			WithIssue(issue.DatabaseOpenFailedId).
			Configuration().
			Wrap(fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)).
			BuildError()
	}

	alias := cfg.Alias
	if alias == "" {
		alias = "default"
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, openError(cfg.DSN, err)
	}
	// SQLite serialises writers; one connection also keeps :memory: databases shared.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, openError(cfg.DSN, err)
	}

	return &DB{db: sqlDB, alias: alias}, nil
}

func openError(dsn string, err error) error {
	return issue.NewErrorContext().
		WithOperation("open database").
		WithResource(dsn).
		WithSuggestion("Check database.dsn points to a writable location").
		WithIssue(issue.DatabaseOpenFailedId).
		Wrap(err).
		BuildError()
}

// Alias returns the connection alias.
func (d *DB) Alias() string {
	return d.alias
}

// Intercept registers fn to observe every statement.
func (d *DB) Intercept(fn Interceptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interceptors = append(d.interceptors, fn)
}

func (d *DB) notify(ev QueryEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, fn := range d.interceptors {
		fn(ev)
	}
}

// Query runs a statement and returns its rows as column-name maps.
func (d *DB) Query(ctx context.Context, query string, args ...any) (rows []map[string]any, err error) {
	start := time.Now()
	defer func() {
		d.notify(QueryEvent{SQL: query, Args: args, Duration: time.Since(start), Alias: d.alias, Err: err})
	}()

	r, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	rows = []map[string]any{}
	for r.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		rows = append(rows, row)
	}
	return rows, r.Err()
}

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (res ExecResult, err error) {
	start := time.Now()
	defer func() {
		d.notify(QueryEvent{SQL: query, Args: args, Duration: time.Since(start), Alias: d.alias, Err: err})
	}()

	r, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, err
	}
	// SQLite always reports both values.
	res.RowsAffected, _ = r.RowsAffected()
	res.LastInsertID, _ = r.LastInsertId()
	return res, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close()
}
