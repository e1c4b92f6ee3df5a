// Package sqlstore persists artifacts, outcomes and detail records in a SQL
// database. Postgres (lib/pq) locks rows with SELECT ... FOR UPDATE inside a
// transaction; SQLite (modernc) serialises writers per artifact with a
// lock.Locker and writes the staged row on commit.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between supported databases
type Dialect struct {
	Name string
	// Driver is the database/sql driver name
	Driver string
	// RowLocking is true when the database supports SELECT ... FOR UPDATE
	RowLocking bool
	numbered   bool
}

var (
	// Postgres uses $n placeholders and row locks
	Postgres = Dialect{Name: "postgres", Driver: "postgres", RowLocking: true, numbered: true}
	// SQLite uses ? placeholders and a keyed locker
	SQLite = Dialect{Name: "sqlite", Driver: "sqlite"}
)

// DialectOf returns the dialect for a driver name
func DialectOf(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver: %q", driver)
}

// Bind rewrites ? placeholders into the dialect's form
func (d Dialect) Bind(query string) string {
	if !d.numbered {
		return query
	}
	builder := strings.Builder{}
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			builder.WriteString("$" + strconv.Itoa(n))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// Open connects and migrates the schema
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectOf(driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open %v database: %w", dialect.Name, err)
	}
	if !dialect.RowLocking {
		// a single connection avoids SQLITE_BUSY between concurrent writers
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to connect to %v database: %w", dialect.Name, err)
	}
	if !dialect.RowLocking {
		// other processes may hold the write lock on the same file
		if _, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, Dialect{}, fmt.Errorf("failed to configure %v database: %w", dialect.Name, err)
		}
	}
	if err = Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, Dialect{}, err
	}
	return db, dialect, nil
}
