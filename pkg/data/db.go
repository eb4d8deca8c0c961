package data

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	// ErrNotFound is returned when no model matches the requested id.
	ErrNotFound = errors.New("model not found")
)

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// driverFor picks the database driver from the DSN. Postgres URLs select
// lib/pq, anything else is treated as a SQLite file path.
func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres
	}
	return driverSQLite
}

// Init creates the schema for the given DSN. Safe to call on an existing store.
func Init(dsn string) error {
	if dsn == "" {
		return errors.New("database DSN not specified")
	}

	db, err := GetDB(dsn)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	slog.Debug("creating db schema", "driver", db.DriverName())
	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}
	slog.Debug("db schema created")

	return nil
}

// GetDB opens the store. The caller owns the returned handle.
func GetDB(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.New("database DSN not specified")
	}
	conn, err := sqlx.Open(driverFor(dsn), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
