package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver

	"attendance_backend/internal/config"
	"attendance_backend/pkg/utils"
)

//go:embed schema.sql
var embeddedSchema string

// Open opens the PostgreSQL connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database", map[string]interface{}{
		"host": cfg.Host, "database": cfg.Name,
	})
	return db, nil
}

// ApplySchema executes the schema script at schemaPath, or the embedded
// schema when schemaPath is empty. The script is idempotent.
func ApplySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	script := embeddedSchema
	if schemaPath != "" {
		content, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
		}
		script = string(content)
	}

	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"custom_path": schemaPath != ""})
	return nil
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthy runs a trivial round trip against the database.
func Healthy(ctx context.Context, db Pinger) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	return nil
}
