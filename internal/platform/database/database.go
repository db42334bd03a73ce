// Package database owns the relational schema and applies it on startup.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// ApplySchema creates any missing tables and indexes. Statements are
// idempotent, so running it against an existing database is safe.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
