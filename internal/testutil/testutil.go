// Package testutil builds migrated, seeded SQLite databases for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/stonequote/internal/db"
	"github.com/Simplici0/stonequote/internal/migrations"
	"github.com/Simplici0/stonequote/internal/seed"
)

const (
	AdminEmail    = "admin@angelstones.example"
	AdminPassword = "correct-horse"
)

// NewDB returns an empty migrated database in a temp dir. A file is used
// rather than :memory: so every pooled connection sees the same data.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

// SeededDB returns a migrated database with the default catalog, the demo
// customer and an admin user.
func SeededDB(t *testing.T) *sql.DB {
	t.Helper()

	database := NewDB(t)
	if _, err := seed.Run(context.Background(), database, seed.Config{
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
		BcryptCost:    bcrypt.MinCost,
	}); err != nil {
		t.Fatalf("seed database: %v", err)
	}
	return database
}

// ID returns the id of the single row matched by query, failing the test otherwise.
func ID(t *testing.T, database *sql.DB, query string, args ...any) int64 {
	t.Helper()

	var id int64
	if err := database.QueryRow(query, args...).Scan(&id); err != nil {
		t.Fatalf("lookup id with %q: %v", query, err)
	}
	return id
}
