package testutil

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pratik-mahalle/creatorhub/migrations"
)

// NewTestDB creates an in-memory SQLite database with the embedded schema.
// Every test gets its own database; the pool is pinned to one connection the
// same way the sqlite production setup is.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, uuid.NewString()[:8])

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := applySchema(db); err != nil {
		db.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}

func applySchema(db *sql.DB) error {
	entries, err := fs.ReadDir(migrations.GetFS(), ".")
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		content, err := fs.ReadFile(migrations.GetFS(), f)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

// SeedUser inserts a user with no subscription and returns its id
func SeedUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().Unix()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, subscription_tier, created_at, updated_at)
		VALUES ($1, $2, $3, 'none', $4, $5)`,
		id, email, "x", now, now,
	)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// CountRows returns the number of rows in table matching where
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
