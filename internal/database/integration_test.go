package database

import (
	"context"
	"path/filepath"
	"testing"
)

// TestDatabaseIntegration tests the complete database lifecycle against a
// real SQLite file
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "integration.db")

	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	// Schema application is idempotent
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("Failed to re-apply schema: %v", err)
	}

	t.Run("BasicCRUD", func(t *testing.T) {
		_, err := db.Exec(
			"INSERT INTO parents (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
			"p1", "p1@example.com", "hash", "Pat",
		)
		if err != nil {
			t.Fatalf("Failed to insert parent: %v", err)
		}

		var name string
		if err := db.QueryRow("SELECT name FROM parents WHERE id = ?", "p1").Scan(&name); err != nil {
			t.Fatalf("Failed to read parent back: %v", err)
		}
		if name != "Pat" {
			t.Errorf("name = %v, want Pat", name)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		_, err := db.Exec(
			"INSERT INTO users (id, parent_id, username, display_name, pin_hash) VALUES (?, ?, ?, ?, ?)",
			"u1", "p1", "kid1", "Kid One", "hash",
		)
		if err != nil {
			t.Fatalf("Failed to insert user: %v", err)
		}

		query := "INSERT INTO friendships (user_id, friend_id) VALUES (?, ?)"
		if _, err := db.ExecInsertIgnore(query, "u1", "u1"); err != nil {
			t.Fatalf("First insert-ignore failed: %v", err)
		}
		if _, err := db.ExecInsertIgnore(query, "u1", "u1"); err != nil {
			t.Fatalf("Duplicate insert-ignore should be a no-op, got: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM friendships WHERE user_id = ?", "u1").Scan(&count); err != nil {
			t.Fatalf("Failed to count friendships: %v", err)
		}
		if count != 1 {
			t.Errorf("friendship count = %d, want 1", count)
		}
	})

	t.Run("Transactions", func(t *testing.T) {
		tx, err := db.Begin()
		if err != nil {
			t.Fatalf("Failed to begin transaction: %v", err)
		}
		_, err = tx.Exec(
			"INSERT INTO parents (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
			"p2", "p2@example.com", "hash", "Sam",
		)
		if err != nil {
			t.Fatalf("Failed to insert in transaction: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Failed to roll back: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM parents WHERE id = ?", "p2").Scan(&count); err != nil {
			t.Fatalf("Failed to count parents: %v", err)
		}
		if count != 0 {
			t.Error("rolled back insert should not be visible")
		}
	})
}
