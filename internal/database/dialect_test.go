package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM hangs WHERE id = ? AND status = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() should leave ? placeholders unchanged, got %v", got)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		prefix, suffix := dialect.InsertIgnore()
		if prefix != "INSERT OR IGNORE INTO" {
			t.Errorf("InsertIgnore() prefix = %v", prefix)
		}
		if suffix != "" {
			t.Errorf("InsertIgnore() suffix = %v, want empty", suffix)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "/tmp/test.db"})
		if dsn == "" {
			t.Error("DSN() should not be empty")
		}
	})
}

func TestDialectPostgres(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", got)
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM hangs WHERE id = ? AND status = ?"
		expected := "SELECT * FROM hangs WHERE id = $1 AND status = $2"
		if got := dialect.RewriteQuery(query); got != expected {
			t.Errorf("RewriteQuery() = %v, want %v", got, expected)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		prefix, suffix := dialect.InsertIgnore()
		if prefix != "INSERT INTO" {
			t.Errorf("InsertIgnore() prefix = %v", prefix)
		}
		if suffix != " ON CONFLICT DO NOTHING" {
			t.Errorf("InsertIgnore() suffix = %v", suffix)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM hangs WHERE id = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() should leave ? placeholders unchanged, got %v", got)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		prefix, suffix := dialect.InsertIgnore()
		if prefix != "INSERT IGNORE INTO" {
			t.Errorf("InsertIgnore() prefix = %v", prefix)
		}
		if suffix != "" {
			t.Errorf("InsertIgnore() suffix = %v, want empty", suffix)
		}
	})
}
