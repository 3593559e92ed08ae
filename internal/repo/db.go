// Package repo implements the data persistence layer for the relay bridge,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-support-relay/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
//
// The returned handle implements the store's single-writer contract: the
// underlying pool is capped at one open connection, so every read and write
// is serialized regardless of how many goroutines share the handle. This
// mirrors the documented serialization policy of the relay design; raise
// the cap only if contention ever becomes a measured problem.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Single-writer pool. One connection serializes all store access.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	return db, nil
}

// EnableTracing attaches the GORM OpenTelemetry plugin so store operations
// show up as spans under the relay handlers. Call only when tracing is
// enabled in config; the plugin is not free.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate applies the additive schema migrations for all relay tables.
// GORM's migrator only adds missing tables, columns, and indexes, matching
// the "additive, idempotent column-add" contract of the store layout.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Ticket{},
		&domain.ReplyTracking{},
	)
}
