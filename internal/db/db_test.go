package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_SetsPragmas(t *testing.T) {
	database, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), Options{PingRetry: time.Second})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode=%q, want wal", mode)
	}
}

func TestOpen_FailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "catalog.db")
	if _, err := Open(context.Background(), path, Options{}); err == nil {
		t.Fatalf("expected error for unreachable path")
	}
}
