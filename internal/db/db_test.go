package db

import (
	"path/filepath"
	"testing"

	"github.com/friendsincode/grimnir_rundown/internal/config"
	"github.com/friendsincode/grimnir_rundown/internal/models"
)

func TestConnectMigrateSQLite(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		DBBackend:   config.DatabaseSQLite,
		DBDSN:       filepath.Join(t.TempDir(), "rundown.db"),
	}

	database, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	if err := RegisterCallbacks(database); err != nil {
		t.Fatalf("register callbacks: %v", err)
	}
	if err := Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running twice must be harmless.
	if err := Migrate(database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	for _, model := range models.All() {
		if !database.Migrator().HasTable(model) {
			t.Errorf("table for %T missing", model)
		}
	}
	if !database.Migrator().HasIndex(&models.Item{}, "idx_items_bin_position") {
		t.Error("bin position index missing")
	}

	item := models.Item{ID: "i1", BinID: "b1", Position: 1, Title: "x"}
	if err := database.Create(&item).Error; err != nil {
		t.Fatalf("create through callbacks: %v", err)
	}
}

func TestConnectRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{DBBackend: "oracle", DBDSN: "x"}
	if _, err := Connect(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
