/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := applyBinItemOrderIndex(database); err != nil {
		return err
	}

	return nil
}

// applyBinItemOrderIndex adds the composite index used when a bin is read in
// position order. It is deliberately not unique: positions collide for a
// moment while a placeholder swap renumbers the bin.
func applyBinItemOrderIndex(database *gorm.DB) error {
	if database.Migrator().HasIndex(&models.Item{}, "idx_items_bin_position") {
		return nil
	}
	if err := database.Exec("CREATE INDEX idx_items_bin_position ON items (bin_id, position)").Error; err != nil {
		return fmt.Errorf("create bin position index: %w", err)
	}
	return nil
}
