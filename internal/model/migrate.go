package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&AccessCode{},
		&Redemption{},
	); err != nil {
		return err
	}

	// Code strings must be unique among live, non-cancelled codes so a
	// redemption lookup by string is never ambiguous. Cancelled or
	// soft-deleted rows release the string for reuse.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_access_codes_code_live " +
			"ON access_codes (code) WHERE deleted_at IS NULL AND status <> 4",
	).Error
}
