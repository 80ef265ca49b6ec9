package model

import (
	"time"

	"github.com/google/uuid"
)

// Redemption is one successful consumption of an access code. The table is
// append-only; the unique (code_id, redeemer_id) pair is what makes retried
// redemptions idempotent.
type Redemption struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CodeID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_redemptions_code_redeemer" json:"code_id"`
	RedeemerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_redemptions_code_redeemer" json:"redeemer_id"`
	RedeemerEmail string    `gorm:"type:varchar(255)" json:"redeemer_email,omitempty"`
	RedeemedAt    time.Time `gorm:"not null" json:"redeemed_at"`
}

func (Redemption) TableName() string { return "redemptions" }
