package service

import (
	"strings"

	"github.com/google/uuid"

	"schoolhub/onboard/internal/model"
)

// RedemptionContext is the identity and intent a redeemer submits alongside
// a code string. RedeemerEmail may be set before an account exists.
type RedemptionContext struct {
	RedeemerID    uuid.UUID
	RedeemerEmail string
	ClaimedRole   model.Role
	TargetID      uuid.UUID
}

// ValidateScope checks a redemption context against the scope a code was
// issued for. Each mismatch is a distinct error so callers can tell the
// redeemer exactly what was wrong, separately from expiry or usage failures.
func ValidateScope(code *model.AccessCode, rc RedemptionContext) error {
	if code.RequiredEmail != nil {
		if !strings.EqualFold(*code.RequiredEmail, rc.RedeemerEmail) {
			return ErrEmailMismatch
		}
	}
	if code.RequiredRole != nil && *code.RequiredRole != rc.ClaimedRole {
		return ErrRoleMismatch
	}
	if rc.TargetID != code.TargetID {
		return ErrScopeMismatch
	}
	return nil
}
