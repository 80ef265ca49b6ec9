package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/repository"
)

// Grant is the successful outcome of redemption: the scope the redeemer is
// now entitled to. Downstream provisioning (profile creation, enrollment)
// is the caller's job and a separate failure domain; a retried redemption
// after a provisioning failure returns the original grant again.
type Grant struct {
	CodeID          uuid.UUID       `json:"code_id"`
	Kind            model.ScopeKind `json:"kind"`
	TargetID        uuid.UUID       `json:"target_id"`
	GrantedRole     *model.Role     `json:"granted_role,omitempty"`
	RemainingUses   *int            `json:"remaining_uses,omitempty"` // nil = unlimited
	AlreadyRedeemed bool            `json:"already_redeemed"`
	RedeemedAt      time.Time       `json:"redeemed_at"`
}

type RedeemService interface {
	// Redeem atomically validates every precondition and consumes one unit
	// of usage, or fails with a precise typed error.
	Redeem(ctx context.Context, codeString string, rc RedemptionContext) (*Grant, error)
}

type redeemService struct {
	repo      repository.CodeRepository
	tolerance time.Duration
	now       func() time.Time
}

func NewRedeemService(repo repository.CodeRepository, tolerance time.Duration) RedeemService {
	if tolerance <= 0 {
		tolerance = DefaultExpiryTolerance
	}
	return &redeemService{
		repo:      repo,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// errDuplicateRedemption aborts the transaction when a concurrent request
// from the same redeemer inserted the redemption record first. The caller
// then resolves the idempotent grant outside the rolled-back transaction.
var errDuplicateRedemption = errors.New("duplicate redemption")

func (s *redeemService) Redeem(ctx context.Context, codeString string, rc RedemptionContext) (*Grant, error) {
	var grant *Grant

	err := s.repo.Transaction(ctx, func(tx repository.CodeRepository) error {
		code, err := tx.GetByCode(ctx, codeString)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if code.Status == model.CodeStatusCancelled {
			return ErrCodeCancelled
		}
		if code.Disabled {
			return ErrCodeDisabled
		}

		if err := ValidateScope(code, rc); err != nil {
			return err
		}

		// Expiry comes before usage accounting so an exhausted-but-expired
		// code reports Expired consistently.
		if IsExpired(s.now(), code.ExpiresAt, s.tolerance) {
			return ErrCodeExpired
		}

		// Idempotency: a redeemer who already holds a grant gets it back,
		// even when the code has since gone terminal. Nothing is recounted.
		if rec, err := tx.GetRedemption(ctx, code.ID, rc.RedeemerID); err == nil {
			grant = grantFor(code, rec.RedeemedAt, true)
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if code.Status.Terminal() || code.UsageFull() {
			return ErrCodeExhausted
		}

		// Record first: the (code_id, redeemer_id) unique constraint is the
		// backstop against two in-flight requests from the same redeemer.
		redeemedAt := s.now()
		rec := &model.Redemption{
			CodeID:        code.ID,
			RedeemerID:    rc.RedeemerID,
			RedeemerEmail: rc.RedeemerEmail,
			RedeemedAt:    redeemedAt,
		}
		if err := tx.CreateRedemption(ctx, rec); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateRedemption
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		// The one write that must be race-safe: a conditional increment
		// whose usage precondition lives at the store, never a
		// read-then-write. Losing the race rolls the record insert back.
		consumed, err := tx.ConsumeUse(ctx, code.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !consumed {
			return ErrCodeExhausted
		}

		after, err := tx.GetByID(ctx, code.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if after.UsageFull() {
			if _, err := tx.UpdateStatus(ctx, code.ID, model.CodeStatusPending, after.TerminalStatusOnFull()); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		grant = grantFor(after, redeemedAt, false)
		return nil
	})

	if errors.Is(err, errDuplicateRedemption) {
		return s.resolveExisting(ctx, codeString, rc.RedeemerID)
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// resolveExisting rebuilds the original grant after losing a same-redeemer
// insert race. The winning transaction has committed by the time the unique
// violation surfaced, so the record is readable here.
func (s *redeemService) resolveExisting(ctx context.Context, codeString string, redeemerID uuid.UUID) (*Grant, error) {
	code, err := s.repo.GetByCode(ctx, codeString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	rec, err := s.repo.GetRedemption(ctx, code.ID, redeemerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return grantFor(code, rec.RedeemedAt, true), nil
}

func grantFor(code *model.AccessCode, redeemedAt time.Time, alreadyRedeemed bool) *Grant {
	return &Grant{
		CodeID:          code.ID,
		Kind:            code.Kind,
		TargetID:        code.TargetID,
		GrantedRole:     code.RequiredRole,
		RemainingUses:   code.RemainingUses(),
		AlreadyRedeemed: alreadyRedeemed,
		RedeemedAt:      redeemedAt,
	}
}
