package repository

import (
	"context"

	"github.com/google/uuid"

	"schoolhub/onboard/internal/model"
)

// CodeRepository is the persistent store for access codes and their
// redemption log. The store is the sole authority for used_count; callers
// must mutate it only through ConsumeUse so concurrent redeemers racing for
// the last use can never both win.
type CodeRepository interface {
	Create(ctx context.Context, code *model.AccessCode) error
	GetByCode(ctx context.Context, code string) (*model.AccessCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.AccessCode, error)
	// CodeExists reports whether a code string is taken by a live,
	// non-cancelled code. Used by the generator's uniqueness retry loop.
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByIssuer(ctx context.Context, issuerID uuid.UUID) ([]model.AccessCode, error)
	List(ctx context.Context) ([]model.AccessCode, error)

	// ConsumeUse atomically increments used_count under the precondition
	// that the code is pending and under its usage cap. Returns false when
	// the precondition did not hold (no row was affected).
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateStatus performs a conditional status transition and reports
	// whether a row was affected, keeping transitions monotonic.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.CodeStatus) (bool, error)
	SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetRedemption(ctx context.Context, codeID, redeemerID uuid.UUID) (*model.Redemption, error)
	CreateRedemption(ctx context.Context, rec *model.Redemption) error

	// Transaction runs fn against a repository bound to a single database
	// transaction. Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(CodeRepository) error) error
}
