package service

import "errors"

// Redemption outcomes are deliberately distinct so the API layer can give
// precise guidance ("this code expired" vs "this code has been fully used").
// Only ErrStoreUnavailable may be retried by the caller; every other error
// is final for the given input.
var (
	ErrGenerationExhausted = errors.New("could not generate a unique code")
	ErrCodeNotFound        = errors.New("code not found")
	ErrCodeDisabled        = errors.New("code is disabled")
	ErrCodeCancelled       = errors.New("code has been cancelled")
	ErrCodeExpired         = errors.New("code has expired")
	ErrCodeExhausted       = errors.New("code usage exhausted")
	ErrRoleMismatch        = errors.New("code is not valid for this role")
	ErrEmailMismatch       = errors.New("code is bound to a different email")
	ErrScopeMismatch       = errors.New("code is not valid for this target")
	ErrCodeTerminal        = errors.New("code is in a terminal state")
	ErrNotIssuer           = errors.New("code belongs to a different issuer")
	ErrInvalidScope        = errors.New("invalid code scope")
	ErrStoreUnavailable    = errors.New("code store unavailable")
)
