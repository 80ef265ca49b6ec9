package service

import "time"

// DefaultExpiryTolerance is the clock-skew window applied when evaluating
// expiry. Issuing and redeeming instances may run on different clocks; the
// symmetric tolerance keeps a code from being rejected minutes before its
// nominal boundary while still enforcing a hard cutoff past the window.
const DefaultExpiryTolerance = 5 * time.Minute

// ComputeExpiry returns the expiry timestamp for a code issued at issuedAt
// with the given lead duration.
func ComputeExpiry(issuedAt time.Time, lead time.Duration) time.Time {
	return issuedAt.Add(lead)
}

// IsExpired evaluates expiry lazily at validation time: a code is expired
// once now is past expiresAt by more than the tolerance. A nil expiresAt
// means the code never expires.
func IsExpired(now time.Time, expiresAt *time.Time, tolerance time.Duration) bool {
	if expiresAt == nil {
		return false
	}
	return now.After(expiresAt.Add(tolerance))
}
