package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestCodeStatusTransitions(t *testing.T) {
	terminal := []CodeStatus{CodeStatusAccepted, CodeStatusExhausted, CodeStatusCancelled}

	for _, to := range terminal {
		assert.True(t, CodeStatusPending.CanTransitionTo(to), "pending -> %v", to)
	}

	// Terminal states are absorbing: no transition leaves them.
	for _, from := range terminal {
		assert.True(t, from.Terminal())
		for _, to := range []CodeStatus{CodeStatusPending, CodeStatusAccepted, CodeStatusExhausted, CodeStatusCancelled} {
			assert.False(t, from.CanTransitionTo(to), "%v -> %v", from, to)
		}
	}

	assert.False(t, CodeStatusPending.Terminal())
	assert.False(t, CodeStatusPending.CanTransitionTo(CodeStatusPending))
}

func TestRemainingUses(t *testing.T) {
	unlimited := &AccessCode{}
	assert.Nil(t, unlimited.RemainingUses())
	assert.False(t, unlimited.UsageFull())

	partial := &AccessCode{MaxUses: intPtr(3), UsedCount: 1}
	assert.Equal(t, 2, *partial.RemainingUses())
	assert.False(t, partial.UsageFull())

	full := &AccessCode{MaxUses: intPtr(3), UsedCount: 3}
	assert.Equal(t, 0, *full.RemainingUses())
	assert.True(t, full.UsageFull())
}

func TestTerminalStatusOnFull(t *testing.T) {
	single := &AccessCode{Kind: ScopeSchoolInvitation, MaxUses: intPtr(1)}
	assert.Equal(t, CodeStatusAccepted, single.TerminalStatusOnFull())

	multi := &AccessCode{Kind: ScopeCourseEnrollment, MaxUses: intPtr(30)}
	assert.Equal(t, CodeStatusExhausted, multi.TerminalStatusOnFull())
}

func TestScopeKindValid(t *testing.T) {
	assert.True(t, ScopeSchoolInvitation.Valid())
	assert.True(t, ScopeCourseEnrollment.Valid())
	assert.True(t, ScopeTeacherJoin.Valid())
	assert.False(t, ScopeKind("group_chat").Valid())
	assert.False(t, ScopeKind("").Valid())
}
