package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScopeKind discriminates what an access code grants when redeemed.
type ScopeKind string

const (
	ScopeSchoolInvitation ScopeKind = "school_invitation"
	ScopeCourseEnrollment ScopeKind = "course_enrollment"
	ScopeTeacherJoin      ScopeKind = "teacher_join"
)

func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeSchoolInvitation, ScopeCourseEnrollment, ScopeTeacherJoin:
		return true
	}
	return false
}

// Role is the role a redeemer claims or a code requires.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type CodeStatus int

const (
	// CodeStatusPending means the code is eligible for redemption,
	// subject to expiry, usage, and disable checks.
	CodeStatusPending CodeStatus = 1
	// CodeStatusAccepted is terminal: a single-redeemer code was fully consumed.
	CodeStatusAccepted CodeStatus = 2
	// CodeStatusExhausted is terminal: a multi-use code reached max_uses.
	CodeStatusExhausted CodeStatus = 3
	// CodeStatusCancelled is terminal: the issuer revoked the code.
	CodeStatusCancelled CodeStatus = 4
)

func (s CodeStatus) Terminal() bool {
	return s == CodeStatusAccepted || s == CodeStatusExhausted || s == CodeStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. Terminal states are absorbing.
func (s CodeStatus) CanTransitionTo(next CodeStatus) bool {
	if s.Terminal() {
		return false
	}
	return next == CodeStatusAccepted || next == CodeStatusExhausted || next == CodeStatusCancelled
}

// AccessCode is an onboarding code issued by an administrator or teacher
// and redeemed for school membership, course enrollment, or a teaching role.
// Expiry is never stored as a status; it is evaluated at redemption time
// from ExpiresAt.
type AccessCode struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code          string         `gorm:"type:varchar(16);not null;index" json:"code"`
	Kind          ScopeKind      `gorm:"type:varchar(32);not null" json:"kind"`
	TargetID      uuid.UUID      `gorm:"type:uuid;not null" json:"target_id"`
	RequiredRole  *Role          `gorm:"type:varchar(16)" json:"required_role,omitempty"`
	RequiredEmail *string        `gorm:"type:varchar(255)" json:"required_email,omitempty"`
	IssuerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"issuer_id"`
	Message       string         `gorm:"type:text" json:"message,omitempty"`
	MaxUses       *int           `json:"max_uses,omitempty"` // nil = unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`
	Status        CodeStatus     `gorm:"type:smallint;not null;default:1" json:"status"`
	Disabled      bool           `gorm:"not null;default:false" json:"disabled"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"` // nil = never expires
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AccessCode) TableName() string { return "access_codes" }

// RemainingUses returns how many redemptions are left, or nil for
// unlimited codes.
func (c *AccessCode) RemainingUses() *int {
	if c.MaxUses == nil {
		return nil
	}
	n := *c.MaxUses - c.UsedCount
	if n < 0 {
		n = 0
	}
	return &n
}

// UsageFull reports whether the code has consumed its usage budget.
func (c *AccessCode) UsageFull() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// TerminalStatusOnFull is the status a code ends in when its last use is
// consumed: Accepted for single-redeemer codes, Exhausted for multi-use
// enrollment codes.
func (c *AccessCode) TerminalStatusOnFull() CodeStatus {
	if c.MaxUses != nil && *c.MaxUses == 1 {
		return CodeStatusAccepted
	}
	return CodeStatusExhausted
}
