package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/repository"
)

// IssueRequest describes a code an issuer wants to create. A nil
// LeadDuration falls back to the configured default; an explicit zero
// means the code never expires. A nil MaxUses means unlimited.
type IssueRequest struct {
	IssuerID      uuid.UUID
	Kind          model.ScopeKind
	TargetID      uuid.UUID
	RequiredRole  *model.Role
	RequiredEmail *string
	LeadDuration  *time.Duration
	MaxUses       *int
	Message       string
}

// CodePreview is the read-only view of a code served before redemption.
type CodePreview struct {
	Code          string           `json:"code"`
	Kind          model.ScopeKind  `json:"kind"`
	TargetID      uuid.UUID        `json:"target_id"`
	RequiredRole  *model.Role      `json:"required_role,omitempty"`
	Status        model.CodeStatus `json:"status"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	RemainingUses *int             `json:"remaining_uses,omitempty"`
}

type CodeService interface {
	Issue(ctx context.Context, req IssueRequest) (*model.AccessCode, error)
	Preview(ctx context.Context, code string) (*CodePreview, error)
	ListByIssuer(ctx context.Context, issuerID uuid.UUID) ([]model.AccessCode, error)
	ListAll(ctx context.Context) ([]model.AccessCode, error)
	Cancel(ctx context.Context, id, issuerID uuid.UUID) error
	SetDisabled(ctx context.Context, id, issuerID uuid.UUID, disabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type codeService struct {
	repo        repository.CodeRepository
	cache       repository.CacheStore
	gen         *Generator
	defaultLead time.Duration
	previewTTL  time.Duration
	now         func() time.Time
}

func NewCodeService(
	repo repository.CodeRepository,
	cache repository.CacheStore,
	gen *Generator,
	defaultLead, previewTTL time.Duration,
) CodeService {
	return &codeService{
		repo:        repo,
		cache:       cache,
		gen:         gen,
		defaultLead: defaultLead,
		previewTTL:  previewTTL,
		now:         time.Now,
	}
}

func (s *codeService) Issue(ctx context.Context, req IssueRequest) (*model.AccessCode, error) {
	if !req.Kind.Valid() {
		return nil, ErrInvalidScope
	}
	if req.TargetID == uuid.Nil || req.IssuerID == uuid.Nil {
		return nil, ErrInvalidScope
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, fmt.Errorf("%w: max_uses must be positive", ErrInvalidScope)
	}
	// A negative lead would put the expiry before issuance. Zero stays valid
	// and means the code never expires.
	if req.LeadDuration != nil && *req.LeadDuration < 0 {
		return nil, fmt.Errorf("%w: lead_duration must not be negative", ErrInvalidScope)
	}

	maxUses := req.MaxUses
	switch req.Kind {
	case model.ScopeTeacherJoin:
		// Teacher join links are one-time by design.
		one := 1
		maxUses = &one
	case model.ScopeSchoolInvitation:
		if maxUses == nil {
			one := 1
			maxUses = &one
		}
	}

	now := s.now()
	var expiresAt *time.Time
	lead := s.defaultLead
	if req.LeadDuration != nil {
		lead = *req.LeadDuration
	}
	if lead > 0 {
		t := ComputeExpiry(now, lead)
		expiresAt = &t
	}

	code, err := s.gen.GenerateUnique(ctx, s.repo.CodeExists)
	if err != nil {
		return nil, err
	}

	ac := &model.AccessCode{
		Code:          code,
		Kind:          req.Kind,
		TargetID:      req.TargetID,
		RequiredRole:  req.RequiredRole,
		RequiredEmail: req.RequiredEmail,
		IssuerID:      req.IssuerID,
		Message:       req.Message,
		MaxUses:       maxUses,
		Status:        model.CodeStatusPending,
		ExpiresAt:     expiresAt,
	}
	if err := s.repo.Create(ctx, ac); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race for the string between the existence check and
			// the insert. Rare enough to surface as exhaustion.
			return nil, ErrGenerationExhausted
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ac, nil
}

func (s *codeService) Preview(ctx context.Context, code string) (*CodePreview, error) {
	cacheKey := "code_preview:" + code
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		var p CodePreview
		if err := json.Unmarshal(cached, &p); err == nil {
			return &p, nil
		}
	}

	ac, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	p := &CodePreview{
		Code:          ac.Code,
		Kind:          ac.Kind,
		TargetID:      ac.TargetID,
		RequiredRole:  ac.RequiredRole,
		Status:        ac.Status,
		ExpiresAt:     ac.ExpiresAt,
		RemainingUses: ac.RemainingUses(),
	}
	if data, err := json.Marshal(p); err == nil {
		// Best effort; a stale or missed cache entry only costs a DB read.
		_ = s.cache.Set(ctx, cacheKey, data, s.previewTTL)
	}
	return p, nil
}

func (s *codeService) ListByIssuer(ctx context.Context, issuerID uuid.UUID) ([]model.AccessCode, error) {
	return s.repo.ListByIssuer(ctx, issuerID)
}

func (s *codeService) ListAll(ctx context.Context) ([]model.AccessCode, error) {
	return s.repo.List(ctx)
}

// Cancel revokes a pending code. Cancelled is reachable from Pending only;
// a code that already went terminal stays where it is.
func (s *codeService) Cancel(ctx context.Context, id, issuerID uuid.UUID) error {
	ac, err := s.getOwned(ctx, id, issuerID)
	if err != nil {
		return err
	}
	ok, err := s.repo.UpdateStatus(ctx, id, model.CodeStatusPending, model.CodeStatusCancelled)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrCodeTerminal
	}
	s.invalidatePreview(ctx, ac.Code)
	return nil
}

func (s *codeService) SetDisabled(ctx context.Context, id, issuerID uuid.UUID, disabled bool) error {
	ac, err := s.getOwned(ctx, id, issuerID)
	if err != nil {
		return err
	}
	if ac.Status.Terminal() {
		return ErrCodeTerminal
	}
	if err := s.repo.SetDisabled(ctx, id, disabled); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.invalidatePreview(ctx, ac.Code)
	return nil
}

// Delete hard-removes a code. This is an administrative action outside the
// lifecycle state machine.
func (s *codeService) Delete(ctx context.Context, id uuid.UUID) error {
	ac, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.invalidatePreview(ctx, ac.Code)
	return nil
}

func (s *codeService) getOwned(ctx context.Context, id, issuerID uuid.UUID) (*model.AccessCode, error) {
	ac, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ac.IssuerID != issuerID {
		return nil, ErrNotIssuer
	}
	return ac, nil
}

func (s *codeService) invalidatePreview(ctx context.Context, code string) {
	_ = s.cache.Delete(ctx, "code_preview:"+code)
}
