package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/repository"
)

// fakeCodeRepo is an in-memory CodeRepository with the same contract as the
// Postgres implementation: ConsumeUse is a conditional increment, redemption
// inserts enforce the (code_id, redeemer_id) unique constraint, and
// Transaction serializes concurrent callers and rolls state back on error.
type fakeCodeRepo struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	codes       map[uuid.UUID]*model.AccessCode
	redemptions map[string]*model.Redemption
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{
		codes:       make(map[uuid.UUID]*model.AccessCode),
		redemptions: make(map[string]*model.Redemption),
	}
}

func redemptionKey(codeID, redeemerID uuid.UUID) string {
	return codeID.String() + "|" + redeemerID.String()
}

func (r *fakeCodeRepo) Create(_ context.Context, code *model.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	for _, existing := range r.codes {
		if existing.Code == code.Code && existing.Status != model.CodeStatusCancelled {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *code
	r.codes[code.ID] = &cp
	return nil
}

func (r *fakeCodeRepo) GetByCode(_ context.Context, code string) (*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ac := range r.codes {
		if ac.Code == code {
			cp := *ac
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCodeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ac
	return &cp, nil
}

func (r *fakeCodeRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ac := range r.codes {
		if ac.Code == code && ac.Status != model.CodeStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCodeRepo) ListByIssuer(_ context.Context, issuerID uuid.UUID) ([]model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AccessCode
	for _, ac := range r.codes {
		if ac.IssuerID == issuerID {
			out = append(out, *ac)
		}
	}
	return out, nil
}

func (r *fakeCodeRepo) List(_ context.Context) ([]model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AccessCode
	for _, ac := range r.codes {
		out = append(out, *ac)
	}
	return out, nil
}

func (r *fakeCodeRepo) ConsumeUse(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[id]
	if !ok {
		return false, nil
	}
	if ac.Status != model.CodeStatusPending || ac.Disabled {
		return false, nil
	}
	if ac.MaxUses != nil && ac.UsedCount >= *ac.MaxUses {
		return false, nil
	}
	ac.UsedCount++
	return true, nil
}

func (r *fakeCodeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.CodeStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[id]
	if !ok || ac.Status != from {
		return false, nil
	}
	ac.Status = to
	return true, nil
}

func (r *fakeCodeRepo) SetDisabled(_ context.Context, id uuid.UUID, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ac.Disabled = disabled
	return nil
}

func (r *fakeCodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, id)
	return nil
}

func (r *fakeCodeRepo) GetRedemption(_ context.Context, codeID, redeemerID uuid.UUID) (*model.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.redemptions[redemptionKey(codeID, redeemerID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeCodeRepo) CreateRedemption(_ context.Context, rec *model.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := redemptionKey(rec.CodeID, rec.RedeemerID)
	if _, exists := r.redemptions[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	r.redemptions[key] = &cp
	return nil
}

// Transaction serializes transactional callers and restores a snapshot when
// fn fails, mirroring a rollback.
func (r *fakeCodeRepo) Transaction(_ context.Context, fn func(repository.CodeRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	codesSnap, redemptionsSnap := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(codesSnap, redemptionsSnap)
		return err
	}
	return nil
}

func (r *fakeCodeRepo) snapshot() (map[uuid.UUID]*model.AccessCode, map[string]*model.Redemption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make(map[uuid.UUID]*model.AccessCode, len(r.codes))
	for k, v := range r.codes {
		cp := *v
		codes[k] = &cp
	}
	redemptions := make(map[string]*model.Redemption, len(r.redemptions))
	for k, v := range r.redemptions {
		cp := *v
		redemptions[k] = &cp
	}
	return codes, redemptions
}

func (r *fakeCodeRepo) restore(codes map[uuid.UUID]*model.AccessCode, redemptions map[string]*model.Redemption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = codes
	r.redemptions = redemptions
}

var _ repository.CodeRepository = (*fakeCodeRepo)(nil)
