package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolhub/onboard/internal/model"
)

type pgCodeRepository struct {
	db *gorm.DB
}

func NewPGCodeRepository(db *gorm.DB) CodeRepository {
	return &pgCodeRepository{db: db}
}

func (r *pgCodeRepository) Create(ctx context.Context, code *model.AccessCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *pgCodeRepository) GetByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	var ac model.AccessCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&ac).Error; err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *pgCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessCode, error) {
	var ac model.AccessCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ac).Error; err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *pgCodeRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AccessCode{}).
		Where("code = ? AND status <> ?", code, model.CodeStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *pgCodeRepository) ListByIssuer(ctx context.Context, issuerID uuid.UUID) ([]model.AccessCode, error) {
	var codes []model.AccessCode
	err := r.db.WithContext(ctx).
		Where("issuer_id = ?", issuerID).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *pgCodeRepository) List(ctx context.Context) ([]model.AccessCode, error) {
	var codes []model.AccessCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// ConsumeUse is the single compare-and-swap point of the redemption path.
// The usage precondition lives in the WHERE clause so two redeemers racing
// for the last remaining use serialize on the row lock and exactly one
// increment wins.
func (r *pgCodeRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.AccessCode{}).
		Where("id = ? AND status = ? AND disabled = false", id, model.CodeStatusPending).
		Where("max_uses IS NULL OR used_count < max_uses").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pgCodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.CodeStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.AccessCode{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pgCodeRepository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	return r.db.WithContext(ctx).
		Model(&model.AccessCode{}).
		Where("id = ?", id).
		UpdateColumn("disabled", disabled).
		Error
}

func (r *pgCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AccessCode{}, "id = ?", id).Error
}

func (r *pgCodeRepository) GetRedemption(ctx context.Context, codeID, redeemerID uuid.UUID) (*model.Redemption, error) {
	var rec model.Redemption
	err := r.db.WithContext(ctx).
		Where("code_id = ? AND redeemer_id = ?", codeID, redeemerID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *pgCodeRepository) CreateRedemption(ctx context.Context, rec *model.Redemption) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *pgCodeRepository) Transaction(ctx context.Context, fn func(CodeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgCodeRepository{db: tx})
	})
}
