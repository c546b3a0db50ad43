package users

import (
	"context"
	"errors"

	"github.com/khanghh/kmfa/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ColMfaFactorIsActive   = "is_active"
	ColMfaFactorVerifiedAt = "verified_at"
)

type MfaFactorRepository interface {
	WithTx(tx *gorm.DB) MfaFactorRepository
	GetByAccountID(ctx context.Context, accountID uint) (*model.MfaFactor, error)
	Upsert(ctx context.Context, factor *model.MfaFactor) error
	Updates(ctx context.Context, accountID uint, columns map[string]interface{}) (int64, error)
	Delete(ctx context.Context, accountID uint) (int64, error)
}

type mfaFactorRepository struct {
	db *gorm.DB
}

func (r *mfaFactorRepository) WithTx(tx *gorm.DB) MfaFactorRepository {
	return NewMfaFactorRepository(tx)
}

func (r *mfaFactorRepository) GetByAccountID(ctx context.Context, accountID uint) (*model.MfaFactor, error) {
	var factor model.MfaFactor
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&factor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMfaFactorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &factor, nil
}

// Upsert replaces the factor of factor.AccountID wholesale.
func (r *mfaFactorRepository) Upsert(ctx context.Context, factor *model.MfaFactor) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"secret":               factor.Secret,
				ColMfaFactorIsActive:   factor.IsActive,
				ColMfaFactorVerifiedAt: factor.VerifiedAt,
				"created_at":           gorm.Expr("VALUES(created_at)"),
			}),
		}).
		Create(factor).Error
}

func (r *mfaFactorRepository) Updates(ctx context.Context, accountID uint, columns map[string]interface{}) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.MfaFactor{}).Where("account_id = ?", accountID).Updates(columns)
	return ret.RowsAffected, ret.Error
}

func (r *mfaFactorRepository) Delete(ctx context.Context, accountID uint) (int64, error) {
	ret := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&model.MfaFactor{})
	return ret.RowsAffected, ret.Error
}

func NewMfaFactorRepository(db *gorm.DB) MfaFactorRepository {
	return &mfaFactorRepository{db}
}
