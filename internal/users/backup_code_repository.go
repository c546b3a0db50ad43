package users

import (
	"context"
	"time"

	"github.com/khanghh/kmfa/model"
	"gorm.io/gorm"
)

type BackupCodeRepository interface {
	WithTx(tx *gorm.DB) BackupCodeRepository
	FindUnused(ctx context.Context, accountID uint) ([]*model.BackupCode, error)
	CountUnused(ctx context.Context, accountID uint) (int64, error)
	CreateInBatches(ctx context.Context, codes []*model.BackupCode) error
	MarkUsed(ctx context.Context, id uint, usedAt time.Time) (int64, error)
	DeleteByAccountID(ctx context.Context, accountID uint) (int64, error)
}

type backupCodeRepository struct {
	db *gorm.DB
}

func (r *backupCodeRepository) WithTx(tx *gorm.DB) BackupCodeRepository {
	return NewBackupCodeRepository(tx)
}

func (r *backupCodeRepository) FindUnused(ctx context.Context, accountID uint) ([]*model.BackupCode, error) {
	var codes []*model.BackupCode
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND used = ?", accountID, false).
		Order("id").
		Find(&codes).Error
	return codes, err
}

func (r *backupCodeRepository) CountUnused(ctx context.Context, accountID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BackupCode{}).
		Where("account_id = ? AND used = ?", accountID, false).
		Count(&count).Error
	return count, err
}

func (r *backupCodeRepository) CreateInBatches(ctx context.Context, codes []*model.BackupCode) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(codes, len(codes)).Error
}

// MarkUsed flips a code to used only if it is still unused, so a code can
// be consumed exactly once even under concurrent requests.
func (r *backupCodeRepository) MarkUsed(ctx context.Context, id uint, usedAt time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).
		Model(&model.BackupCode{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]interface{}{"used": true, "used_at": usedAt})
	return ret.RowsAffected, ret.Error
}

func (r *backupCodeRepository) DeleteByAccountID(ctx context.Context, accountID uint) (int64, error) {
	ret := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&model.BackupCode{})
	return ret.RowsAffected, ret.Error
}

func NewBackupCodeRepository(db *gorm.DB) BackupCodeRepository {
	return &backupCodeRepository{db}
}
