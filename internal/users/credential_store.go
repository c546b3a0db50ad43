package users

import (
	"context"
	"time"

	"github.com/khanghh/kmfa/model"
	"gorm.io/gorm"
)

// CredentialStore is the durable home of accounts, MFA factors and backup
// codes. Calls made on the store handed to Transaction's callback run in one
// database transaction.
type CredentialStore interface {
	Transaction(ctx context.Context, fn func(tx CredentialStore) error) error

	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAccountByID(ctx context.Context, id uint) (*model.Account, error)
	LockAccount(ctx context.Context, id uint) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	UpdateAccount(ctx context.Context, id uint, columns map[string]interface{}) error
	DeleteAccount(ctx context.Context, id uint) error

	FindMfaFactor(ctx context.Context, accountID uint) (*model.MfaFactor, error)
	UpsertMfaFactor(ctx context.Context, factor *model.MfaFactor) error
	UpdateMfaFactor(ctx context.Context, accountID uint, columns map[string]interface{}) error
	DeleteMfaFactor(ctx context.Context, accountID uint) error

	FindUnusedBackupCodes(ctx context.Context, accountID uint) ([]*model.BackupCode, error)
	CountUnusedBackupCodes(ctx context.Context, accountID uint) (int64, error)
	InsertBackupCodes(ctx context.Context, codes []*model.BackupCode) error
	MarkBackupCodeUsed(ctx context.Context, id uint, usedAt time.Time) (bool, error)
	DeleteAllBackupCodes(ctx context.Context, accountID uint) error
}

type credentialStore struct {
	db             *gorm.DB
	accountRepo    AccountRepository
	mfaFactorRepo  MfaFactorRepository
	backupCodeRepo BackupCodeRepository
}

func (s *credentialStore) Transaction(ctx context.Context, fn func(tx CredentialStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewCredentialStore(tx))
	})
}

func (s *credentialStore) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.accountRepo.First(ctx, "username = ?", username)
}

func (s *credentialStore) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.accountRepo.First(ctx, "email = ?", email)
}

func (s *credentialStore) FindAccountByID(ctx context.Context, id uint) (*model.Account, error) {
	return s.accountRepo.First(ctx, "id = ?", id)
}

func (s *credentialStore) LockAccount(ctx context.Context, id uint) (*model.Account, error) {
	return s.accountRepo.Lock(ctx, id)
}

func (s *credentialStore) CreateAccount(ctx context.Context, account *model.Account) error {
	return s.accountRepo.Create(ctx, account)
}

func (s *credentialStore) UpdateAccount(ctx context.Context, id uint, columns map[string]interface{}) error {
	affected, err := s.accountRepo.Updates(ctx, id, columns)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *credentialStore) DeleteAccount(ctx context.Context, id uint) error {
	affected, err := s.accountRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *credentialStore) FindMfaFactor(ctx context.Context, accountID uint) (*model.MfaFactor, error) {
	return s.mfaFactorRepo.GetByAccountID(ctx, accountID)
}

func (s *credentialStore) UpsertMfaFactor(ctx context.Context, factor *model.MfaFactor) error {
	return s.mfaFactorRepo.Upsert(ctx, factor)
}

func (s *credentialStore) UpdateMfaFactor(ctx context.Context, accountID uint, columns map[string]interface{}) error {
	affected, err := s.mfaFactorRepo.Updates(ctx, accountID, columns)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMfaFactorNotFound
	}
	return nil
}

func (s *credentialStore) DeleteMfaFactor(ctx context.Context, accountID uint) error {
	_, err := s.mfaFactorRepo.Delete(ctx, accountID)
	return err
}

func (s *credentialStore) FindUnusedBackupCodes(ctx context.Context, accountID uint) ([]*model.BackupCode, error) {
	return s.backupCodeRepo.FindUnused(ctx, accountID)
}

func (s *credentialStore) CountUnusedBackupCodes(ctx context.Context, accountID uint) (int64, error) {
	return s.backupCodeRepo.CountUnused(ctx, accountID)
}

func (s *credentialStore) InsertBackupCodes(ctx context.Context, codes []*model.BackupCode) error {
	return s.backupCodeRepo.CreateInBatches(ctx, codes)
}

func (s *credentialStore) MarkBackupCodeUsed(ctx context.Context, id uint, usedAt time.Time) (bool, error) {
	affected, err := s.backupCodeRepo.MarkUsed(ctx, id, usedAt)
	return affected == 1, err
}

func (s *credentialStore) DeleteAllBackupCodes(ctx context.Context, accountID uint) error {
	_, err := s.backupCodeRepo.DeleteByAccountID(ctx, accountID)
	return err
}

func NewCredentialStore(db *gorm.DB) CredentialStore {
	return &credentialStore{
		db:             db,
		accountRepo:    NewAccountRepository(db),
		mfaFactorRepo:  NewMfaFactorRepository(db),
		backupCodeRepo: NewBackupCodeRepository(db),
	}
}
