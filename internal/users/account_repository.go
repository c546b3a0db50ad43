package users

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/khanghh/kmfa/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

const (
	ColAccountPassword   = "password"
	ColAccountMfaEnabled = "mfa_enabled"
)

type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	First(ctx context.Context, query interface{}, args ...interface{}) (*model.Account, error)
	Lock(ctx context.Context, id uint) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	Updates(ctx context.Context, id uint, columns map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	return NewAccountRepository(tx)
}

func (r *accountRepository) First(ctx context.Context, query interface{}, args ...interface{}) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where(query, args...).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Lock reads the account row from the primary with SELECT ... FOR UPDATE.
func (r *accountRepository) Lock(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write, clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		switch {
		case strings.Contains(mysqlErr.Message, "username"):
			return ErrUsernameTaken
		case strings.Contains(mysqlErr.Message, "email"):
			return ErrEmailRegistered
		}
	}
	return err
}

func (r *accountRepository) Updates(ctx context.Context, id uint, columns map[string]interface{}) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Updates(columns)
	return ret.RowsAffected, ret.Error
}

func (r *accountRepository) Delete(ctx context.Context, id uint) (int64, error) {
	ret := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Account{})
	return ret.RowsAffected, ret.Error
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db}
}
