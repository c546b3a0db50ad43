package auth

import (
	"context"
	"sync"
	"time"

	"github.com/khanghh/kmfa/internal/users"
	"github.com/khanghh/kmfa/model"
)

// memoryStore is a CredentialStore kept in maps. Transactions are serialized
// and roll back every write when the callback fails.
type memoryStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	nextID   uint
	accounts map[uint]model.Account
	factors  map[uint]model.MfaFactor
	codes    map[uint]model.BackupCode

	// failUpdateAccount makes the next UpdateAccount call fail.
	failUpdateAccount error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: map[uint]model.Account{},
		factors:  map[uint]model.MfaFactor{},
		codes:    map[uint]model.BackupCode{},
	}
}

func (s *memoryStore) snapshot() (map[uint]model.Account, map[uint]model.MfaFactor, map[uint]model.BackupCode) {
	accounts := make(map[uint]model.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	factors := make(map[uint]model.MfaFactor, len(s.factors))
	for k, v := range s.factors {
		factors[k] = v
	}
	codes := make(map[uint]model.BackupCode, len(s.codes))
	for k, v := range s.codes {
		codes[k] = v
	}
	return accounts, factors, codes
}

func (s *memoryStore) Transaction(ctx context.Context, fn func(tx users.CredentialStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	accounts, factors, codes := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.accounts, s.factors, s.codes = accounts, factors, codes
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) findAccount(match func(model.Account) bool) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if match(account) {
			found := account
			return &found, nil
		}
	}
	return nil, users.ErrAccountNotFound
}

func (s *memoryStore) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.findAccount(func(a model.Account) bool { return a.Username == username })
}

func (s *memoryStore) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.findAccount(func(a model.Account) bool { return a.Email == email })
}

func (s *memoryStore) FindAccountByID(ctx context.Context, id uint) (*model.Account, error) {
	return s.findAccount(func(a model.Account) bool { return a.ID == id })
}

func (s *memoryStore) LockAccount(ctx context.Context, id uint) (*model.Account, error) {
	return s.FindAccountByID(ctx, id)
}

func (s *memoryStore) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return users.ErrUsernameTaken
		}
		if existing.Email == account.Email {
			return users.ErrEmailRegistered
		}
	}
	s.nextID++
	account.ID = s.nextID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = *account
	return nil
}

func (s *memoryStore) UpdateAccount(ctx context.Context, id uint, columns map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpdateAccount; err != nil {
		s.failUpdateAccount = nil
		return err
	}
	account, ok := s.accounts[id]
	if !ok {
		return users.ErrAccountNotFound
	}
	for col, val := range columns {
		switch col {
		case users.ColAccountMfaEnabled:
			account.MfaEnabled = val.(bool)
		case users.ColAccountPassword:
			account.Password = val.(string)
		}
	}
	s.accounts[id] = account
	return nil
}

func (s *memoryStore) DeleteAccount(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return users.ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memoryStore) FindMfaFactor(ctx context.Context, accountID uint) (*model.MfaFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	factor, ok := s.factors[accountID]
	if !ok {
		return nil, users.ErrMfaFactorNotFound
	}
	return &factor, nil
}

func (s *memoryStore) UpsertMfaFactor(ctx context.Context, factor *model.MfaFactor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.factors[factor.AccountID]; ok {
		factor.ID = existing.ID
	} else {
		s.nextID++
		factor.ID = s.nextID
	}
	s.factors[factor.AccountID] = *factor
	return nil
}

func (s *memoryStore) UpdateMfaFactor(ctx context.Context, accountID uint, columns map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	factor, ok := s.factors[accountID]
	if !ok {
		return users.ErrMfaFactorNotFound
	}
	for col, val := range columns {
		switch col {
		case users.ColMfaFactorIsActive:
			factor.IsActive = val.(bool)
		case users.ColMfaFactorVerifiedAt:
			verifiedAt := val.(time.Time)
			factor.VerifiedAt = &verifiedAt
		}
	}
	s.factors[accountID] = factor
	return nil
}

func (s *memoryStore) DeleteMfaFactor(ctx context.Context, accountID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.factors, accountID)
	return nil
}

func (s *memoryStore) FindUnusedBackupCodes(ctx context.Context, accountID uint) ([]*model.BackupCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []*model.BackupCode
	for _, code := range s.codes {
		if code.AccountID == accountID && !code.Used {
			found := code
			codes = append(codes, &found)
		}
	}
	return codes, nil
}

func (s *memoryStore) CountUnusedBackupCodes(ctx context.Context, accountID uint) (int64, error) {
	codes, err := s.FindUnusedBackupCodes(ctx, accountID)
	return int64(len(codes)), err
}

func (s *memoryStore) InsertBackupCodes(ctx context.Context, codes []*model.BackupCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range codes {
		s.nextID++
		code.ID = s.nextID
		s.codes[code.ID] = *code
	}
	return nil
}

func (s *memoryStore) MarkBackupCodeUsed(ctx context.Context, id uint, usedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[id]
	if !ok || code.Used {
		return false, nil
	}
	code.Used = true
	code.UsedAt = &usedAt
	s.codes[id] = code
	return true, nil
}

func (s *memoryStore) DeleteAllBackupCodes(ctx context.Context, accountID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, code := range s.codes {
		if code.AccountID == accountID {
			delete(s.codes, id)
		}
	}
	return nil
}
