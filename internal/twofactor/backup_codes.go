package twofactor

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/khanghh/kmfa/model"
	"github.com/khanghh/kmfa/params"
)

// Hasher is the salted one-way hash used to store backup codes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BackupCodeManager generates single-use recovery codes and matches
// candidates against stored digests. It never persists anything itself.
type BackupCodeManager struct {
	hasher Hasher
	count  int
}

func NormalizeBackupCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidBackupCodeFormat reports whether code, once normalized, is
// params.BackupCodeLength hex characters.
func ValidBackupCodeFormat(code string) bool {
	code = NormalizeBackupCode(code)
	if len(code) != params.BackupCodeLength {
		return false
	}
	_, err := hex.DecodeString(code)
	return err == nil
}

func generateBackupCode() (string, error) {
	buf := make([]byte, params.BackupCodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// GenerateBatch returns the plaintext codes together with the unused records
// holding their digests. The plaintexts must be shown to the user once and
// dropped.
func (m *BackupCodeManager) GenerateBatch(accountID uint) ([]string, []*model.BackupCode, error) {
	seen := make(map[string]struct{}, m.count)
	codes := make([]string, 0, m.count)
	records := make([]*model.BackupCode, 0, m.count)
	for len(codes) < m.count {
		code, err := generateBackupCode()
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		digest, err := m.hasher.Hash(code)
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		records = append(records, &model.BackupCode{
			AccountID: accountID,
			CodeHash:  digest,
		})
	}
	return codes, records, nil
}

// Consume returns the first unused record whose digest matches code, or nil.
// Marking the record used is left to the caller.
func (m *BackupCodeManager) Consume(code string, records []*model.BackupCode) *model.BackupCode {
	code = NormalizeBackupCode(code)
	for _, record := range records {
		if record.Used {
			continue
		}
		if m.hasher.Verify(code, record.CodeHash) {
			return record
		}
	}
	return nil
}

func NewBackupCodeManager(hasher Hasher, count int) (*BackupCodeManager, error) {
	if count == 0 {
		count = params.BackupCodeCount
	}
	if count < 0 {
		return nil, ErrInvalidBackupCount
	}
	return &BackupCodeManager{hasher: hasher, count: count}, nil
}
