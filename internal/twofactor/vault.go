package twofactor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"github.com/khanghh/kmfa/params"
	"golang.org/x/crypto/hkdf"
)

const vaultKeyInfo = "kmfa-totp-secret-vault-v1"

// Vault encrypts TOTP secrets at rest with AES-256-GCM. The output is
// base64(nonce || ciphertext || tag), so a wrong key or a modified ciphertext
// fails authentication instead of decrypting to garbage.
type Vault struct {
	aead cipher.AEAD
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize+v.aead.Overhead() {
		return "", errors.Join(ErrDecryptionFailed, ErrCipherTooShort)
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

func deriveVaultKey(keyMaterial string) ([]byte, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, []byte(keyMaterial), nil, []byte(vaultKeyInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// NewVault derives the AES-256 key from keyMaterial with HKDF-SHA256.
func NewVault(keyMaterial string) (*Vault, error) {
	if len(keyMaterial) < params.MinEncryptionKeyLength {
		return nil, ErrEncryptionKeyTooShort
	}
	key, err := deriveVaultKey(keyMaterial)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}
