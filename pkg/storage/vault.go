package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	vaultVersion byte = 1
	vaultInfo         = "refactortrack/vault/v1"
)

// ErrCorrupted means a sealed blob could not be opened with the configured key
var ErrCorrupted = errors.New("storage: sealed value corrupted or key mismatch")

// Vault keeps one JSON document encrypted under a single storage key
type Vault struct {
	store Storage
	key   string
	aead  cipher.AEAD
}

// NewVault derives an XChaCha20-Poly1305 key from secret and binds the vault to storageKey
func NewVault(store Storage, storageKey string, secret []byte) (*Vault, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("vault secret must be at least 16 bytes")
	}

	derived := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, []byte(storageKey), []byte(vaultInfo))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}

	return &Vault{store: store, key: storageKey, aead: aead}, nil
}

// Save encrypts v and writes it under the vault key
func (v *Vault) Save(ctx context.Context, value any) error {
	plain, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("vault marshal: %w", err)
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("vault nonce: %w", err)
	}

	blob := make([]byte, 0, 1+len(nonce)+len(plain)+v.aead.Overhead())
	blob = append(blob, vaultVersion)
	blob = append(blob, nonce...)
	blob = v.aead.Seal(blob, nonce, plain, []byte(v.key))

	return v.store.Set(ctx, v.key, blob)
}

// Load decrypts the stored document into dest. Returns ErrNotFound when nothing is stored.
func (v *Vault) Load(ctx context.Context, dest any) error {
	blob, err := v.store.Get(ctx, v.key)
	if err != nil {
		return err
	}

	ns := v.aead.NonceSize()
	if len(blob) < 1+ns+v.aead.Overhead() || blob[0] != vaultVersion {
		return ErrCorrupted
	}

	nonce := blob[1 : 1+ns]
	plain, err := v.aead.Open(nil, nonce, blob[1+ns:], []byte(v.key))
	if err != nil {
		return ErrCorrupted
	}

	if err := json.Unmarshal(plain, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return nil
}

// Clear removes the sealed document
func (v *Vault) Clear(ctx context.Context) error {
	return v.store.Delete(ctx, v.key)
}
