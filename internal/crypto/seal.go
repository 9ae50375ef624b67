package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrMalformedSealedBox = errors.New("malformed sealed box")
	ErrOpenFailed         = errors.New("sealed box could not be opened")
)

// SealParams configures the Argon2id derivation of the sealing key.
type SealParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
}

// DefaultSealParams returns Argon2id parameters suited to deriving a
// file-sealing key from a user-held secret.
func DefaultSealParams() SealParams {
	return SealParams{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 2,
		SaltLength:  16,
	}
}

// Seal encrypts plaintext with a key derived from secret using Argon2id and
// XChaCha20-Poly1305. The output layout is salt || nonce || ciphertext.
func Seal(secret string, plaintext []byte) ([]byte, error) {
	params := DefaultSealParams()

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	aead, err := newAEAD(secret, salt, params)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	box := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	box = append(box, salt...)
	box = append(box, nonce...)
	return aead.Seal(box, nonce, plaintext, nil), nil
}

// Open decrypts a box produced by Seal with the same secret.
func Open(secret string, box []byte) ([]byte, error) {
	params := DefaultSealParams()

	minLen := int(params.SaltLength) + chacha20poly1305.NonceSizeX
	if len(box) < minLen {
		return nil, ErrMalformedSealedBox
	}

	salt := box[:params.SaltLength]
	nonce := box[params.SaltLength:minLen]
	ciphertext := box[minLen:]

	aead, err := newAEAD(secret, salt, params)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

func newAEAD(secret string, salt []byte, params SealParams) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(secret), salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return aead, nil
}
