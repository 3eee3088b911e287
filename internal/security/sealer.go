package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

var defaultParams = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
}

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts session values at rest with XChaCha20-Poly1305. The key is
// derived from a configured secret with argon2id, salted by the namespace so
// that two consoles sharing a secret do not share keys.
type Sealer struct {
	key []byte
}

func NewSealer(secret string, namespace string) (*Sealer, error) {
	return NewSealerWithParams(secret, namespace, defaultParams)
}

func NewSealerWithParams(secret string, namespace string, params Argon2Params) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("sealing secret required")
	}
	salt := []byte("learninghouse-console:" + namespace)
	key := argon2.IDKey([]byte(secret), salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
	return &Sealer{key: key}, nil
}

func (s *Sealer) Seal(plaintext []byte, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *Sealer) Open(ciphertext []byte, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, additionalData)
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plaintext, nil
}
