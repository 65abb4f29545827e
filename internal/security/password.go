// Package security holds credential hashing and random token generation.
package security

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns passwords into stored hashes and checks them later.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

var (
	_ Hasher = (*Bcrypt)(nil)
	_ Hasher = (*Argon2id)(nil)
	_ Hasher = (*Multi)(nil)
)

var (
	ErrEmptyPassword = errors.New("password is required")
	ErrUnknownHash   = errors.New("unrecognized password hash")
)

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

func NewBcrypt() *Bcrypt {
	return &Bcrypt{Cost: bcrypt.DefaultCost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Argon2id hashes into the PHC string format
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
type Argon2id struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func NewArgon2id() *Argon2id {
	return &Argon2id{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *Argon2id) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt, err := randomBytes(int(a.SaltLength))
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(password, encoded string) (bool, error) {
	params, salt, want, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func decodeArgon2id(encoded string) (*Argon2id, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrUnknownHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}
	p := &Argon2id{}
	var par int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &par); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	p.Parallelism = uint8(par)
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid hash encoding: %w", err)
	}
	return p, salt, key, nil
}

// Multi hashes new passwords with Primary and verifies any hash it can
// recognize by prefix, so accounts keep working after the algorithm changes.
type Multi struct {
	Primary Hasher
	bcrypt  *Bcrypt
	argon   *Argon2id
}

func NewMulti(primary Hasher) *Multi {
	return &Multi{Primary: primary, bcrypt: NewBcrypt(), argon: NewArgon2id()}
}

func (m *Multi) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

func (m *Multi) Verify(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.argon.Verify(password, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(password, hash)
	}
	return false, ErrUnknownHash
}

// NewHasher returns the hasher named by algo ("bcrypt" or "argon2id"),
// wrapped so that hashes from either algorithm still verify.
func NewHasher(algo string) (*Multi, error) {
	switch algo {
	case "", "bcrypt":
		return NewMulti(NewBcrypt()), nil
	case "argon2id":
		return NewMulti(NewArgon2id()), nil
	}
	return nil, fmt.Errorf("unknown password hash %q (want bcrypt or argon2id)", algo)
}
