package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a password into a storable digest and checks a candidate
// against one.
type Hasher interface {
	Digest(plain string) (string, error)
	Compare(hash, plain string) bool
}

// NewHasher returns the hasher for kind ("bcrypt" or "sha256"). Whatever
// the kind, Compare also accepts digests written by the other scheme, so
// switching schemes does not lock out existing addresses.
func NewHasher(kind string) (Hasher, error) {
	switch kind {
	case "bcrypt", "":
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case "sha256":
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", kind)
	}
}

// BcryptHasher is the default. The password is reduced to its SHA-256 hex
// first since bcrypt ignores everything past 72 bytes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Digest(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(sha256Hex(plain)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (BcryptHasher) Compare(hash, plain string) bool {
	return compare(hash, plain)
}

// SHA256Hasher produces the unsalted hex digests older lip databases hold.
type SHA256Hasher struct{}

func (SHA256Hasher) Digest(plain string) (string, error) {
	return sha256Hex(plain), nil
}

func (SHA256Hasher) Compare(hash, plain string) bool {
	return compare(hash, plain)
}

func compare(hash, plain string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(sha256Hex(plain))) == nil
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(sha256Hex(plain))) == 1
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
