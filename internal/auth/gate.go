// Package auth implements the access gate: a request is allowed when it presents
// one of a fixed set of accepted keys.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Gate accepts or rejects a presented credential.
type Gate struct {
	plain  [][]byte
	hashed [][]byte
}

// NewGate builds a gate from configured keys. Entries that look like bcrypt
// hashes are compared with bcrypt; everything else is compared verbatim.
// Blank entries are ignored; a gate with no keys rejects every credential.
func NewGate(keys []string) *Gate {
	gate := &Gate{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if isBcryptHash(key) {
			gate.hashed = append(gate.hashed, []byte(key))
			continue
		}
		gate.plain = append(gate.plain, []byte(key))
	}
	return gate
}

// Authorize reports whether credential matches an accepted key.
func (g *Gate) Authorize(credential string) bool {
	if g == nil {
		return false
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false
	}
	presented := []byte(credential)
	matched := false
	for _, key := range g.plain {
		if subtle.ConstantTimeCompare(presented, key) == 1 {
			matched = true
		}
	}
	if matched {
		return true
	}
	for _, hash := range g.hashed {
		if bcrypt.CompareHashAndPassword(hash, presented) == nil {
			return true
		}
	}
	return false
}

// Size returns the number of accepted keys.
func (g *Gate) Size() int {
	if g == nil {
		return 0
	}
	return len(g.plain) + len(g.hashed)
}

// Credential extracts the key from an Authorization header value. The bare
// value is accepted, as is the "Bearer <key>" form.
func Credential(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}

// HashKey returns a bcrypt hash suitable for API_KEYS.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
