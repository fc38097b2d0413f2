package security

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokens checks operator tokens against a bcrypt hash
type AdminTokens struct {
	hash []byte
}

// NewAdminTokens creates a checker; an empty hash disables admin access entirely
func NewAdminTokens(hash string) *AdminTokens {
	return &AdminTokens{hash: []byte(hash)}
}

// Enabled reports whether a hash is configured
func (a *AdminTokens) Enabled() bool {
	return len(a.hash) > 0
}

// Check reports whether token matches the configured hash
func (a *AdminTokens) Check(token string) bool {
	if !a.Enabled() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// HashAdminToken produces the value for ADMIN_TOKEN_HASH
func HashAdminToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NewRequestID returns a random id for correlating logs of one request
func NewRequestID() string {
	return uuid.NewString()
}
