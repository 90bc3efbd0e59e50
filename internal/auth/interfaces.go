package auth

import (
	"context"

	"github.com/hugh/go-folio/internal/database/models"
)

// Hasher hashes and verifies user secrets.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// VerificationNotifier delivers the verification link to a new account.
type VerificationNotifier interface {
	NotifyVerification(ctx context.Context, email, link string) error
}

// SessionResolver resolves a presented token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Compile-time interface satisfaction checks
var (
	_ Hasher          = (*BcryptHasher)(nil)
	_ SessionResolver = (*SessionManager)(nil)
)
