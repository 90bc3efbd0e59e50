package auth

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes secrets with a fresh salt per call.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches digest. A malformed digest is a mismatch.
func (h *BcryptHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

func HashPassword(password string) (string, error) {
	return NewBcryptHasher().Hash(password)
}

func CheckPassword(password, hash string) bool {
	return NewBcryptHasher().Verify(password, hash)
}
