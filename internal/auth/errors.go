package auth

import "errors"

var (
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidVerification = errors.New("invalid or expired verification token")
)

// AuthErrorKind is the reason a presented token did not authenticate.
type AuthErrorKind int

const (
	NoToken AuthErrorKind = iota + 1
	InvalidSession
	SessionExpired
	UserNotFound
)

func (k AuthErrorKind) String() string {
	switch k {
	case NoToken:
		return "no token"
	case InvalidSession:
		return "invalid session"
	case SessionExpired:
		return "session expired"
	case UserNotFound:
		return "user not found"
	}
	return "unknown"
}

// AuthError is returned by session resolution. Every kind maps to the same
// unauthorized response; the kind is only for logs and tests.
type AuthError struct {
	Kind AuthErrorKind
}

func (e *AuthError) Error() string {
	return "not authenticated: " + e.Kind.String()
}

// Is matches another AuthError of the same kind, or any AuthError when the
// target kind is zero.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// ErrNotAuthenticated matches every AuthError via errors.Is.
var ErrNotAuthenticated = &AuthError{}
