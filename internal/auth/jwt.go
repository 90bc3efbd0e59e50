package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultLinkExpiry = 48 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// LinkClaims carry the stored verification token in jti and the user id in sub.
type LinkClaims struct {
	jwt.RegisteredClaims
}

// LinkSigner signs the tokens embedded in verification links.
type LinkSigner struct {
	secret []byte
	expiry time.Duration
}

func NewLinkSigner(secret string, expiry time.Duration) *LinkSigner {
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	return &LinkSigner{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (s *LinkSigner) Sign(userID, verificationToken string) (string, error) {
	now := time.Now()
	claims := LinkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        verificationToken,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "go-folio",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *LinkSigner) Parse(tokenString string) (*LinkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LinkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*LinkClaims)
	if !ok || !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
