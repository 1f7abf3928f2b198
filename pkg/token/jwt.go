// Package token issues and verifies HS256 bearer tokens whose subject is a
// user id.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Verifier decodes a token into its claims.
type Verifier interface {
	Verify(tokenString string) (*Claims, error)
}

// Issuer signs tokens for a subject.
type Issuer interface {
	Issue(subject string) (string, time.Time, error)
}

// Manager both issues and verifies.
type Manager interface {
	Issuer
	Verifier
}

type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWT) Issue(subject string) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (j *JWT) Verify(tokenString string) (*Claims, error) {
	registered := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, registered, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if registered.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		Subject:   registered.Subject,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
