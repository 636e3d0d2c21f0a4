package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Scope string

const (
	ScopeAdmin    Scope = "admin"
	ScopeCity     Scope = "city"
	ScopeCampaign Scope = "campaign"
)

var ErrWrongScope = errors.New("token scope does not match")

type CustomClaims struct {
	jwt.RegisteredClaims
	SubjectID uuid.UUID `json:"sid"`
	Scope     Scope     `json:"scope"`
	UserAgent string    `json:"ua,omitempty"`
}

// GenerateToken signs a HS256 token for id. userAgent is empty for cookie
// sessions, which are not bound to a browser.
func GenerateToken(signingKey []byte, scope Scope, id uuid.UUID, userAgent string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SubjectID: id,
		Scope:     scope,
		UserAgent: userAgent,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, nil
}

func ParseToken(signingKey []byte, tokenString string, scope Scope) (*CustomClaims, error) {
	claims := &CustomClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt.ParseWithClaims -> %w", err)
	}

	if claims.Scope != scope {
		return nil, ErrWrongScope
	}

	return claims, nil
}
