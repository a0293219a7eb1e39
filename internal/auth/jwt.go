// Package auth resolves the owner identity of a request from an HS256
// bearer token carrying a userId claim.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tracker"

var (
	ErrMissingToken = errors.New("authorization header is missing")
	ErrInvalidToken = errors.New("token is expired or invalid")
)

// Claims is the token payload.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies access tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// New returns an Authenticator signing with secret.
func New(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// Issue creates a signed token for userID valid for ttl.
func (a *Authenticator) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id must not be empty")
	}
	now := a.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks the signature and expiry and returns the userId claim.
func (a *Authenticator) Verify(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return claims.UserID, nil
}

// OwnerFromRequest extracts and verifies the bearer token of r.
func (a *Authenticator) OwnerFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return a.Verify(strings.TrimSpace(raw))
}
