// Package token issues and parses the signed, stateless bearer tokens used
// for sessions and email verification. Validity is determined entirely by
// signature and expiry; there is no server-side lookup and no revocation
// list — logout is client-side token discard.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates the two token kinds. They are not interchangeable: a
// verification token is rejected by session-protected routes and vice versa.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeVerify  Purpose = "verify"
)

// Parse failures, distinct so callers can report precisely.
var (
	ErrMalformed    = errors.New("token is malformed")
	ErrBadSignature = errors.New("token signature is invalid")
	ErrExpired      = errors.New("token has expired")
	ErrInvalid      = errors.New("token is invalid")
)

// Claims is the verified content of a token.
type Claims struct {
	SubjectID string
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer mints and verifies bearer tokens.
type Issuer interface {
	Issue(subjectID string, purpose Purpose, ttl time.Duration) (string, error)
	Parse(raw string) (*Claims, error)
}

// jwtClaims embeds the registered claim set plus the purpose claim.
type jwtClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"pur"`
}

// HS256Issuer signs tokens with a process-wide HMAC key. The key is
// configuration; it is never embedded in the token.
type HS256Issuer struct {
	secret []byte
}

var _ Issuer = (*HS256Issuer)(nil)

func NewHS256(secret string) *HS256Issuer {
	return &HS256Issuer{secret: []byte(secret)}
}

// Issue produces a signed token embedding subject, purpose, and absolute
// expiry.
func (i *HS256Issuer) Issue(subjectID string, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: string(purpose),
	})
	return tok.SignedString(i.secret)
}

// Parse verifies the signature, then the expiry, and returns the claims.
// Any ambiguity fails closed: an error is returned unless the token is
// well-formed, untampered, and unexpired with a subject and purpose.
func (i *HS256Issuer) Parse(raw string) (*Claims, error) {
	claims := &jwtClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrInvalid
		}
	}
	if !tok.Valid || claims.Subject == "" || claims.Purpose == "" {
		return nil, ErrInvalid
	}

	out := &Claims{
		SubjectID: claims.Subject,
		Purpose:   Purpose(claims.Purpose),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
