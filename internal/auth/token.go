package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the identity assertion carried by an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and parses HS256 access tokens. The signing key is set
// once at construction and only read afterwards.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenCodec builds a codec around the process signing key.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	return &TokenCodec{
		secret: []byte(secret),
		// Expiry is checked by the Validator against an explicit clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for subject valid from now until now+ttl.
// Timestamps are carried with second precision.
func (tc *TokenCodec) Issue(subject string, now time.Time, ttl time.Duration) (string, error) {
	issuedAt := now.Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
}

// Parse verifies the signature and returns the claims. Any structural or
// signature problem is reported as ErrDecode.
func (tc *TokenCodec) Parse(tokenStr string) (*Claims, error) {
	registered := &jwt.RegisteredClaims{}
	parsed, err := tc.parser.ParseWithClaims(tokenStr, registered, func(*jwt.Token) (interface{}, error) {
		return tc.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !parsed.Valid {
		return nil, ErrDecode
	}
	if registered.Subject == "" || registered.ExpiresAt == nil || registered.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing sub, iat or exp", ErrDecode)
	}
	return &Claims{
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
