package auth

import "time"

// Reason explains why a token was not accepted.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonExpired
	ReasonSubjectMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "valid"
	case ReasonMalformed:
		return "malformed"
	case ReasonExpired:
		return "expired"
	case ReasonSubjectMismatch:
		return "subject_mismatch"
	default:
		return "unknown"
	}
}

// Outcome is the result of checking a token. Invalid tokens are an ordinary
// outcome, not an error.
type Outcome struct {
	Reason Reason
	Claims *Claims
}

// Valid reports whether the token authorizes the expected subject.
func (o Outcome) Valid() bool {
	return o.Reason == ReasonNone
}

// Err maps the outcome onto the token error taxonomy; nil when valid.
func (o Outcome) Err() error {
	switch o.Reason {
	case ReasonNone:
		return nil
	case ReasonExpired:
		return ErrExpired
	case ReasonSubjectMismatch:
		return ErrSubjectMismatch
	default:
		return ErrDecode
	}
}

// Validator decides whether a token authorizes a claimed subject at a point in time.
type Validator struct {
	codec *TokenCodec
}

// NewValidator wraps a codec.
func NewValidator(codec *TokenCodec) *Validator {
	return &Validator{codec: codec}
}

// Check parses the token and compares subject and expiry. A token is expired
// from its exp instant onwards.
func (v *Validator) Check(tokenStr, expectedSubject string, now time.Time) Outcome {
	claims, err := v.codec.Parse(tokenStr)
	if err != nil {
		return Outcome{Reason: ReasonMalformed}
	}
	if claims.Subject != expectedSubject {
		return Outcome{Reason: ReasonSubjectMismatch, Claims: claims}
	}
	if !now.Before(claims.ExpiresAt) {
		return Outcome{Reason: ReasonExpired, Claims: claims}
	}
	return Outcome{Reason: ReasonNone, Claims: claims}
}

// Validate is Check reduced to a yes/no answer.
func (v *Validator) Validate(tokenStr, expectedSubject string, now time.Time) bool {
	return v.Check(tokenStr, expectedSubject, now).Valid()
}
