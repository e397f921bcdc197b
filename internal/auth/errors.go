package auth

import "errors"

var (
	// ErrDecode reports a malformed token or one whose signature does not verify.
	ErrDecode = errors.New("token decode failed")
	// ErrExpired reports a well-formed token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrSubjectMismatch reports a token issued for a different subject.
	ErrSubjectMismatch = errors.New("token subject mismatch")
)
