package backend

import "errors"

// Authoritative rejections and transport failures are distinct classes:
// callers drop the local session only on the former, never on ErrUnavailable.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrValidation         = errors.New("invalid input")
	ErrEmailExists        = errors.New("email already registered")
	ErrStudentIDExists    = errors.New("student id already registered")
	ErrConflict           = errors.New("conflicting registration")
	ErrSessionRejected    = errors.New("session rejected by backend")
	ErrUnavailable        = errors.New("backend unavailable")
	ErrUpstream           = errors.New("unexpected backend response")
)
