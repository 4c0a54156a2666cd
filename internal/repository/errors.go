package repository

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyRegistered  = errors.New("user already registered for activity")
	ErrActivityFull       = errors.New("activity has reached capacity")
	ErrRegistrationClosed = errors.New("activity does not accept registration")
)
