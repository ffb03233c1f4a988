package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailExists        = errors.New("email already registered")
	ErrSessionForbidden   = errors.New("session belongs to another user")
)
