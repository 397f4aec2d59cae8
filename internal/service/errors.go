package service

import "errors"

var (
	ErrForbidden          = errors.New("operation not allowed for the current team")
	ErrInvalidCredentials = errors.New("invalid team name or credential")
)
