package apperrors

import "errors"

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrGeneration       = errors.New("sql generation failed")
	ErrSecurityRejected = errors.New("sql rejected by safety validator")
	ErrExecution        = errors.New("query execution failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
)
