package service

import (
	"errors"

	"github.com/vedran77/userdesk/pkg/validator"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}

// StoreError wraps a persistence failure. Its details are for logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
