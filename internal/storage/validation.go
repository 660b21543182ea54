// Package storage provides the local persistence layer for rinde.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
	ErrInvalidKey  = errors.New("invalid key")
)

const maxKeyLength = 255

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateKey rejects empty, padded and oversized keys.
func validateKey(key string) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidKey, key)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	}
	return nil
}
