package core

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors. Operations wrap these with context, so callers test with
// errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrCurrentProfile = errors.New("cannot delete current profile")
	ErrInvalidName    = errors.New("invalid profile name")
	ErrInvalidSource  = errors.New("invalid source reference")
	ErrValidation     = errors.New("template validation failed")
)

var profileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateProfileName rejects names that are not a single safe path segment.
func ValidateProfileName(name string) error {
	if !profileNamePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use letters, digits, '-' and '_'", ErrInvalidName, name)
	}
	return nil
}
