package core

import (
	"errors"
	"regexp"
)

var ErrInvalidUserID = errors.New("invalid user id")

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]{0,63}$`)

// ValidateUserID checks that id is safe to use as a storage key and a file
// name component.
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return &ValidationError{Field: "userID", Err: ErrInvalidUserID}
	}
	return nil
}
