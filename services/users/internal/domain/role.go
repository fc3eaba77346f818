package domain

import (
	"fmt"
	"unicode"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

// MinPasswordLength is the minimum password length.
const MinPasswordLength = 8

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{auth.RoleUser, auth.RoleAdministrator}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// ValidatePassword checks that the password meets minimum complexity requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.Validation(map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.Validation(map[string]string{
			"password": "must contain an uppercase letter, a lowercase letter and a digit",
		})
	}
	return nil
}
