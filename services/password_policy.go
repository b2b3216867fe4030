package services

import (
	"fmt"
	"unicode"
)

// MinPasswordLength applies to every staff account
const MinPasswordLength = 12

// ValidatePassword requires a minimum length plus upper, lower, digit and symbol classes
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return invalid("password", "must contain an uppercase letter")
	case !hasLower:
		return invalid("password", "must contain a lowercase letter")
	case !hasNumber:
		return invalid("password", "must contain a number")
	case !hasSpecial:
		return invalid("password", "must contain a special character")
	}
	return nil
}
