package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/multierr"

	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const passwordSpecials = "@$!%*?&"

const (
	minPasswordLen = 8
	minAddressLen  = 5
	maxAddressLen  = 100
)

// validateRegistration aggregates every field problem into one validation
// error so the caller sees the full list at once.
func validateRegistration(input StartRegistrationInput) error {
	var problems error

	if strings.TrimSpace(input.Name) == "" {
		problems = multierr.Append(problems, fmt.Errorf("name is required"))
	}
	if !emailRe.MatchString(input.Email) {
		problems = multierr.Append(problems, fmt.Errorf("email address is not valid"))
	}
	problems = multierr.Append(problems, validatePassword(input.Password))

	if n := len(strings.TrimSpace(input.Address)); n < minAddressLen || n > maxAddressLen {
		problems = multierr.Append(problems,
			fmt.Errorf("address must be between %d and %d characters", minAddressLen, maxAddressLen))
	}

	if problems == nil {
		return nil
	}

	details := make([]string, 0)
	for _, err := range multierr.Errors(problems) {
		details = append(details, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "registration payload is invalid").
		WithDetails(details)
}

func validatePassword(password string) error {
	var problems error

	if len(password) < minPasswordLen {
		problems = multierr.Append(problems, fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		problems = multierr.Append(problems, fmt.Errorf("password needs an uppercase letter"))
	}
	if !hasLower {
		problems = multierr.Append(problems, fmt.Errorf("password needs a lowercase letter"))
	}
	if !hasDigit {
		problems = multierr.Append(problems, fmt.Errorf("password needs a digit"))
	}
	if !hasSpecial {
		problems = multierr.Append(problems, fmt.Errorf("password needs one of %s", passwordSpecials))
	}

	return problems
}
