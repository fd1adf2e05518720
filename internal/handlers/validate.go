package handlers

import (
	"net/mail"
	"strconv"
	"strings"
)

// minPasswordLen is the shortest password accepted at sign-up and login.
const minPasswordLen = 6

// validateCredentials checks the login and sign-up fields and returns one
// message per failing field.
func validateCredentials(email, password string) map[string]string {
	errs := map[string]string{}

	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Please enter a valid email"
	}

	if password == "" {
		errs["password"] = "Password is required"
	} else if len(password) < minPasswordLen {
		errs["password"] = "Password must be at least 6 characters"
	}

	return errs
}

// parseDisplayOrder reads the display order field. Empty or non-numeric
// input counts as 0; negative numbers are kept so validation can reject
// them.
func parseDisplayOrder(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
