// Package models defines the data structures persisted in storage slots
// and the core types used throughout the application.
package models

// Account is the single console operator created by sign-up. Only the
// most recent sign-up is kept.
type Account struct {
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // Never serialize the hash
	TOTPSecret   *string `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool    `json:"totp_enabled"`
}

// Needs2FASetup returns true if the account has not completed 2FA enrollment.
// Every operator must set up 2FA on their first login.
func (a *Account) Needs2FASetup() bool {
	return !a.TOTPEnabled
}
