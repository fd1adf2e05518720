// Package store provides the persistence layer of the console. Each store
// struct wraps a slot.Store and owns a fixed set of slots: the category
// collection and the operator credentials.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"catadmin/internal/models"
	"catadmin/internal/slot"
)

// Slot names owned by AccountStore.
const (
	EmailSlot    = "email"
	PasswordSlot = "password"
	TOTPSlot     = "totp"
)

// totpState is the JSON layout of the totp slot.
type totpState struct {
	Secret  string `json:"secret,omitempty"`
	Enabled bool   `json:"enabled"`
}

// AccountStore handles the single operator account. Signing up again
// replaces the previous account.
type AccountStore struct {
	slots slot.Store
}

// NewAccountStore creates a new AccountStore on the given slots.
func NewAccountStore(slots slot.Store) *AccountStore {
	return &AccountStore{slots: slots}
}

// NormalizeEmail trims surrounding whitespace and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp stores a new account with a bcrypt-hashed password. Any second
// factor enrolled by a previous account is discarded.
func (s *AccountStore) SignUp(ctx context.Context, email, password string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email = NormalizeEmail(email)
	if err := s.slots.Set(ctx, EmailSlot, []byte(email)); err != nil {
		return nil, fmt.Errorf("sign up: %w: %w", ErrUnavailable, err)
	}
	if err := s.slots.Set(ctx, PasswordSlot, hash); err != nil {
		return nil, fmt.Errorf("sign up: %w: %w", ErrUnavailable, err)
	}
	if err := s.ResetTOTP(ctx); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return &models.Account{Email: email, PasswordHash: string(hash)}, nil
}

// Account returns the registered account. Returns nil if nobody signed up.
func (s *AccountStore) Account(ctx context.Context) (*models.Account, error) {
	email, ok, err := s.slots.Get(ctx, EmailSlot)
	if err != nil {
		return nil, fmt.Errorf("read account: %w: %w", ErrUnavailable, err)
	}
	if !ok {
		return nil, nil
	}
	hash, ok, err := s.slots.Get(ctx, PasswordSlot)
	if err != nil {
		return nil, fmt.Errorf("read account: %w: %w", ErrUnavailable, err)
	}
	if !ok {
		return nil, nil
	}

	a := &models.Account{Email: string(email), PasswordHash: string(hash)}

	state, err := s.totp(ctx)
	if err != nil {
		return nil, err
	}
	if state.Secret != "" {
		secret := state.Secret
		a.TOTPSecret = &secret
	}
	a.TOTPEnabled = state.Enabled
	return a, nil
}

// Authenticate reports whether email and password match the stored
// account. Returns the account on success.
func (s *AccountStore) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	a, err := s.Account(ctx)
	if err != nil || a == nil {
		return nil, err
	}
	if a.Email != NormalizeEmail(email) || !CheckPassword(a, password) {
		return nil, nil
	}
	return a, nil
}

// CheckPassword verifies a plaintext password against the account's stored hash.
func CheckPassword(a *models.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// SetTOTPSecret saves the TOTP secret (during 2FA setup). Enrollment is
// not active until EnableTOTP is called.
func (s *AccountStore) SetTOTPSecret(ctx context.Context, secret string) error {
	if err := s.writeTOTP(ctx, totpState{Secret: secret}); err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active (after successful code verification).
func (s *AccountStore) EnableTOTP(ctx context.Context) error {
	state, err := s.totp(ctx)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	if state.Secret == "" {
		return fmt.Errorf("enable totp: no secret enrolled")
	}
	state.Enabled = true
	if err := s.writeTOTP(ctx, state); err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA. The operator will be
// forced to set up 2FA again on their next login. SignUp calls it so a new
// registration never inherits the previous operator's enrollment.
func (s *AccountStore) ResetTOTP(ctx context.Context) error {
	if err := s.slots.Remove(ctx, TOTPSlot); err != nil {
		return fmt.Errorf("reset totp: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *AccountStore) totp(ctx context.Context) (totpState, error) {
	var state totpState
	data, ok, err := s.slots.Get(ctx, TOTPSlot)
	if err != nil {
		return state, fmt.Errorf("read totp: %w: %w", ErrUnavailable, err)
	}
	if !ok {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("%w: decode totp: %v", ErrCorrupt, err)
	}
	return state, nil
}

func (s *AccountStore) writeTOTP(ctx context.Context, state totpState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.slots.Set(ctx, TOTPSlot, data); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
