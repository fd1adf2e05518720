// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by Open when the requested category does
	// not exist.
	ErrNotFound = errors.New("category not found")

	// ErrSlugConflict is returned by Submit when another category already
	// uses the slug.
	ErrSlugConflict = errors.New("slug already exists")

	// ErrImageTooLarge is returned by AttachImage for files over MaxImageSize.
	ErrImageTooLarge = errors.New("image too large")

	// ErrImageType is returned by AttachImage for anything but JPEG, PNG or GIF.
	ErrImageType = errors.New("unsupported image type")
)

// User-facing messages for the sentinel errors.
const (
	MsgSlugConflict  = "This slug already exists. Please use a different one."
	MsgImageTooLarge = "File size should be less than 2MB"
	MsgImageType     = "Only JPG, PNG, and GIF images are allowed"
)

// Message returns the text to show the user for an error returned by the
// editor. Unknown errors get a generic message.
func Message(err error) string {
	var ve *ValidationError
	var se *SaveError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "Please fix the errors below."
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, ErrSlugConflict):
		return MsgSlugConflict
	case errors.Is(err, ErrImageTooLarge):
		return MsgImageTooLarge
	case errors.Is(err, ErrImageType):
		return MsgImageType
	case errors.Is(err, ErrNotFound):
		return "Category not found."
	}
	return "Something went wrong. Please try again."
}

// FieldErrors maps a form field name to the message shown next to it.
// Each field carries at most one message.
type FieldErrors map[string]string

// Fields returns the names of the failing fields in sorted order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError is returned by Submit when one or more fields fail
// validation. Nothing is written to the store.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "invalid category: " + strings.Join(e.Fields.Fields(), ", ")
}

// SaveError is returned by Submit when the store fails. Message is the
// generic text shown to the user; Err is the underlying cause for logs.
type SaveError struct {
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *SaveError) Unwrap() error { return e.Err }
