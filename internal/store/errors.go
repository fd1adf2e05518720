// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import "errors"

var (
	// ErrUnavailable wraps failures of the underlying storage slot
	// (backend unreachable, quota exceeded, permission denied).
	ErrUnavailable = errors.New("storage unavailable")

	// ErrCorrupt is returned when a slot holds a value that does not
	// decode into the expected shape.
	ErrCorrupt = errors.New("stored data is corrupt")
)
