// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slot provides named storage slots: a flat key/value namespace
// where every value is an opaque blob written and read as a whole. It is
// the server-side equivalent of browser local storage and backs the
// category collection, the operator account and sessions.
//
// Backends: in-process memory, a directory of files, SQLite, PostgreSQL
// and Valkey. None of them offers more than single-key atomicity; callers
// that read-modify-write a slot get last-write-wins semantics across
// processes.
package slot

import "context"

// Store is a keyed blob store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value held in key. ok is false when the slot is empty.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value held in key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an empty slot is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases resources owned by the store.
	Close() error
}
