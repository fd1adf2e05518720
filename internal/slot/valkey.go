// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slot

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultValkeyPrefix namespaces slot keys in Valkey.
const DefaultValkeyPrefix = "slot:"

// Valkey keeps each slot as a plain string key without expiry. The client
// is owned by the caller.
type Valkey struct {
	client *redis.Client
	prefix string
}

// NewValkey returns a slot store on the given client. An empty prefix
// falls back to DefaultValkeyPrefix.
func NewValkey(client *redis.Client, prefix string) *Valkey {
	if prefix == "" {
		prefix = DefaultValkeyPrefix
	}
	return &Valkey{client: client, prefix: prefix}
}

// Get implements Store.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := v.client.Get(ctx, v.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("valkey slot get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements Store.
func (v *Valkey) Set(ctx context.Context, key string, value []byte) error {
	if err := v.client.Set(ctx, v.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("valkey slot set %q: %w", key, err)
	}
	return nil
}

// Remove implements Store.
func (v *Valkey) Remove(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, v.prefix+key).Err(); err != nil {
		return fmt.Errorf("valkey slot remove %q: %w", key, err)
	}
	return nil
}

// Close implements Store. The client belongs to the caller.
func (v *Valkey) Close() error { return nil }
