// store_test.go provides shared helpers for the store tests. Every test
// runs against an in-memory slot store with a fixed clock and sequential
// identifiers, so results are deterministic.
package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"catadmin/internal/slot"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// newMemorySlots returns an empty in-memory slot store closed at cleanup.
func newMemorySlots(t *testing.T) slot.Store {
	t.Helper()
	slots := slot.NewMemory()
	t.Cleanup(func() { slots.Close() })
	return slots
}

// newTestCategoryStore returns a CategoryStore on a fresh memory slot.
func newTestCategoryStore(t *testing.T) (*CategoryStore, slot.Store) {
	t.Helper()
	slots := newMemorySlots(t)

	s := NewCategoryStore(slots)
	s.now = func() time.Time { return testNow }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("cat-%03d", n)
	}
	return s, slots
}

var errSlotDown = errors.New("slot backend down")

// failingSlots is a slot store whose every call fails.
type failingSlots struct{}

func (failingSlots) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errSlotDown
}
func (failingSlots) Set(context.Context, string, []byte) error { return errSlotDown }
func (failingSlots) Remove(context.Context, string) error      { return errSlotDown }
func (failingSlots) Close() error                              { return nil }

// readOnlySlots serves reads from the wrapped store and fails writes.
type readOnlySlots struct {
	slot.Store
}

func (readOnlySlots) Set(context.Context, string, []byte) error { return errSlotDown }
func (readOnlySlots) Remove(context.Context, string) error      { return errSlotDown }
