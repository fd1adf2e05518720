package slot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against any backend. Keys are
// namespaced with a per-test prefix so shared backends stay isolated.
func runStoreSuite(t *testing.T, s Store, prefix string) {
	t.Helper()
	ctx := context.Background()
	key := func(k string) string { return prefix + k }

	t.Run("empty slot", func(t *testing.T) {
		v, ok, err := s.Get(ctx, key("missing"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, key("categories"), []byte(`[{"id":"a"}]`)))
		v, ok, err := s.Get(ctx, key("categories"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `[{"id":"a"}]`, string(v))
	})

	t.Run("set overwrites whole value", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, key("over"), []byte("a much longer first value")))
		require.NoError(t, s.Set(ctx, key("over"), []byte("short")))
		v, ok, err := s.Get(ctx, key("over"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "short", string(v))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, key("gone"), []byte("x")))
		require.NoError(t, s.Remove(ctx, key("gone")))
		_, ok, err := s.Get(ctx, key("gone"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("remove missing is not an error", func(t *testing.T) {
		assert.NoError(t, s.Remove(ctx, key("never-set")))
	})

	t.Run("keys with separators", func(t *testing.T) {
		k := key("session:ab/cd")
		require.NoError(t, s.Set(ctx, k, []byte("v")))
		v, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v", string(v))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Set(ctx, key(fmt.Sprintf("c%d", i)), []byte{byte(i)}))
			}(i)
		}
		wg.Wait()
		for i := 0; i < 8; i++ {
			v, ok, err := s.Get(ctx, key(fmt.Sprintf("c%d", i)))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte{byte(i)}, v)
		}
	})
}
