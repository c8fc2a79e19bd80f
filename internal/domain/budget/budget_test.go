package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "2025_02%_795000", Key(2025, []string{"795000", "02%"}))
	assert.Equal(t, "2025", Key(2025, nil))
	// Order of the selection must not matter.
	assert.Equal(t, Key(2025, []string{"a", "b"}), Key(2025, []string{"b", "a"}))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key(2025, []string{"02%"})

	t.Run("missing key reads empty", func(t *testing.T) {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, key, "LIN", 50000))
		require.NoError(t, s.Set(ctx, key, "JPH", 25000))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"LIN": 50000, "JPH": 25000}, got)
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		got["LIN"] = 1

		again, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.InDelta(t, 50000.0, again["LIN"], 1e-9)
	})

	t.Run("template overwrites everything under the key", func(t *testing.T) {
		require.NoError(t, ApplyTemplate(ctx, s, key, []string{"LIN", "JPH", "UTR"}, 30000))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.InDelta(t, 30000.0, got["UTR"], 1e-9)
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, Key(2024, []string{"02%"}), "LIN", 1))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024_02%", "2025_02%"}, keys)
	})

	t.Run("clear removes the key", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, key))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
