// Package kvtest holds the behaviour every kv.Store backend must share.
package kvtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store from open for each subtest.
func Run(t *testing.T, open func(t *testing.T) kv.Store) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "nope")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set overwrite get", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.Set(ctx, "k", "v1"))
		require.NoError(t, s.Set(ctx, "k", "v2"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v2", v)
	})

	t.Run("set many", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.Set(ctx, "a", "old"))
		require.NoError(t, s.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))

		for k, want := range map[string]string{"a": "1", "b": "2"} {
			v, err := s.Get(ctx, k)
			require.NoError(t, err)
			require.Equal(t, want, v)
		}
	})

	t.Run("get many", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))

		got, err := s.GetMany(ctx, "a", "b", "missing")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"a": "1", "b": "2"}, got)

		got, err = s.GetMany(ctx)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("set many empty", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SetMany(context.Background(), nil))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.SetMany(ctx, map[string]string{"a": "1", "b": "2", "c": "3"}))
		require.NoError(t, s.Delete(ctx, "a", "b", "missing"))

		_, err := s.Get(ctx, "a")
		require.ErrorIs(t, err, kv.ErrNotFound)
		_, err = s.Get(ctx, "b")
		require.ErrorIs(t, err, kv.ErrNotFound)

		v, err := s.Get(ctx, "c")
		require.NoError(t, err)
		require.Equal(t, "3", v)

		require.NoError(t, s.Delete(ctx))
	})

	t.Run("pairs are never torn", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.SetMany(ctx, map[string]string{"x": "0", "y": "0"}))

		var (
			wg   sync.WaitGroup
			torn atomic.Int32
		)
		for i := 1; i <= 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				v := fmt.Sprint(i)
				_ = s.SetMany(ctx, map[string]string{"x": v, "y": v})
			}(i)
			go func() {
				defer wg.Done()
				got, err := s.GetMany(ctx, "x", "y")
				if err == nil && got["x"] != got["y"] {
					torn.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Zero(t, torn.Load(), "GetMany observed half a pair")

		x, err := s.Get(ctx, "x")
		require.NoError(t, err)
		y, err := s.Get(ctx, "y")
		require.NoError(t, err)
		require.Equal(t, x, y)
	})
}
