package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/kv/kvtest"
	kvredis "github.com/aussiebroadwan/fundme/pkg/kv/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStore(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		_, rdb := newClient(t)
		return kvredis.New(rdb, "")
	})
}

func TestStorePrefixesKeys(t *testing.T) {
	mr, rdb := newClient(t)
	s := kvredis.New(rdb, "test:")

	require.NoError(t, s.Set(context.Background(), "accessToken", "a"))

	v, err := mr.Get("test:accessToken")
	require.NoError(t, err)
	require.Equal(t, "a", v)
	require.False(t, mr.Exists("accessToken"))
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := kvredis.Open(context.Background(), "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	require.NoError(t, s.Close())

	require.True(t, mr.Exists(kvredis.DefaultPrefix+"k"))

	_, err = kvredis.Open(context.Background(), "not a url", "")
	require.Error(t, err)
}
