package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/fundme/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"memory", storage.Config{Driver: storage.DriverMemory}},
		{"sqlite", storage.Config{Driver: storage.DriverSQLite, DBFile: filepath.Join(t.TempDir(), "s.db")}},
		{"redis addr", storage.Config{Driver: storage.DriverRedis, RedisAddr: mr.Addr(), RedisPrefix: "t:"}},
		{"redis url", storage.Config{Driver: "REDIS", RedisAddr: "redis://" + mr.Addr() + "/0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := storage.Open(ctx, tt.cfg)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set(ctx, "k", "v"))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v", got)
		})
	}

	require.True(t, mr.Exists("t:k"))
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range map[string]storage.Config{
		"unknown":        {Driver: "etcd"},
		"sqlite no file": {Driver: storage.DriverSQLite},
		"redis no addr":  {Driver: storage.DriverRedis},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := storage.Open(ctx, cfg)
			require.Error(t, err)
		})
	}
}
