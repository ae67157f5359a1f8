// Package kv defines the small key/value contract the session store is
// persisted through, plus an in-memory implementation. Durable backends live
// in the sqlite and redis subpackages.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: not found")

// Store is a string key/value store.
//
// SetMany and Delete must apply all of their keys or none, and GetMany must
// read its keys at one point in time, so a reader never observes half of a
// pair. GetMany leaves missing keys out of the result.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
