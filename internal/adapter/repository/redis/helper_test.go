package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestStore spins up a miniredis-backed IdempotencyStore. The raw
// client is returned too so tests can inspect keys directly.
func newTestStore(t *testing.T) (*IdempotencyStore, *redislib.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewIdempotencyStore(client), client
}
