package repository_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"agromind-server/config"
	"agromind-server/internal/metrics"
	"agromind-server/internal/model"
	"agromind-server/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore counts lookups so cache hits are observable.
type stubStore struct {
	entries map[string]model.RevokedToken
	lookups int
	err     error
}

func (s *stubStore) Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error {
	_, err := s.RevokeOnce(ctx, jti, kind, expiresAt)
	return err
}

func (s *stubStore) RevokeOnce(_ context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.entries[jti]; ok {
		return false, nil
	}
	s.entries[jti] = model.RevokedToken{JTI: jti, TokenType: kind, Revoked: true, ExpiresAt: expiresAt}
	return true, nil
}

func (s *stubStore) Lookup(_ context.Context, jti string) (*model.RevokedToken, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	entry, ok := s.entries[jti]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *stubStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, s.err
}

func newCache(t *testing.T) (*repository.RevocationCache, *stubStore, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := &stubStore{entries: make(map[string]model.RevokedToken)}
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return repository.NewRevocationCache(store, &config.RedisClient{Client: client}, m, log), store, srv, m
}

func TestRevocationCache_RevokeWritesThrough(t *testing.T) {
	cache, store, srv, m := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Revoke(ctx, "abc", model.KindRefresh, time.Now().Add(time.Hour)))
	assert.Contains(t, store.entries, "abc")
	assert.True(t, srv.Exists("revoked:abc"))

	ttl := srv.TTL("revoked:abc")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, ttl)

	revoked, err := cache.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, store.lookups)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RevocationCache.WithLabelValues("hit")))
}

func TestRevocationCache_RevokeOnceReportsStoreDecision(t *testing.T) {
	cache, _, srv, _ := newCache(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	inserted, err := cache.RevokeOnce(ctx, "abc", model.KindRefresh, exp)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.True(t, srv.Exists("revoked:abc"))

	inserted, err = cache.RevokeOnce(ctx, "abc", model.KindRefresh, exp)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestRevocationCache_MissFallsThroughAndCachesPositive(t *testing.T) {
	cache, store, srv, _ := newCache(t)
	ctx := context.Background()

	store.entries["abc"] = model.RevokedToken{JTI: "abc", Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}

	revoked, err := cache.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 1, store.lookups)
	assert.True(t, srv.Exists("revoked:abc"))

	revoked, err = cache.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 1, store.lookups)
}

func TestRevocationCache_NegativeNotCached(t *testing.T) {
	cache, store, srv, _ := newCache(t)
	ctx := context.Background()

	revoked, err := cache.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.False(t, srv.Exists("revoked:fresh"))

	// a later revocation through the store alone is still seen
	store.entries["fresh"] = model.RevokedToken{JTI: "fresh", Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}
	revoked, err = cache.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 2, store.lookups)
}

func TestRevocationCache_RedisDownFallsBack(t *testing.T) {
	cache, store, srv, m := newCache(t)
	ctx := context.Background()

	store.entries["abc"] = model.RevokedToken{JTI: "abc", Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}
	srv.Close()

	revoked, err := cache.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = cache.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.Revoke(ctx, "new", model.KindAccess, time.Now().Add(time.Hour)))
	assert.Contains(t, store.entries, "new")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RevocationCache.WithLabelValues("error")))
}

func TestRevocationCache_EmptyJTI(t *testing.T) {
	cache, store, _, _ := newCache(t)

	revoked, err := cache.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, store.lookups)
}

func TestRevocationCache_ExpiredNotCached(t *testing.T) {
	cache, _, srv, _ := newCache(t)

	require.NoError(t, cache.Revoke(context.Background(), "old", model.KindAccess, time.Now().Add(-time.Minute)))
	assert.False(t, srv.Exists("revoked:old"))
}
