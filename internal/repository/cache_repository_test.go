package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type cachedCounts struct {
	Students int `json:"students"`
	Mentors  int `json:"mentors"`
}

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, "eduboost", nil), server
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, server := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dashboard:admin", cachedCounts{Students: 4, Mentors: 2}, time.Minute))
	assert.True(t, server.Exists("eduboost:dashboard:admin"))

	var got cachedCounts
	require.NoError(t, repo.Get(ctx, "dashboard:admin", &got))
	assert.Equal(t, cachedCounts{Students: 4, Mentors: 2}, got)
}

func TestCacheRepositoryMissAndExpiry(t *testing.T) {
	repo, server := newCacheRepo(t)
	ctx := context.Background()

	var got cachedCounts
	assert.ErrorIs(t, repo.Get(ctx, "absent", &got), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "short", cachedCounts{Students: 1}, time.Second))
	server.FastForward(2 * time.Second)
	assert.ErrorIs(t, repo.Get(ctx, "short", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryCorruptEntryIsDropped(t *testing.T) {
	repo, server := newCacheRepo(t)
	require.NoError(t, server.Set("eduboost:broken", "{not json"))

	var got cachedCounts
	assert.ErrorIs(t, repo.Get(context.Background(), "broken", &got), appErrors.ErrCacheMiss)
	assert.False(t, server.Exists("eduboost:broken"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, server := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dashboard:admin", cachedCounts{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "dashboard:other", cachedCounts{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "mentors:active", cachedCounts{}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "dashboard:*"))
	assert.False(t, server.Exists("eduboost:dashboard:admin"))
	assert.False(t, server.Exists("eduboost:dashboard:other"))
	assert.True(t, server.Exists("eduboost:mentors:active"))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	var got cachedCounts
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", got, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}
