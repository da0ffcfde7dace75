package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedGroup struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	prev := GetClient()
	SetClient(c)
	t.Cleanup(func() {
		_ = c.Close()
		SetClient(prev)
	})
	return mr
}

func TestRemember_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (cachedGroup, error) {
		calls++
		return cachedGroup{ID: 7, Name: "hikers"}, nil
	}

	first, err := Remember(ctx, GroupKey(7), GroupTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "hikers", first.Name)
	assert.True(t, mr.Exists("group:7"))
	assert.Equal(t, GroupTTL, mr.TTL("group:7"))

	second, err := Remember(ctx, GroupKey(7), GroupTTL, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second lookup is served from redis")
}

func TestRemember_PointerValues(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()
	load := func(context.Context) (*cachedGroup, error) { return &cachedGroup{ID: 8, Name: "rivers"}, nil }

	_, err := Remember(ctx, PostKey(8), PostTTL, load)
	require.NoError(t, err)
	got, err := Remember(ctx, PostKey(8), PostTTL, func(context.Context) (*cachedGroup, error) {
		t.Fatal("cached pointer should be decoded, not reloaded")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "rivers", got.Name)
}

func TestRemember_LoadErrorIsNotCached(t *testing.T) {
	mr := useMiniredis(t)
	boom := errors.New("db down")

	_, err := Remember(context.Background(), GroupKey(1), GroupTTL, func(context.Context) (cachedGroup, error) {
		return cachedGroup{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("group:1"))
}

func TestRemember_WithoutRedis(t *testing.T) {
	prev := GetClient()
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	got, err := Remember(context.Background(), GroupKey(2), GroupTTL, func(context.Context) (cachedGroup, error) {
		return cachedGroup{ID: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.ID)
}

func TestRemember_RedisDownFallsBackToLoad(t *testing.T) {
	mr := useMiniredis(t)
	mr.Close()

	got, err := Remember(context.Background(), GroupKey(3), GroupTTL, func(context.Context) (cachedGroup, error) {
		return cachedGroup{ID: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.ID)
}

func TestRemember_CorruptEntryReloads(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set("group:4", "{not json"))

	got, err := Remember(context.Background(), GroupKey(4), GroupTTL, func(context.Context) (cachedGroup, error) {
		return cachedGroup{ID: 4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), got.ID)
}

func TestInvalidateGroup(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, GroupKey(5), cachedGroup{ID: 5}, time.Minute))
	require.NoError(t, SetJSON(ctx, GroupBadgesKey(5), []string{"a"}, time.Minute))

	InvalidateGroup(ctx, 5)
	assert.False(t, mr.Exists("group:5"))
	assert.False(t, mr.Exists("group:5:badges"))
}

func TestNewClient_URL(t *testing.T) {
	c, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}

func TestKeyFamily(t *testing.T) {
	assert.Equal(t, "group", keyFamily("group:1"))
	assert.Equal(t, "group:badges", keyFamily("group:1:badges"))
}
