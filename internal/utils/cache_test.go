package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	cache := NewRedisCache(mock)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, cache.Set(ctx, "k", payload{Name: "hat", Count: 2}, time.Minute))
	assert.Equal(t, time.Minute, mock.ttl["k"])

	var got payload
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "hat", Count: 2}, got)

	require.NoError(t, cache.Delete(ctx, "k"))
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheSurfacesErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.getErr = errors.New("connection refused")
	cache := NewRedisCache(mock)

	var dest map[string]any
	found, err := cache.Get(context.Background(), "k", &dest)
	require.Error(t, err)
	assert.False(t, found)
}

func TestRedisCacheDeleteNoKeys(t *testing.T) {
	mock := newMockCmdable()
	require.NoError(t, NewRedisCache(mock).Delete(context.Background()))
	assert.Zero(t, mock.delCalls)
}

type mockCmdable struct {
	data     map[string]string
	ttl      map[string]time.Duration
	getErr   error
	delCalls int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.delCalls++
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
