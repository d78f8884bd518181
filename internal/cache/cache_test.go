package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value int `json:"value"`
}

func TestMemoryOnlyCacheSetGetRoundTrip(t *testing.T) {
	c := New("", "", 0)

	require.NoError(t, c.Set(context.Background(), "k", payload{Value: 42}, time.Minute))

	var out payload
	require.True(t, c.Get(context.Background(), "k", &out), "Get() ok for a just-set key")
	assert.Equal(t, 42, out.Value)
}

func TestMemoryOnlyCacheGetMissingKey(t *testing.T) {
	c := New("", "", 0)
	var out payload
	assert.False(t, c.Get(context.Background(), "missing", &out))
}

func TestMemoryOnlyCacheExpiresAfterTTL(t *testing.T) {
	c := New("", "", 0)
	require.NoError(t, c.Set(context.Background(), "k", payload{Value: 1}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out payload
	assert.False(t, c.Get(context.Background(), "k", &out), "expired key should not be found")
}
