package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, ok := c.Get(RunsKey("acme"))
	assert.False(t, ok)

	c.Set(RunsKey("acme"), []string{"run_1"})
	v, ok := c.Get(RunsKey("acme"))
	assert.True(t, ok)
	assert.Equal(t, []string{"run_1"}, v)

	assert.Equal(t, Stats{ItemCount: 1, Hits: 1, Misses: 1}, c.GetStats())
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.SetWithTTL("k", 1, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidateTenant(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set(RunsKey("acme"), 1)
	c.Set(RunKey("acme", "run_1"), 2)
	c.Set(RunsKey("acme-eu"), 3)
	c.Set(RunsKey("beta"), 4)

	assert.Equal(t, 2, c.InvalidateTenant("acme"))
	assert.Equal(t, 2, c.ItemCount())

	_, ok := c.Get(RunsKey("acme-eu"))
	assert.True(t, ok, "prefix of another tenant must survive")

	c.Delete(RunsKey("beta"))
	c.Clear()
	assert.Zero(t, c.ItemCount())
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.InvalidateTenant("acme"))
	assert.Equal(t, Stats{}, c.GetStats())
}
