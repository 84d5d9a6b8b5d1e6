package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(0)
	c.now = clock.Now
	return c, clock
}

func TestIncrAndExpiry(t *testing.T) {
	c, clock := newTestCache()

	assert.Equal(t, 1, c.Incr("ip", time.Minute))
	assert.Equal(t, 2, c.Incr("ip", time.Minute))

	clock.t = clock.t.Add(30 * time.Second)
	assert.Equal(t, 3, c.Incr("ip", time.Minute), "live key keeps counting")

	clock.t = clock.t.Add(31 * time.Second)
	_, ok := c.Get("ip")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Incr("ip", time.Minute), "expired key restarts")
}

func TestSetGetDelete(t *testing.T) {
	c, clock := newTestCache()
	c.Set("block:ip", 1, time.Hour)

	v, ok := c.Get("block:ip")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("block:ip")
	_, ok = c.Get("block:ip")
	assert.False(t, ok)

	c.Set("a", 1, time.Second)
	clock.t = clock.t.Add(2 * time.Second)
	c.sweep()
	assert.Zero(t, c.Size())
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Millisecond)
	c.Close()
	c.Close()
}
