package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageCacheRoundTrip(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("/")
	assert.False(t, ok)

	c.Set("/", []byte("<html>home</html>"))
	body, ok := c.Get("/")
	assert.True(t, ok)
	assert.Equal(t, []byte("<html>home</html>"), body)

	// Entries are keyed independently.
	_, ok = c.Get("/?page=2")
	assert.False(t, ok)
}

func TestPageCacheCopiesBody(t *testing.T) {
	c := New(time.Minute)

	buf := []byte("original")
	c.Set("/", buf)
	buf[0] = 'X'

	body, ok := c.Get("/")
	assert.True(t, ok)
	assert.Equal(t, []byte("original"), body)
}

func TestPageCacheExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)

	c.Set("/", []byte("stale"))
	_, ok := c.Get("/")
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("/")
	assert.False(t, ok)
}

func TestPageCacheClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("/", []byte("body"))
	c.Clear()

	_, ok := c.Get("/")
	assert.False(t, ok)
}
