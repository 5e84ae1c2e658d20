package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	c := newTTLCache[int](time.Hour)

	_, ok := c.Get()
	assert.False(t, ok)

	c.Set(7)
	v, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	c.Invalidate()
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestTTLCache_Expires(t *testing.T) {
	c := newTTLCache[string](time.Millisecond)
	c.Set("x")
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get()
	assert.False(t, ok)
}
