package metadata

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache[int64, string](DefaultCacheConfig())
	defer c.Close()

	c.Set(1, "one")
	if v, ok := c.Get(1); !ok || v != "one" {
		t.Errorf("Get(1) = %q, %v; want one, true", v, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should miss")
	}

	c.Delete(1)
	if _, ok := c.Get(1); ok {
		t.Error("Get(1) after Delete should miss")
	}
}

func TestCache_Expiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := NewCache[string, int](CacheConfig{TTL: time.Minute, Clock: fc})
	defer c.Close()

	c.Set("a", 1)
	fc.Advance(30 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("item should still be cached after 30s")
	}

	fc.Advance(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("item should be expired after 61s")
	}
}

func TestCache_EvictsWhenFull(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := NewCache[int, int](CacheConfig{TTL: time.Hour, MaxItems: 3, Clock: fc})
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Set(i, i)
		fc.Advance(time.Second)
	}
	c.Set(3, 3)

	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.Get(0); ok {
		t.Error("oldest item should have been evicted")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("new item should be present")
	}
}

func TestCache_Clear(t *testing.T) {
	c := NewCache[int, int](DefaultCacheConfig())
	defer c.Close()

	c.Set(1, 1)
	c.Set(2, 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}
