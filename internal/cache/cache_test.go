package cache

import (
	"testing"
	"time"

	"github.com/geocoder89/yardsale/internal/clock"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC))
	c := New(30*time.Second, 10, clk)

	c.Set("k", 42)

	if v, ok := c.Get("k"); !ok || v.(int) != 42 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	clk.Advance(30 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", c.Len())
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New(time.Minute, 10, nil)

	c.Set("nearby:v1:a", 1)
	c.Set("nearby:v1:b", 2)
	c.Set("other", 3)

	c.DeletePrefix("nearby:")

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
	if _, ok := c.Get("other"); !ok {
		t.Fatalf("unrelated key should survive")
	}
}

func TestCache_BoundedSize(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC))
	c := New(time.Minute, 2, clk)

	c.Set("a", 1)
	clk.Advance(2 * time.Minute)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Len() != 2 {
		t.Fatalf("expected expired entry to make room, len=%d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry should be gone")
	}

	c.Set("d", 4)
	if c.Len() > 2 {
		t.Fatalf("cache grew past its bound: %d", c.Len())
	}
}
