package cache

import "testing"

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // a becomes most-recent
	c.Put("c", 3)     // should evict b

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a present, got %v ok=%v", v, ok)
	}
}

func TestLRUPutReplaces(t *testing.T) {
	c := NewLRU[string](2)
	c.Put("k", "one")
	c.Put("k", "two")
	if v, _ := c.Get("k"); v != "two" {
		t.Fatalf("got %q", v)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[int](4)
	c.Put("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a gone")
	}
	c.Delete("missing") // no-op
}

func TestLRUNilReceiver(t *testing.T) {
	var c *LRU[int]
	c.Put("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("nil cache should miss")
	}
	if c.Len() != 0 {
		t.Fatal("nil cache should be empty")
	}
}
