package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string](Config{DefaultTTL: time.Minute})

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = (%q, %v), want (alpha, true)", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unknown key should miss")
	}

	counters := c.Counters()
	if counters.Hits != 1 || counters.Misses != 1 || counters.Items != 1 {
		t.Errorf("counters = %+v, want 1 hit, 1 miss, 1 item", counters)
	}
	if ratio := counters.HitRatio(); ratio != 0.5 {
		t.Errorf("hit ratio = %v, want 0.5", ratio)
	}
}

func TestCache_ExpiredEntryRemovedOnGet(t *testing.T) {
	c := New[int](Config{})

	c.Set("n", 7, SetOptions{TTL: 10 * time.Millisecond})
	if _, ok := c.Get("n"); !ok {
		t.Fatal("entry should be live before its TTL")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Fatal("expired entry should miss")
	}
	counters := c.Counters()
	if counters.Expirations != 1 {
		t.Errorf("expirations = %d, want 1", counters.Expirations)
	}
	if counters.Items != 0 {
		t.Errorf("expired entry should be removed, items = %d", counters.Items)
	}
}

func TestCache_EvictsColdestWhenFull(t *testing.T) {
	c := New[int](Config{MaxItems: 3})

	c.Set("cold", 1)
	c.Set("warm", 2)
	c.Set("hot", 3)

	// Touch everything except the victim.
	c.Get("warm")
	c.Get("hot")
	c.Get("hot")

	c.Set("new", 4)

	if c.Has("cold") {
		t.Fatal("least-accessed entry should have been evicted")
	}
	for _, key := range []string{"warm", "hot", "new"} {
		if !c.Has(key) {
			t.Errorf("entry %q should survive the eviction", key)
		}
	}
	if ev := c.Counters().Evictions; ev != 1 {
		t.Errorf("evictions = %d, want exactly 1", ev)
	}
}

func TestCache_EvictionTieBreaksOnLastAccess(t *testing.T) {
	c := New[int](Config{MaxItems: 2})

	c.Set("older", 1)
	time.Sleep(5 * time.Millisecond)
	c.Set("newer", 2)

	// Equal access counts: the staler entry goes first.
	c.Set("third", 3)

	if c.Has("older") {
		t.Fatal("staler entry should be the eviction victim")
	}
	if !c.Has("newer") || !c.Has("third") {
		t.Fatal("fresher entries should survive")
	}
}

func TestCache_DeleteByTag(t *testing.T) {
	c := New[int](Config{})

	c.Set("sat:100", 1, SetOptions{Tags: []string{"sat"}})
	c.Set("sat:200", 2, SetOptions{Tags: []string{"sat"}})
	c.Set("block:1", 3, SetOptions{Tags: []string{"block"}})

	if removed := c.DeleteByTag("sat"); removed != 2 {
		t.Fatalf("DeleteByTag removed %d, want 2", removed)
	}
	if c.Has("sat:100") || c.Has("sat:200") {
		t.Fatal("tagged entries should be gone")
	}
	if !c.Has("block:1") {
		t.Fatal("entries with other tags should remain")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := New[int](Config{})

	c.Set("short", 1, SetOptions{TTL: 5 * time.Millisecond})
	c.Set("long", 2, SetOptions{TTL: time.Hour})
	c.Set("forever", 3)

	time.Sleep(15 * time.Millisecond)

	if removed := c.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup removed %d, want 1", removed)
	}
	if !c.Has("long") || !c.Has("forever") {
		t.Fatal("unexpired entries should survive cleanup")
	}
}
