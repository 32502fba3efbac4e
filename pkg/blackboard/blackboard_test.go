package blackboard

import (
	"sync"
	"testing"
)

func TestPutGet(t *testing.T) {
	b := New()

	t.Run("get absent key", func(t *testing.T) {
		_, ok := b.Get("missing")
		if ok {
			t.Error("Get() on an absent key should report false")
		}
	})

	t.Run("put then get", func(t *testing.T) {
		b.Put("count", 42)

		value, ok := b.Get("count")
		if !ok {
			t.Fatal("Get() after Put() should find the value")
		}
		if value.(int) != 42 {
			t.Errorf("Get() = %v, want 42", value)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		b.Put("count", 43)

		value, _ := b.Get("count")
		if value.(int) != 43 {
			t.Errorf("Get() after overwrite = %v, want 43", value)
		}
	})
}

func TestGetAs(t *testing.T) {
	b := New()
	b.Put("names", []string{"alpha", "beta"})

	t.Run("matching type", func(t *testing.T) {
		names, ok := GetAs[[]string](b, "names")
		if !ok {
			t.Fatal("GetAs should succeed for the stored type")
		}
		if len(names) != 2 || names[0] != "alpha" {
			t.Errorf("GetAs = %v, want [alpha beta]", names)
		}
	})

	t.Run("wrong type reads as absent", func(t *testing.T) {
		_, ok := GetAs[int](b, "names")
		if ok {
			t.Error("GetAs with the wrong type should report false, not panic")
		}
	})

	t.Run("absent key", func(t *testing.T) {
		_, ok := GetAs[string](b, "missing")
		if ok {
			t.Error("GetAs on an absent key should report false")
		}
	})
}

func TestGetOrCreateLock(t *testing.T) {
	b := New()

	t.Run("stable per namespace", func(t *testing.T) {
		first := b.GetOrCreateLock("callbacks")
		second := b.GetOrCreateLock("callbacks")

		if first != second {
			t.Error("the same namespace should always yield the same mutex")
		}
	})

	t.Run("distinct namespaces get distinct locks", func(t *testing.T) {
		a := b.GetOrCreateLock("callbacks")
		c := b.GetOrCreateLock("option-types")

		if a == c {
			t.Error("unrelated namespaces must not share a lock")
		}
	})
}

func TestCompositeUpdateUnderLock(t *testing.T) {
	b := New()

	// Read-modify-write of a shared list from many goroutines, each holding
	// the key's lock for the whole sequence.
	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)

	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()

			lock := b.GetOrCreateLock(KeyStartupCallbacks)
			lock.Lock()
			defer lock.Unlock()

			list, _ := GetAs[[]int](b, KeyStartupCallbacks)
			b.Put(KeyStartupCallbacks, append(list, 1))
		}()
	}
	wg.Wait()

	list, ok := GetAs[[]int](b, KeyStartupCallbacks)
	if !ok {
		t.Fatal("list should exist after writers finish")
	}
	if len(list) != writers {
		t.Errorf("list has %d entries, want %d (lost updates)", len(list), writers)
	}
}

func TestKeys(t *testing.T) {
	b := New()
	b.Put("b", 1)
	b.Put("a", 2)
	b.Put("c", 3)

	keys := b.Keys()
	if len(keys) != 3 {
		t.Fatalf("Keys() returned %d keys, want 3", len(keys))
	}
	if keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Keys() = %v, want sorted order", keys)
	}

	if !b.Has("a") {
		t.Error("Has(a) = false, want true")
	}
	if b.Has("zzz") {
		t.Error("Has(zzz) = true, want false")
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}
