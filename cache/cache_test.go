package cache

import (
	"fmt"
	"testing"
)

func TestKeyStableAndDistinct(t *testing.T) {
	a := Key("script", "topic", "desc")
	b := Key("script", "topic", "desc")
	if a != b {
		t.Errorf("same inputs produced different keys: %q vs %q", a, b)
	}

	c := Key("script", "topicdesc")
	if a == c {
		t.Error("input boundary collapse: joined inputs collide with split inputs")
	}

	d := Key("visual", "topic", "desc")
	if a == d {
		t.Error("different kinds produced the same key")
	}
}

func TestMemoizeHitSkipsFn(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	calls := 0
	fn := func() (string, error) {
		calls++
		return "generated", nil
	}

	key := Key("test", "input")
	v1, err := Memoize(store, key, fn)
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	v2, err := Memoize(store, key, fn)
	if err != nil {
		t.Fatalf("Memoize (second call): %v", err)
	}

	if v1 != "generated" || v2 != "generated" {
		t.Errorf("values = %q, %q", v1, v2)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestMemoizeErrorNotCached(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	calls := 0
	fn := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, fmt.Errorf("transient")
		}
		return 42, nil
	}

	key := Key("test", "retry")
	if _, err := Memoize(store, key, fn); err == nil {
		t.Fatal("expected first call to fail")
	}
	v, err := Memoize(store, key, fn)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if v != 42 {
		t.Errorf("v = %d, want 42", v)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestMemoizeNilStorePassesThrough(t *testing.T) {
	calls := 0
	fn := func() (string, error) {
		calls++
		return "v", nil
	}
	for i := 0; i < 2; i++ {
		if _, err := Memoize[string](nil, "k", fn); err != nil {
			t.Fatalf("Memoize with nil store: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2 (no caching with nil store)", calls)
	}
}
