package hashtable

import "testing"

func TestCreateSizedToFirstPrime(t *testing.T) {
	tbl := Create[int]()
	if got := len(tbl.slots); got != growthSchedule[0] {
		t.Errorf("Create() slots = %d, want %d", got, growthSchedule[0])
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	tbl := Create[string]()
	tbl.Set([]byte("x"), "one")
	tbl.Set([]byte("y"), "two")

	got, ok := tbl.Get([]byte("x"))
	if !ok || got != "one" {
		t.Errorf("Get(x) = %q, %v; want one, true", got, ok)
	}
	got, ok = tbl.Get([]byte("y"))
	if !ok || got != "two" {
		t.Errorf("Get(y) = %q, %v; want two, true", got, ok)
	}
	if _, ok := tbl.Get([]byte("z")); ok {
		t.Errorf("Get(z) found an entry that was never set")
	}
}

func TestSetOverwritesExistingKey(t *testing.T) {
	tbl := Create[int]()
	tbl.Set([]byte("n"), 1)
	tbl.Set([]byte("n"), 2)

	if got, _ := tbl.Get([]byte("n")); got != 2 {
		t.Errorf("Get(n) = %d, want 2", got)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestDelRemovesKey(t *testing.T) {
	tbl := Create[int]()
	tbl.Set([]byte("a"), 1)
	if !tbl.Del([]byte("a")) {
		t.Fatal("Del(a) = false, want true")
	}
	if _, ok := tbl.Get([]byte("a")); ok {
		t.Error("Get(a) still found a value after Del")
	}
	if tbl.Del([]byte("a")) {
		t.Error("Del(a) a second time should report false")
	}
}

func TestGrowsUnderLoad(t *testing.T) {
	tbl := Create[int]()
	for i := 0; i < 100; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		tbl.Set(key, i)
	}
	for i := 0; i < 100; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		got, ok := tbl.Get(key)
		if !ok || got != i {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", i, got, ok, i)
		}
	}
	if tbl.growthIndex == 0 {
		t.Error("expected table to have grown past the initial size")
	}
}

func TestShrinksAfterDeletes(t *testing.T) {
	tbl := Create[int]()
	keys := make([][]byte, 50)
	for i := range keys {
		keys[i] = []byte{byte(i), byte(i >> 8), 0xAA}
		tbl.Set(keys[i], i)
	}
	grown := tbl.growthIndex
	if grown == 0 {
		t.Fatal("expected growth before testing shrink")
	}
	for _, k := range keys {
		tbl.Del(k)
	}
	if tbl.growthIndex >= grown {
		t.Errorf("growthIndex = %d, want less than %d after deletes", tbl.growthIndex, grown)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("hello"))
	b := Hash([]byte("hello"))
	if a != b {
		t.Errorf("Hash not deterministic: %d != %d", a, b)
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("unexpected hash collision between distinct short keys")
	}
}
