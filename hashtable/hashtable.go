// Package hashtable implements the string-keyed open-addressing table the
// core depends on: SAX-style hashing, quadratic probing, and automatic
// resize along a fixed prime growth schedule.
//
// No pack library reproduces this exact algorithm (a specific hash
// accumulator plus a specific probe sequence plus a specific prime table),
// so it is implemented directly on the standard library.
package hashtable

// growthSchedule is the fixed prime sequence create/set/del grow and shrink
// along: each entry is the smallest prime >= 2*previous+1, starting at 5.
var growthSchedule = [...]int{
	5, 11, 23, 47, 97, 197, 397, 797, 1597, 3203,
	6421, 12853, 25717, 51437, 102877, 205759, 411527, 823117, 1646237, 3292489,
	6584983, 13169977, 26339969, 52679969, 105359939, 210719881, 421439783, 842879579,
	1685759167,
}

const maxGrowthIndex = len(growthSchedule) - 1

// Hash computes the SAX (shift-add-xor) accumulator over key.
func Hash(key []byte) uint32 {
	var h uint32
	for _, b := range key {
		h ^= (h << 5) + (h >> 2) + uint32(b)
	}
	return h
}

type slot[V any] struct {
	state    slotState
	keyHash  uint32
	key      []byte
	value    V
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotUsed
	slotTombstone
)

// Table is a quadratic-probed open-addressing map from byte-string keys to
// values of type V. The zero value is not usable; construct with Create.
type Table[V any] struct {
	slots       []slot[V]
	growthIndex int
	count       int // live (non-tombstone) entries
	full        bool
}

// Create allocates an empty table sized to the first entry of the growth
// schedule.
func Create[V any]() *Table[V] {
	t := &Table[V]{}
	t.slots = make([]slot[V], growthSchedule[0])
	return t
}

func sameKey(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// findSlot returns the index of an existing live entry for key, or -1 if
// absent. It also reports the first tombstone/empty slot seen
// along the probe sequence, usable as an insertion point.
func (t *Table[V]) findSlot(key []byte, h uint32) (found int, insertAt int) {
	size := len(t.slots)
	insertAt = -1
	for i := 0; i < size; i++ {
		idx := int((h + uint32(i*i)) % uint32(size))
		s := &t.slots[idx]
		switch s.state {
		case slotEmpty:
			if insertAt == -1 {
				insertAt = idx
			}
			return -1, insertAt
		case slotTombstone:
			if insertAt == -1 {
				insertAt = idx
			}
		case slotUsed:
			if s.keyHash == h && sameKey(s.key, key) {
				return idx, insertAt
			}
		}
	}
	return -1, insertAt
}

// Get performs a lookup, returning the stored value and whether it was
// present.
func (t *Table[V]) Get(key []byte) (V, bool) {
	var zero V
	h := Hash(key)
	found, _ := t.findSlot(key, h)
	if found == -1 {
		return zero, false
	}
	return t.slots[found].value, true
}

// Set inserts or overwrites key's value. It grows the table to the next
// prime when the load factor reaches 1/2, and reports false without
// inserting if the growth index is already at its maximum (the table is
// full).
func (t *Table[V]) Set(key []byte, value V) bool {
	h := Hash(key)
	found, insertAt := t.findSlot(key, h)
	if found != -1 {
		t.slots[found].value = value
		return true
	}
	if t.full {
		return false
	}
	if insertAt == -1 {
		// Probe sequence exhausted without a free slot; force growth.
		if !t.grow() {
			t.full = true
			return false
		}
		return t.Set(key, value)
	}

	keyCopy := append([]byte(nil), key...)
	t.slots[insertAt] = slot[V]{state: slotUsed, keyHash: h, key: keyCopy, value: value}
	t.count++

	if 2*t.count >= len(t.slots) && !t.grow() {
		t.full = true
	}
	return true
}

// Del removes key's entry, if present, zeroing the slot and marking it a
// tombstone. It shrinks the table to the previous prime when the load
// factor drops below 1/4.
func (t *Table[V]) Del(key []byte) bool {
	h := Hash(key)
	found, _ := t.findSlot(key, h)
	if found == -1 {
		return false
	}
	var zero V
	t.slots[found] = slot[V]{state: slotTombstone, value: zero}
	t.count--

	if t.growthIndex > 0 && 4*t.count < len(t.slots) {
		t.shrink()
	}
	return true
}

// Len returns the number of live entries.
func (t *Table[V]) Len() int { return t.count }

// Keys returns the live keys in slot order, for debugging.
func (t *Table[V]) Keys() [][]byte {
	keys := make([][]byte, 0, t.count)
	for i := range t.slots {
		if t.slots[i].state == slotUsed {
			keys = append(keys, t.slots[i].key)
		}
	}
	return keys
}

func (t *Table[V]) grow() bool {
	if t.growthIndex >= maxGrowthIndex {
		return false
	}
	t.growthIndex++
	t.rehash(growthSchedule[t.growthIndex])
	return true
}

func (t *Table[V]) shrink() {
	if t.growthIndex == 0 {
		return
	}
	t.growthIndex--
	t.rehash(growthSchedule[t.growthIndex])
}

func (t *Table[V]) rehash(newSize int) {
	old := t.slots
	t.slots = make([]slot[V], newSize)
	t.count = 0
	t.full = false
	for _, s := range old {
		if s.state == slotUsed {
			t.Set(s.key, s.value)
		}
	}
}
