// Package table implements the open-addressing hash table shared by the
// globals table, instance field tables, class method tables and the string
// intern table. It is a leaf package: it knows nothing about the concrete
// key/value types it stores, only how to hash and compare them, so the same
// implementation backs every one of those uses.
package table

const maxLoad = 0.75

// entryState distinguishes the three states an Entry slot can be in.
type entryState uint8

const (
	stateEmpty entryState = iota
	stateTombstone
	stateLive
)

type entry[K comparable, V any] struct {
	state entryState
	hash  uint32
	key   K
	value V
}

// Table is a linear-probing, power-of-two-capacity hash table with
// tombstone deletion, as specified for Lox's globals/fields/methods/string
// tables. K is typically a pointer-identity key (an interned *types.String),
// compared with Go's built-in == — which is exactly the "pointer equality
// means content equality" invariant interning is meant to provide.
type Table[K comparable, V any] struct {
	hashFn  func(K) uint32
	entries []entry[K, V]
	count   int // live entries + tombstones
	live    int // live entries only
}

// New creates an empty Table that hashes keys with hashFn.
func New[K comparable, V any](hashFn func(K) uint32) *Table[K, V] {
	return &Table[K, V]{hashFn: hashFn}
}

// Len reports the number of live entries (tombstones are not counted).
func (t *Table[K, V]) Len() int { return t.live }

// Get returns the value associated with k, and whether it was found.
func (t *Table[K, V]) Get(k K) (V, bool) {
	var zero V
	if len(t.entries) == 0 {
		return zero, false
	}
	e := t.findEntry(t.entries, k, t.hashFn(k))
	if e.state != stateLive {
		return zero, false
	}
	return e.value, true
}

// Has reports whether k is present.
func (t *Table[K, V]) Has(k K) bool {
	_, ok := t.Get(k)
	return ok
}

// Set inserts or updates k -> v. It returns true if k was not already
// present (a new key), matching clox's tableSet return value.
func (t *Table[K, V]) Set(k K, v V) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, k, t.hashFn(k))
	isNewKey := e.state != stateLive
	if isNewKey && e.state == stateEmpty {
		t.count++
	}
	if isNewKey {
		t.live++
	}
	e.state = stateLive
	e.hash = t.hashFn(k)
	e.key = k
	e.value = v
	return isNewKey
}

// Delete removes k, leaving a tombstone behind so that probe chains through
// this slot remain intact for other keys. Reports whether k was present.
func (t *Table[K, V]) Delete(k K) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, k, t.hashFn(k))
	if e.state != stateLive {
		return false
	}
	var zeroK K
	var zeroV V
	e.state = stateTombstone
	e.key = zeroK
	e.value = zeroV
	t.live--
	return true
}

// AddAll copies every live entry of src into t, used to implement Lox's
// INHERIT opcode (copying a superclass's methods into the subclass).
func AddAll[K comparable, V any](src, dst *Table[K, V]) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.state == stateLive {
			dst.Set(e.key, e.value)
		}
	}
}

// FindBy probes the table by hash, calling match against the key of each
// live entry whose stored hash equals hash, stopping at the first empty
// slot (tombstones are skipped over, never terminate the search). It is the
// generic form of clox's tableFindString, used by the string intern table
// to look up a string by content before an ObjString for it exists.
func (t *Table[K, V]) FindBy(hash uint32, match func(K) bool) (K, bool) {
	var zero K
	if len(t.entries) == 0 {
		return zero, false
	}
	capacity := uint32(len(t.entries))
	idx := hash & (capacity - 1)
	for {
		e := &t.entries[idx]
		switch e.state {
		case stateEmpty:
			return zero, false
		case stateLive:
			if e.hash == hash && match(e.key) {
				return e.key, true
			}
		}
		idx = (idx + 1) & (capacity - 1)
	}
}

// RemoveWhite deletes every live key for which keep returns false. It backs
// the GC's weak-reference sweep of the string intern table (tableRemoveWhite
// in clox): strings that were not marked during tracing are interned but
// otherwise unreachable, and must not keep themselves alive.
func (t *Table[K, V]) RemoveWhite(keep func(K) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == stateLive && !keep(e.key) {
			var zeroK K
			var zeroV V
			e.state = stateTombstone
			e.key = zeroK
			e.value = zeroV
			t.live--
		}
	}
}

// Each calls fn for every live entry, in table order. fn must not mutate t.
func (t *Table[K, V]) Each(fn func(k K, v V)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == stateLive {
			fn(e.key, e.value)
		}
	}
}

func (t *Table[K, V]) findEntry(entries []entry[K, V], k K, hash uint32) *entry[K, V] {
	capacity := uint32(len(entries))
	idx := hash & (capacity - 1)
	var tombstone *entry[K, V]
	for {
		e := &entries[idx]
		switch e.state {
		case stateEmpty:
			if tombstone != nil {
				return tombstone
			}
			return e
		case stateTombstone:
			if tombstone == nil {
				tombstone = e
			}
		default: // stateLive
			if e.key == k {
				return e
			}
		}
		idx = (idx + 1) & (capacity - 1)
	}
}

// grow rehashes all live entries into a table of the given capacity,
// dropping tombstones in the process (clox's adjustCapacity).
func (t *Table[K, V]) grow(capacity int) {
	entries := make([]entry[K, V], capacity)
	live := 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.state != stateLive {
			continue
		}
		dst := findEmptyOrMatching(entries, old.key, old.hash)
		dst.state = stateLive
		dst.hash = old.hash
		dst.key = old.key
		dst.value = old.value
		live++
	}
	t.entries = entries
	t.count = live
	t.live = live
}

func findEmptyOrMatching[K comparable, V any](entries []entry[K, V], k K, hash uint32) *entry[K, V] {
	capacity := uint32(len(entries))
	idx := hash & (capacity - 1)
	for {
		e := &entries[idx]
		if e.state == stateEmpty || (e.state == stateLive && e.key == k) {
			return e
		}
		idx = (idx + 1) & (capacity - 1)
	}
}

const defaultCapacity = 8

func growCapacity(capacity int) int {
	if capacity < defaultCapacity {
		return defaultCapacity
	}
	return capacity * 2
}
