package table_test

import (
	"testing"

	"github.com/loxlang/lox/lang/table"
	"github.com/stretchr/testify/require"
)

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func newStringTable() *table.Table[string, int] {
	return table.New[string, int](hashString)
}

func TestSetGet(t *testing.T) {
	tb := newStringTable()
	isNew := tb.Set("a", 1)
	require.True(t, isNew)
	v, ok := tb.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestSetOverwriteIsNotNewKey(t *testing.T) {
	tb := newStringTable()
	require.True(t, tb.Set("a", 1))
	require.False(t, tb.Set("a", 2))
	v, ok := tb.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestDeleteThenGetMisses(t *testing.T) {
	tb := newStringTable()
	tb.Set("a", 1)
	require.True(t, tb.Delete("a"))
	_, ok := tb.Get("a")
	require.False(t, ok)
}

func TestSetAfterDeleteReusesTombstoneWithoutGrowingCount(t *testing.T) {
	// Five keys leave room under the 0.75 load limit of an 8-slot table, so
	// re-setting "c" lands in its own tombstone instead of triggering a
	// rehash. Len counts live keys only, so it goes back up by one while the
	// table's live-plus-tombstone count stays where it was.
	tb := newStringTable()
	for i := 0; i < 5; i++ {
		tb.Set(string(rune('a'+i)), i)
	}
	require.True(t, tb.Delete("c"))
	lenBefore := tb.Len()
	require.True(t, tb.Set("c", 99))
	require.Equal(t, lenBefore+1, tb.Len())
	v, ok := tb.Get("c")
	require.True(t, ok)
	require.Equal(t, 99, v)
}

func TestAddAllCopiesLiveEntries(t *testing.T) {
	src := newStringTable()
	src.Set("a", 1)
	src.Set("b", 2)
	src.Delete("a")

	dst := newStringTable()
	dst.Set("b", 0)
	table.AddAll(src, dst)

	_, ok := dst.Get("a")
	require.False(t, ok, "tombstoned source key must not be copied")
	v, _ := dst.Get("b")
	require.Equal(t, 2, v)
}

func TestFindByProbesPastTombstones(t *testing.T) {
	// "alpha" and "d" share home slot 3 in an 8-slot table, so "d" sits one
	// slot past "alpha" and the lookup must step over alpha's tombstone.
	tb := newStringTable()
	tb.Set("alpha", 1)
	tb.Set("d", 2)
	tb.Delete("alpha")

	k, ok := tb.FindBy(hashString("d"), func(k string) bool { return k == "d" })
	require.True(t, ok)
	require.Equal(t, "d", k)
}

func TestRemoveWhiteDeletesUnkept(t *testing.T) {
	tb := newStringTable()
	tb.Set("keep", 1)
	tb.Set("drop", 2)
	tb.RemoveWhite(func(k string) bool { return k == "keep" })

	require.True(t, tb.Has("keep"))
	require.False(t, tb.Has("drop"))
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tb := newStringTable()
	const n = 200
	for i := 0; i < n; i++ {
		tb.Set(string(rune(i)), i)
	}
	require.Equal(t, n, tb.Len())
	for i := 0; i < n; i++ {
		v, ok := tb.Get(string(rune(i)))
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}
