package trie

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencidr/lpm/bitstring"
)

func mustKey(t *testing.T, s string, nbits int) bitstring.BitString {
	t.Helper()
	buf := ipToBytes(t, s)
	k, err := bitstring.FromBytes(buf, nbits)
	require.NoError(t, err)
	return k
}

// ipToBytes is a tiny v4-only dotted-quad decoder, kept local to the
// test so this package's tests don't reach for net/netip. That
// conversion belongs to the loader/query collaborators, not the trie.
func ipToBytes(t *testing.T, s string) []byte {
	t.Helper()
	var a, b, c, d int
	n, err := fmt.Sscanf(s, "%d.%d.%d.%d", &a, &b, &c, &d)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return []byte{byte(a), byte(b), byte(c), byte(d)}
}

func TestInsertExact(t *testing.T) {
	tr := New[int](32)
	k := mustKey(t, "10.0.0.0", 8)
	*tr.InsertOrGet(k) = 100

	v, err := tr.GetExact(k)
	require.NoError(t, err)
	assert.Equal(t, 100, *v)
}

func TestInsertIdempotentReinsert(t *testing.T) {
	tr := New[int](32)
	k := mustKey(t, "10.0.0.0", 8)

	p1 := tr.InsertOrGet(k)
	*p1 = 100
	sizeAfterFirst := tr.Size()

	p2 := tr.InsertOrGet(k)
	assert.Same(t, p1, p2)
	assert.Equal(t, sizeAfterFirst, tr.Size())
	assert.Equal(t, 100, *p2)
}

func TestBestMatchLongestWins(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 100
	*tr.InsertOrGet(mustKey(t, "10.1.0.0", 16)) = 101
	*tr.InsertOrGet(mustKey(t, "10.1.2.0", 24)) = 102

	v, err := tr.BestMatch(mustKey(t, "10.1.2.3", 32))
	require.NoError(t, err)
	assert.Equal(t, 102, *v)

	v, err = tr.BestMatch(mustKey(t, "10.1.3.4", 32))
	require.NoError(t, err)
	assert.Equal(t, 101, *v)

	v, err = tr.BestMatch(mustKey(t, "10.2.0.1", 32))
	require.NoError(t, err)
	assert.Equal(t, 100, *v)

	_, err = tr.BestMatch(mustKey(t, "11.0.0.1", 32))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBestMatchMonotoneOnDistinctPrefixes(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "192.168.0.0", 16)) = 1
	*tr.InsertOrGet(mustKey(t, "192.168.1.0", 24)) = 2

	v, err := tr.BestMatch(mustKey(t, "192.168.1.5", 32))
	require.NoError(t, err)
	assert.Equal(t, 2, *v)
}

func TestForkWithGlue(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 1
	// 10 = 0b00001010, 28 = 0b00011100: they diverge partway through
	// the first byte, so this must create a glue node rather than
	// extend or split an existing one.
	*tr.InsertOrGet(mustKey(t, "28.0.0.0", 8)) = 2

	v, err := tr.GetExact(mustKey(t, "10.0.0.0", 8))
	require.NoError(t, err)
	assert.Equal(t, 1, *v)

	v, err = tr.GetExact(mustKey(t, "28.0.0.0", 8))
	require.NoError(t, err)
	assert.Equal(t, 2, *v)

	_, err = tr.GetExact(mustKey(t, "12.0.0.0", 8))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitAbovePromotesShorterPrefix(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.1.0.0", 16)) = 16
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 8

	v, err := tr.GetExact(mustKey(t, "10.0.0.0", 8))
	require.NoError(t, err)
	assert.Equal(t, 8, *v)

	v, err = tr.GetExact(mustKey(t, "10.1.0.0", 16))
	require.NoError(t, err)
	assert.Equal(t, 16, *v)
}

func TestEraseLeafUnlinksFromParent(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 1
	*tr.InsertOrGet(mustKey(t, "10.1.0.0", 16)) = 2

	require.NoError(t, tr.Erase(mustKey(t, "10.1.0.0", 16)))
	_, err := tr.GetExact(mustKey(t, "10.1.0.0", 16))
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := tr.GetExact(mustKey(t, "10.0.0.0", 8))
	require.NoError(t, err)
	assert.Equal(t, 1, *v)
}

func TestEraseTwoChildrenDemotesToGlue(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 1
	*tr.InsertOrGet(mustKey(t, "10.1.0.0", 16)) = 2
	// Force a data node with two children at the /8.
	*tr.InsertOrGet(mustKey(t, "10.128.0.0", 9)) = 3

	require.NoError(t, tr.Erase(mustKey(t, "10.0.0.0", 8)))
	_, err := tr.GetExact(mustKey(t, "10.0.0.0", 8))
	assert.ErrorIs(t, err, ErrNotFound)

	// The now-glue node must still route lookups to its descendants.
	v, err := tr.BestMatch(mustKey(t, "10.1.2.3", 32))
	require.NoError(t, err)
	assert.Equal(t, 2, *v)

	v, err = tr.BestMatch(mustKey(t, "10.200.0.0", 32))
	require.NoError(t, err)
	assert.Equal(t, 3, *v)
}

func TestInsertEraseInverseEmptiesTrie(t *testing.T) {
	tr := New[int](32)
	keys := []bitstring.BitString{
		mustKey(t, "10.0.0.0", 8),
		mustKey(t, "10.1.0.0", 16),
		mustKey(t, "10.1.2.0", 24),
		mustKey(t, "192.168.0.0", 16),
	}
	for i, k := range keys {
		*tr.InsertOrGet(k) = i
	}
	assert.Equal(t, len(keys), tr.Size())

	for i := len(keys) - 1; i >= 0; i-- {
		require.NoError(t, tr.Erase(keys[i]))
	}
	assert.Equal(t, 0, tr.Size())
	assert.Nil(t, tr.root)
}

func TestReplacementScenario(t *testing.T) {
	tr := New[int](32)
	k8 := mustKey(t, "10.0.0.0", 8)
	*tr.InsertOrGet(k8) = 100
	*tr.InsertOrGet(k8) = 111

	k16 := mustKey(t, "10.1.0.0", 16)
	*tr.InsertOrGet(k16) = 101
	k24 := mustKey(t, "10.1.2.0", 24)
	*tr.InsertOrGet(k24) = 102

	require.NoError(t, tr.Erase(k24))
	require.NoError(t, tr.Erase(k16))

	v, err := tr.BestMatch(mustKey(t, "10.1.2.3", 32))
	require.NoError(t, err)
	assert.Equal(t, 111, *v)
}

func TestClearResetsTrie(t *testing.T) {
	tr := New[int](32)
	*tr.InsertOrGet(mustKey(t, "10.0.0.0", 8)) = 1
	*tr.InsertOrGet(mustKey(t, "192.168.0.0", 16)) = 2

	tr.Clear()
	assert.Equal(t, 0, tr.Size())
	_, err := tr.GetExact(mustKey(t, "10.0.0.0", 8))
	assert.True(t, errors.Is(err, ErrNotFound))
}
