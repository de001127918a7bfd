// Package lpmtable routes longest-prefix-match queries to one of two
// monomorphized tries, one sized for IPv4 addresses and one for IPv6,
// based on the address family of each query.
package lpmtable

import (
	"fmt"
	"net/netip"

	"github.com/opencidr/lpm/bitstring"
	"github.com/opencidr/lpm/trie"
)

// Tag is the opaque payload associated with a prefix. The reference use
// is an Autonomous System number, but lpmtable never interprets it.
type Tag = int

const (
	// bitsV4 and bitsV6 are the address widths, and therefore the
	// family prefix-length caps, for IPv4 and IPv6 respectively.
	bitsV4 = 32
	bitsV6 = 128
)

// Table is a pair of Patricia tries, one per IP address family, built
// once and then queried read-only.
type Table struct {
	v4 *trie.Trie[Tag]
	v6 *trie.Trie[Tag]
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		v4: trie.New[Tag](bitsV4),
		v6: trie.New[Tag](bitsV6),
	}
}

// Insert adds or replaces the tag for prefix. netip.Prefix.Bits()
// already rejects a length outside [0, addr.BitLen()] for its own
// family (an invalid Prefix reports Bits() < 0), so the per-family cap
// doesn't need to be re-checked here; bitstring.FromBytes's own nbits
// bound still rejects it defensively if a caller gets here with a
// malformed Prefix anyway.
func (tbl *Table) Insert(prefix netip.Prefix, tag Tag) error {
	addr := prefix.Addr()
	bitLen := prefix.Bits()

	var key bitstring.BitString
	var err error
	var t *trie.Trie[Tag]
	switch {
	case addr.Is4():
		b := addr.As4()
		key, err = bitstring.FromBytes(b[:], bitLen)
		t = tbl.v4
	case addr.Is6():
		b := addr.As16()
		key, err = bitstring.FromBytes(b[:], bitLen)
		t = tbl.v6
	default:
		return fmt.Errorf("lpmtable: unrecognized address family for %s", prefix)
	}
	if err != nil {
		return fmt.Errorf("lpmtable: %w", err)
	}

	*t.InsertOrGet(key) = tag
	return nil
}

// Lookup returns the tag of the longest stored prefix covering addr, or
// ok == false if no stored prefix covers it.
func (tbl *Table) Lookup(addr netip.Addr) (tag Tag, ok bool) {
	var key bitstring.BitString
	var err error
	var t *trie.Trie[Tag]

	switch {
	case addr.Is4():
		b := addr.As4()
		key, err = bitstring.FromBytes(b[:], bitsV4)
		t = tbl.v4
	case addr.Is6():
		b := addr.As16()
		key, err = bitstring.FromBytes(b[:], bitsV6)
		t = tbl.v6
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}

	v, err := t.BestMatch(key)
	if err != nil {
		return 0, false
	}
	return *v, true
}

// Len4 and Len6 report the number of distinct prefixes stored in each
// family's trie, for diagnostics and tests.
func (tbl *Table) Len4() int { return tbl.v4.Size() }
func (tbl *Table) Len6() int { return tbl.v6.Size() }
