// Package trie implements a Patricia-style binary trie keyed by
// bitstring.BitString, supporting longest-prefix-match lookup.
//
// Nodes are either data nodes, carrying a stored prefix and payload, or
// glue nodes, which exist purely to host a branch point between two
// subtrees whose keys first diverge at that depth. Every non-root node's
// discriminator (bits) is strictly greater than its parent's, and every
// glue node has exactly two children: the node invariants InsertOrGet
// and Erase maintain.
package trie

import (
	"errors"

	"github.com/opencidr/lpm/bitstring"
)

// ErrNotFound is returned by GetExact, BestMatch, and Erase when no
// matching data node exists.
var ErrNotFound = errors.New("trie: not found")

// node is either a data node (isData true, key.Len() == bits, data
// holds the payload) or a glue node (isData false, key is a
// representative prefix kept only so comparisons during later descents
// have bytes to read; its own length carries no meaning).
type node[T any] struct {
	bits   int
	key    bitstring.BitString
	isData bool
	data   T

	left, right, parent *node[T]
}

// Trie is a generic Patricia trie over fixed-width bit strings. maxBits
// bounds every key's length and sizes the iterative traversal scratch
// space; it plays the role of the "N" in a BitString<N>/PatriciaTrie<N,T>
// pair that Go's lack of const generics cannot express as a type
// parameter (see DESIGN.md).
type Trie[T any] struct {
	root    *node[T]
	maxBits int
	size    int
}

// New returns an empty trie whose keys may be at most maxBits bits long.
func New[T any](maxBits int) *Trie[T] {
	return &Trie[T]{maxBits: maxBits}
}

// Size returns the number of data nodes currently stored.
func (t *Trie[T]) Size() int { return t.size }

func newDataNode[T any](key bitstring.BitString) *node[T] {
	return &node[T]{bits: key.Len(), key: key.Clone(), isData: true}
}

// attach makes child the node reached from parent by branching bit dir
// (0 = left, 1 = right), wiring the parent pointer both ways. A nil
// parent means child becomes the trie's root.
func (t *Trie[T]) attach(parent *node[T], dir uint8, child *node[T]) {
	child.parent = parent
	if parent == nil {
		t.root = child
		return
	}
	if dir == 0 {
		parent.left = child
	} else {
		parent.right = child
	}
}

// replace splices newNode into old's position under old's parent (or as
// root), preserving whichever side of the parent old occupied.
func (t *Trie[T]) replace(old, newNode *node[T]) {
	parent := old.parent
	if parent == nil {
		newNode.parent = nil
		t.root = newNode
		return
	}
	if parent.left == old {
		t.attach(parent, 0, newNode)
	} else {
		t.attach(parent, 1, newNode)
	}
}

// InsertOrGet ensures a data node exists for key, creating whatever path
// structure is required, and returns a pointer to its payload. The
// first call for a given key yields a pointer to a zero-valued payload;
// subsequent calls with the same key return a pointer to the existing
// payload unchanged. This is the assignment semantics table[key] = v
// relies on.
func (t *Trie[T]) InsertOrGet(key bitstring.BitString) *T {
	if t.root == nil {
		n := newDataNode[T](key)
		t.attach(nil, 0, n)
		t.size++
		return &n.data
	}

	n := t.root
	for {
		if n.bits >= key.Len() && n.isData {
			break
		}
		dir := key.Bit(n.bits)
		var next *node[T]
		if dir == 0 {
			next = n.left
		} else {
			next = n.right
		}
		if next == nil {
			break
		}
		n = next
	}

	diff := key.FirstDifferingBit(n.key, min(n.bits, key.Len()))

	for n.parent != nil && n.parent.bits >= diff {
		n = n.parent
	}

	switch {
	case diff == key.Len() && n.bits == key.Len():
		// Exact hit: either promote a glue node to data, or this key was
		// already present.
		if !n.isData {
			n.key = key.Clone()
			n.isData = true
			t.size++
		}
		return &n.data

	case n.bits == diff:
		// Extend below: n's discriminator already equals the common
		// prefix length, so the new key becomes a fresh child of n.
		newNode := newDataNode[T](key)
		t.attach(n, key.Bit(n.bits), newNode)
		t.size++
		return &newNode.data

	case key.Len() == diff:
		// Split above: the new key is a strict, shorter prefix of n's
		// key. It becomes n's new parent, with n demoted to a child.
		newNode := newDataNode[T](key)
		t.replace(n, newNode)
		t.attach(newNode, n.key.Bit(key.Len()), n)
		t.size++
		return &newNode.data

	default:
		// Fork with glue: neither key is a prefix of the other down to
		// this node; create a glue node at the point they diverge and
		// hang both n and the new key off it.
		newNode := newDataNode[T](key)
		glue := &node[T]{bits: diff, key: key.Clone()}
		t.replace(n, glue)
		t.attach(glue, n.key.Bit(diff), n)
		t.attach(glue, key.Bit(diff), newNode)
		t.size++
		return &newNode.data
	}
}

// GetExact returns the payload of the data node whose key exactly
// matches key (same bits, same length), or ErrNotFound.
func (t *Trie[T]) GetExact(key bitstring.BitString) (*T, error) {
	n := t.root
	for n != nil && n.bits < key.Len() {
		if key.Bit(n.bits) == 0 {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n != nil && n.isData && n.bits == key.Len() && key.CompareBits(n.key, key.Len()) {
		return &n.data, nil
	}
	return nil, ErrNotFound
}

// BestMatch returns the payload of the data node whose key is the
// longest stored prefix of key, or ErrNotFound if no stored prefix
// covers it.
func (t *Trie[T]) BestMatch(key bitstring.BitString) (*T, error) {
	// Search scratch: depth is bounded by t.maxBits+1 by the trie's own
	// invariant (discriminator strictly increases downward), sized per
	// instance rather than to a fixed constant since maxBits is a
	// runtime construction parameter, not a compile-time one.
	stack := make([]*node[T], 0, t.maxBits+1)

	n := t.root
	for n != nil {
		if n.bits <= key.Len() && n.isData {
			stack = append(stack, n)
		}
		if n.bits >= key.Len() {
			break
		}
		if key.Bit(n.bits) == 0 {
			n = n.left
		} else {
			n = n.right
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		cand := stack[i]
		if key.CompareBits(cand.key, cand.bits) {
			return &cand.data, nil
		}
	}
	return nil, ErrNotFound
}

// Erase removes the data node for key, collapsing glue nodes left with
// fewer than two children. Returns ErrNotFound if no such data node
// exists.
func (t *Trie[T]) Erase(key bitstring.BitString) error {
	n := t.root
	for n != nil && n.bits < key.Len() {
		if key.Bit(n.bits) == 0 {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n == nil || !n.isData || n.bits != key.Len() || !key.CompareBits(n.key, key.Len()) {
		return ErrNotFound
	}

	switch {
	case n.left != nil && n.right != nil:
		// Two children: demote to glue rather than restructure.
		var zero T
		n.isData = false
		n.data = zero
		t.size--

	case n.left == nil && n.right == nil:
		t.size--
		p := n.parent
		if p == nil {
			t.root = nil
			return nil
		}
		if p.left == n {
			p.left = nil
		} else {
			p.right = nil
		}
		if !p.isData {
			// p is glue and just lost a child: it must not be left with
			// only one, so replace it with its one remaining child.
			remaining := p.left
			if remaining == nil {
				remaining = p.right
			}
			t.replace(p, remaining)
		}

	default:
		child := n.left
		if child == nil {
			child = n.right
		}
		t.replace(n, child)
		t.size--
	}

	return nil
}

// Clear removes every node from the trie with an iterative, explicit
// stack rather than recursion, so teardown of a maximum-depth IPv6 trie
// cannot overflow the call stack.
func (t *Trie[T]) Clear() {
	if t.root == nil {
		return
	}
	stack := make([]*node[T], 0, t.maxBits+1)
	stack = append(stack, t.root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.left != nil {
			stack = append(stack, n.left)
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
		n.left, n.right, n.parent = nil, nil, nil
	}
	t.root = nil
	t.size = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
