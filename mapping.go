// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "github.com/tigerwill90/hyperdiff/internal/bitset"

// Pair identifies one mapped (src, dst) pair.
type Pair struct {
	Src, Dst IdD
}

// MappingStore is a bijective mapping between a source and a destination
// arena's index spaces, with O(1) membership and lookup in both
// directions. It enforces:
//
//   - bijectivity on linked pairs: Link never ties one src to two dsts
//     or one dst to two srcs.
//   - injectivity: the set of src indices with a mapping is disjoint in
//     purpose from, but same-sized as, the set of mapped dst indices.
//   - monotone growth: once linked, a pair stays linked until an explicit
//     Cut; matchers never have to re-derive a mapping they already
//     established.
type MappingStore struct {
	srcToDst []IdD
	dstToSrc []IdD
	srcSet   bitset.Set
	dstSet   bitset.Set
}

// NewMappingStore allocates a mapping between a source arena of size
// srcLen and a destination arena of size dstLen.
func NewMappingStore(srcLen, dstLen int) *MappingStore {
	m := &MappingStore{
		srcToDst: make([]IdD, srcLen),
		dstToSrc: make([]IdD, dstLen),
		srcSet:   bitset.New(srcLen),
		dstSet:   bitset.New(dstLen),
	}
	for i := range m.srcToDst {
		m.srcToDst[i] = NoIdD
	}
	for i := range m.dstToSrc {
		m.dstToSrc[i] = NoIdD
	}
	return m
}

// IsSrc reports whether src already has a mapped counterpart.
func (m *MappingStore) IsSrc(src IdD) bool { return m.srcSet.Test(int(src)) }

// IsDst reports whether dst already has a mapped counterpart.
func (m *MappingStore) IsDst(dst IdD) bool { return m.dstSet.Test(int(dst)) }

// GetDst returns the dst mapped to src, if any.
func (m *MappingStore) GetDst(src IdD) (IdD, bool) {
	if !m.IsSrc(src) {
		return NoIdD, false
	}
	return m.srcToDst[src], true
}

// GetSrc returns the src mapped to dst, if any.
func (m *MappingStore) GetSrc(dst IdD) (IdD, bool) {
	if !m.IsDst(dst) {
		return NoIdD, false
	}
	return m.dstToSrc[dst], true
}

// Has reports whether src and dst are mapped to one another.
func (m *MappingStore) Has(src, dst IdD) bool {
	d, ok := m.GetDst(src)
	return ok && d == dst
}

// Link ties src to dst. It panics with an [InvariantViolationError] if
// either side is already mapped - callers that aren't sure should use
// [MappingStore.LinkIfBothUnmapped] instead.
func (m *MappingStore) Link(src, dst IdD) {
	invariant("MappingStore.Link", !m.IsSrc(src), "src already mapped")
	invariant("MappingStore.Link", !m.IsDst(dst), "dst already mapped")
	m.srcToDst[src] = dst
	m.dstToSrc[dst] = src
	m.srcSet.Set(int(src))
	m.dstSet.Set(int(dst))
}

// LinkIfBothUnmapped links src to dst only if neither already has a
// mapping, reporting whether the link was made. This is the workhorse
// every greedy matcher calls, so a later, lower-confidence candidate can
// never clobber an earlier, higher-confidence one.
func (m *MappingStore) LinkIfBothUnmapped(src, dst IdD) bool {
	if m.IsSrc(src) || m.IsDst(dst) {
		return false
	}
	m.Link(src, dst)
	return true
}

// Cut removes the link between src and dst. It panics if they weren't
// linked to each other.
func (m *MappingStore) Cut(src, dst IdD) {
	invariant("MappingStore.Cut", m.Has(src, dst), "src and dst are not linked")
	m.srcToDst[src] = NoIdD
	m.dstToSrc[dst] = NoIdD
	m.srcSet.Clear(int(src))
	m.dstSet.Clear(int(dst))
}

// Len returns the number of mapped pairs.
func (m *MappingStore) Len() int { return m.srcSet.Count() }

// Each calls f once per mapped pair, in ascending src order.
func (m *MappingStore) Each(f func(src, dst IdD)) {
	for src := 0; src < m.srcSet.Len(); src++ {
		if m.srcSet.Test(src) {
			f(IdD(src), m.srcToDst[src])
		}
	}
}

// Pairs returns every mapped pair, in ascending src order.
func (m *MappingStore) Pairs() []Pair {
	pairs := make([]Pair, 0, m.Len())
	m.Each(func(src, dst IdD) {
		pairs = append(pairs, Pair{Src: src, Dst: dst})
	})
	return pairs
}
