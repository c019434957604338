// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"sort"

	"github.com/rogpeppe/generic/heap"
)

// heightItem is one entry of a top-down matcher's height-ordered queue: a
// node together with the height it was pushed at (heights never change once
// computed, so there is no need to track it separately from the node).
type heightItem struct {
	id IdD
	h  int
}

// heightQueue pops the tallest node first. It is backed either by
// [heap.Heap] or a plain slice scanned linearly for its maximum, selected by
// the UseBinaryHeap configuration knob: both orderings are equivalent, only
// their asymptotic cost differs.
type heightQueue struct {
	bh     *heap.Heap[heightItem]
	linear []heightItem
}

func newHeightQueue(useHeap bool, root IdD, h int) *heightQueue {
	q := &heightQueue{}
	if useHeap {
		q.bh = heap.New([]heightItem{{root, h}}, func(a, b heightItem) bool { return a.h > b.h }, nil)
	} else {
		q.linear = []heightItem{{root, h}}
	}
	return q
}

func (q *heightQueue) Len() int {
	if q.bh != nil {
		return q.bh.Len()
	}
	return len(q.linear)
}

func (q *heightQueue) Push(id IdD, h int) {
	if q.bh != nil {
		q.bh.Push(heightItem{id, h})
		return
	}
	q.linear = append(q.linear, heightItem{id, h})
}

// PeekHeight returns the height of the tallest queued node.
func (q *heightQueue) PeekHeight() int {
	if q.bh != nil {
		return q.bh.Items[0].h
	}
	best := q.linear[0].h
	for _, it := range q.linear[1:] {
		if it.h > best {
			best = it.h
		}
	}
	return best
}

// Pop removes and returns one tallest node.
func (q *heightQueue) Pop() heightItem {
	if q.bh != nil {
		return q.bh.Pop()
	}
	bi := 0
	for i, it := range q.linear {
		if it.h > q.linear[bi].h {
			bi = i
		}
	}
	it := q.linear[bi]
	q.linear = append(q.linear[:bi], q.linear[bi+1:]...)
	return it
}

// computeHeights returns, for every index of a, the height of the subtree
// rooted there: 1 for a leaf, 1+max(child heights) otherwise. A single
// ascending pass suffices because post-order guarantees every child index
// is strictly less than its parent's.
func computeHeights[IdN comparable, Ty Type](a Arena[IdN, Ty]) []int {
	n := a.Len()
	h := make([]int, n)
	for i := 0; i < n; i++ {
		children := a.Children(IdD(i))
		if len(children) == 0 {
			h[i] = 1
			continue
		}
		max := 0
		for _, c := range children {
			if h[c] > max {
				max = h[c]
			}
		}
		h[i] = max + 1
	}
	return h
}

// topDownMatch runs the GumTree top-down (subtree) matcher: two height-
// ordered queues are drained in lockstep, expanding the taller side until
// heights agree, then grouping same-height pops by hash to find isomorphic
// subtrees. Every matched subtree is linked position-wise over its whole
// descendant range.
func topDownMatch[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, cfg *Config, metrics *PhaseMetrics) {
	srcH := computeHeights[IdN, Ty](srcA)
	dstH := computeHeights[IdN, Ty](dstA)

	hs := newHeightQueue(cfg.UseBinaryHeap, srcA.Root(), srcH[srcA.Root()])
	hd := newHeightQueue(cfg.UseBinaryHeap, dstA.Root(), dstH[dstA.Root()])

	openSrc := func(id IdD) {
		for _, c := range srcA.Children(id) {
			hs.Push(c, srcH[c])
		}
	}
	openDst := func(id IdD) {
		for _, c := range dstA.Children(id) {
			hd.Push(c, dstH[c])
		}
	}

	for hs.Len() > 0 && hd.Len() > 0 {
		ph, pd := hs.PeekHeight(), hd.PeekHeight()
		if ph != pd {
			if ph > pd {
				openSrc(hs.Pop().id)
			} else {
				openDst(hd.Pop().id)
			}
			continue
		}
		if ph < cfg.MinHeight {
			break
		}

		h := ph
		var bucketSrc, bucketDst []IdD
		for hs.Len() > 0 && hs.PeekHeight() == h {
			bucketSrc = append(bucketSrc, hs.Pop().id)
		}
		for hd.Len() > 0 && hd.PeekHeight() == h {
			bucketDst = append(bucketDst, hd.Pop().id)
		}

		type hashGroup struct{ src, dst []IdD }
		byHash := make(map[uint64]*hashGroup)
		for _, s := range bucketSrc {
			g := byHash[srcA.Hash(s)]
			if g == nil {
				g = &hashGroup{}
				byHash[srcA.Hash(s)] = g
			}
			g.src = append(g.src, s)
		}
		for _, d := range bucketDst {
			g := byHash[dstA.Hash(d)]
			if g == nil {
				g = &hashGroup{}
				byHash[dstA.Hash(d)] = g
			}
			g.dst = append(g.dst, d)
		}

		for _, g := range byHash {
			switch {
			case len(g.src) == 0 || len(g.dst) == 0:
				for _, s := range g.src {
					openSrc(s)
				}
				for _, d := range g.dst {
					openDst(d)
				}
			case len(g.src) == 1 && len(g.dst) == 1:
				metrics.CandidatesConsidered++
				added := matchSubtreePositionwise[IdN, Ty](srcA, dstA, m, g.src[0], g.dst[0])
				metrics.MappingsAdded += added
				cfg.logDebug("topdown matched subtree", "height", h, "src", g.src[0], "dst", g.dst[0])
			default:
				resolveAmbiguousSubtrees[IdN, Ty](srcA, dstA, m, g.src, g.dst, cfg, metrics, openSrc, openDst)
			}
		}
	}
}

// matchSubtreePositionwise links every descendant of s to its counterpart
// in d, assuming the two subtrees are structurally identical (same hash):
// their post-order shapes line up node-for-node at a fixed offset from
// each subtree's FirstDescendant.
func matchSubtreePositionwise[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, s, d IdD) int {
	size := srcA.Size(s)
	sBase, dBase := srcA.FirstDescendant(s), dstA.FirstDescendant(d)
	added := 0
	for off := 0; off < size; off++ {
		if m.LinkIfBothUnmapped(sBase+IdD(off), dBase+IdD(off)) {
			added++
		}
	}
	return added
}

// ancestorSignature records, for each configured step distance, the type of
// the ancestor that many levels above id (clipped at the root once the
// chain runs out). It bounds the top-down matcher's ambiguity resolution:
// two candidates whose signatures disagree sit in differently shaped
// surrounding structure and are unlikely to be each other's true match, so
// a large bucket is narrowed to same-signature pairs before the full
// descendant-overlap comparison runs.
func ancestorSignature[IdN comparable, Ty Type](a Arena[IdN, Ty], id IdD, steps []int) []Ty {
	sig := make([]Ty, len(steps))
	for i, step := range steps {
		cur := id
		for d := 0; d < step; d++ {
			p := a.Parent(cur)
			if p == cur {
				break
			}
			cur = p
		}
		sig[i] = a.Type(cur)
	}
	return sig
}

func sameSignature[Ty comparable](a, b []Ty) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveAmbiguousSubtrees breaks a same-hash, many-to-many bucket into
// pairs by greedily accepting the highest-Dice candidate first, tie-broken
// by (FirstDescendant, IdD) on both sides. Roots left without a partner
// are opened instead of discarded, so their children get another chance
// lower in the tree. When the bucket yields more src x dst candidate pairs
// than there are configured ancestor steps, each src candidate's comparison
// pool is narrowed to
// dst candidates sharing its ancestor signature; a src candidate with no
// signature match falls back to the full dst pool, so the heuristic only
// ever prunes, never hides, a true match.
func resolveAmbiguousSubtrees[IdN comparable, Ty Type](
	srcA, dstA Arena[IdN, Ty], m *MappingStore, srcCands, dstCands []IdD,
	cfg *Config, metrics *PhaseMetrics, openSrc, openDst func(IdD),
) {
	type cand struct {
		s, d IdD
		dice float64
	}

	bound := len(cfg.AncestorSteps) > 0 && len(srcCands)*len(dstCands) > len(cfg.AncestorSteps)
	var dstSigs map[IdD][]Ty
	if bound {
		dstSigs = make(map[IdD][]Ty, len(dstCands))
		for _, d := range dstCands {
			dstSigs[d] = ancestorSignature[IdN, Ty](dstA, d, cfg.AncestorSteps)
		}
	}

	cands := make([]cand, 0, len(srcCands)*len(dstCands))
	for _, s := range srcCands {
		pool := dstCands
		if bound {
			srcSig := ancestorSignature[IdN, Ty](srcA, s, cfg.AncestorSteps)
			var narrowed []IdD
			for _, d := range dstCands {
				if sameSignature(srcSig, dstSigs[d]) {
					narrowed = append(narrowed, d)
				}
			}
			if len(narrowed) > 0 {
				pool = narrowed
			}
		}
		for _, d := range pool {
			common, lo, ro := DescendantOverlap[IdN, Ty, IdN, Ty](m, srcA, s, dstA, d)
			cands = append(cands, cand{s, d, Dice(common, common+lo, common+ro)})
			metrics.CandidatesConsidered++
		}
	}
	if bound {
		cfg.logDebug("topdown bounded ambiguous bucket", "srcCands", len(srcCands), "dstCands", len(dstCands), "pairsConsidered", len(cands))
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.dice != b.dice {
			return a.dice > b.dice
		}
		if fa, fb := srcA.FirstDescendant(a.s), srcA.FirstDescendant(b.s); fa != fb {
			return fa < fb
		}
		if a.s != b.s {
			return a.s < b.s
		}
		if fa, fb := dstA.FirstDescendant(a.d), dstA.FirstDescendant(b.d); fa != fb {
			return fa < fb
		}
		return a.d < b.d
	})

	usedSrc := make(map[IdD]bool, len(srcCands))
	usedDst := make(map[IdD]bool, len(dstCands))
	for _, c := range cands {
		if usedSrc[c.s] || usedDst[c.d] {
			continue
		}
		usedSrc[c.s] = true
		usedDst[c.d] = true
		metrics.MappingsAdded += matchSubtreePositionwise[IdN, Ty](srcA, dstA, m, c.s, c.d)
	}
	for _, s := range srcCands {
		if !usedSrc[s] {
			openSrc(s)
		}
	}
	for _, d := range dstCands {
		if !usedDst[d] {
			openDst(d)
		}
	}
}
