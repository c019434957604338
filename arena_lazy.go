// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

// lazyArena is an [Arena] whose structural skeleton (original, parent,
// firstDescendant, children) is built eagerly - it has to be, since a
// node's post-order index depends on the full shape of every subtree to
// its left - but whose per-node payload (type, label, hash) is resolved
// only on first access. Each not-yet-resolved node is conceptually a
// Shallow token: present in the index space, but its hyper-AST content
// hasn't been fetched yet. This pays off whenever a matcher prunes large
// parts of the tree (size/height thresholds, early dice cutoffs) without
// ever touching their labels or hashes.
type lazyArena[IdN comparable, Ty Type] struct {
	hast HyperAST[IdN, Ty]

	original []IdN
	parent   []IdD
	fd       []IdD

	childStart []int32
	childIdx   []IdD

	typ      []Ty
	label    []LabelID
	hasLabel []bool
	hash     []uint64
	resolved []bool

	kr keyRootCache
}

// DecompressLazy builds the structural skeleton of the subtree rooted at
// root without resolving any node's type, label or hash. Those are fetched
// lazily, one node at a time, the first time [Arena.Type], [Arena.Label] or
// [Arena.Hash] is called on it.
func DecompressLazy[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], root IdN) *lazyArena[IdN, Ty] {
	a := &lazyArena[IdN, Ty]{hast: hast}
	a.childStart = append(a.childStart, 0)

	type frame struct {
		idn      IdN
		children []IdN
		next     int
		kids     []IdD
	}

	stack := []*frame{{idn: root, children: hast.NodeStore().Resolve(root).Children()}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			c := top.children[top.next]
			top.next++
			stack = append(stack, &frame{idn: c, children: hast.NodeStore().Resolve(c).Children()})
			continue
		}

		idx := IdD(len(a.original))
		a.original = append(a.original, top.idn)
		if len(top.kids) == 0 {
			a.fd = append(a.fd, idx)
		} else {
			a.fd = append(a.fd, a.fd[top.kids[0]])
		}
		a.parent = append(a.parent, idx)
		for _, k := range top.kids {
			a.parent[k] = idx
		}
		a.childIdx = append(a.childIdx, top.kids...)
		a.childStart = append(a.childStart, int32(len(a.childIdx)))

		a.typ = append(a.typ, *new(Ty))
		a.label = append(a.label, 0)
		a.hasLabel = append(a.hasLabel, false)
		a.hash = append(a.hash, 0)
		a.resolved = append(a.resolved, false)

		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.kids = append(parent.kids, idx)
		}
	}

	return a
}

// DecompressTo forces resolution of i's type, label and hash, without
// touching any other node. Matchers call this on a node right before they
// need its payload, instead of paying for the whole arena up front.
func (a *lazyArena[IdN, Ty]) DecompressTo(i IdD) {
	a.resolve(i)
}

func (a *lazyArena[IdN, Ty]) resolve(i IdD) {
	if a.resolved[i] {
		return
	}
	view := a.hast.NodeStore().Resolve(a.original[i])
	a.typ[i] = a.hast.ResolveType(a.original[i])
	lbl, ok := view.TryGetLabel()
	a.label[i] = lbl
	a.hasLabel[i] = ok
	a.hash[i] = view.Hash()
	a.resolved[i] = true
}

// Complete resolves every remaining node's payload and returns the arena
// as a plain, fully materialized [Arena]. Called before phases that touch
// most of the tree anyway - the bottom-up matchers, script generation -
// where per-node lazy dispatch would be pure overhead.
func (a *lazyArena[IdN, Ty]) Complete() Arena[IdN, Ty] {
	for i := range a.original {
		a.resolve(IdD(i))
	}
	return a
}

func (a *lazyArena[IdN, Ty]) Len() int          { return len(a.original) }
func (a *lazyArena[IdN, Ty]) Root() IdD          { return IdD(len(a.original) - 1) }
func (a *lazyArena[IdN, Ty]) Original(i IdD) IdN { return a.original[i] }
func (a *lazyArena[IdN, Ty]) Parent(i IdD) IdD   { return a.parent[i] }
func (a *lazyArena[IdN, Ty]) FirstDescendant(i IdD) IdD { return a.fd[i] }

func (a *lazyArena[IdN, Ty]) Children(i IdD) []IdD {
	return a.childIdx[a.childStart[i]:a.childStart[i+1]]
}

func (a *lazyArena[IdN, Ty]) Size(i IdD) int { return int(i-a.fd[i]) + 1 }

func (a *lazyArena[IdN, Ty]) IsDescendant(anc, i IdD) bool {
	return i >= a.fd[anc] && i <= anc
}

func (a *lazyArena[IdN, Ty]) Type(i IdD) Ty {
	a.resolve(i)
	return a.typ[i]
}

func (a *lazyArena[IdN, Ty]) Label(i IdD) (LabelID, bool) {
	a.resolve(i)
	return a.label[i], a.hasLabel[i]
}

func (a *lazyArena[IdN, Ty]) Hash(i IdD) uint64 {
	a.resolve(i)
	return a.hash[i]
}

func (a *lazyArena[IdN, Ty]) KeyRoots() []IdD {
	if !a.kr.done {
		a.kr.roots = computeKeyRoots[IdN, Ty](a)
		a.kr.done = true
	}
	return a.kr.roots
}

func (a *lazyArena[IdN, Ty]) SlicePO(i IdD) Arena[IdN, Ty] {
	return newSliceArena[IdN, Ty](a, i)
}

// sliceArena is a read-only, re-based view onto the subtree rooted at i of
// some parent arena, eager or lazy. Local index 0 corresponds to
// parent.FirstDescendant(i); local index Len()-1 corresponds to i itself.
// It never copies data: every call is forwarded to parent after translating
// the index, so slicing is O(1) regardless of subtree size - the shape
// the bottom-up and last-chance matchers need to hand small subtrees to
// internal/zs without materializing a new arena each time.
type sliceArena[IdN comparable, Ty Type] struct {
	parent Arena[IdN, Ty]
	base   IdD
	root   IdD

	kr keyRootCache
}

func newSliceArena[IdN comparable, Ty Type](parent Arena[IdN, Ty], root IdD) *sliceArena[IdN, Ty] {
	return &sliceArena[IdN, Ty]{parent: parent, base: parent.FirstDescendant(root), root: root}
}

func (s *sliceArena[IdN, Ty]) toParent(l IdD) IdD { return l + s.base }
func (s *sliceArena[IdN, Ty]) toLocal(p IdD) IdD   { return p - s.base }

func (s *sliceArena[IdN, Ty]) Len() int { return int(s.root-s.base) + 1 }
func (s *sliceArena[IdN, Ty]) Root() IdD { return s.toLocal(s.root) }

func (s *sliceArena[IdN, Ty]) Original(l IdD) IdN { return s.parent.Original(s.toParent(l)) }

func (s *sliceArena[IdN, Ty]) Parent(l IdD) IdD {
	p := s.toParent(l)
	if p == s.root {
		return s.Root()
	}
	return s.toLocal(s.parent.Parent(p))
}

func (s *sliceArena[IdN, Ty]) FirstDescendant(l IdD) IdD {
	return s.toLocal(s.parent.FirstDescendant(s.toParent(l)))
}

func (s *sliceArena[IdN, Ty]) Children(l IdD) []IdD {
	pc := s.parent.Children(s.toParent(l))
	out := make([]IdD, len(pc))
	for i, c := range pc {
		out[i] = s.toLocal(c)
	}
	return out
}

func (s *sliceArena[IdN, Ty]) Size(l IdD) int { return s.parent.Size(s.toParent(l)) }

func (s *sliceArena[IdN, Ty]) IsDescendant(anc, l IdD) bool {
	return s.parent.IsDescendant(s.toParent(anc), s.toParent(l))
}

func (s *sliceArena[IdN, Ty]) Type(l IdD) Ty { return s.parent.Type(s.toParent(l)) }

func (s *sliceArena[IdN, Ty]) Label(l IdD) (LabelID, bool) { return s.parent.Label(s.toParent(l)) }

func (s *sliceArena[IdN, Ty]) Hash(l IdD) uint64 { return s.parent.Hash(s.toParent(l)) }

func (s *sliceArena[IdN, Ty]) KeyRoots() []IdD {
	if !s.kr.done {
		s.kr.roots = computeKeyRoots[IdN, Ty](s)
		s.kr.done = true
	}
	return s.kr.roots
}

func (s *sliceArena[IdN, Ty]) SlicePO(l IdD) Arena[IdN, Ty] {
	return newSliceArena[IdN, Ty](s, l)
}
