// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

// IdD is a dense, 0-based post-order index assigned by a decompressed
// arena. The root of an arena always has the largest index: Len()-1. The
// index integer type is fixed to int32 rather than a third generic
// parameter: post-order indices are bounded by a single tree's node count,
// which never needs more than 32 bits in practice, and a fixed type keeps
// every signature in this package free of a third type parameter.
type IdD = int32

// NoIdD is the sentinel "absent" decompressed index.
const NoIdD IdD = -1

// Arena is the read contract every decompressed tree store satisfies,
// whether eagerly materialized ([Decompress]), lazily materialized
// ([DecompressLazy], then its Complete method), or a re-based slice of either
// ([Arena.SlicePO]).
type Arena[IdN comparable, Ty Type] interface {
	// Len returns the number of nodes in the arena.
	Len() int
	// Root returns the root's index, always Len()-1.
	Root() IdD
	// Original returns the hyper-AST identifier i was decompressed from.
	Original(i IdD) IdN
	// Parent returns i's parent index. The root is its own parent.
	Parent(i IdD) IdD
	// FirstDescendant returns the lowest post-order index in the subtree
	// rooted at i (the "leftmost leaf descendant", or "lld"). The subtree
	// occupies the contiguous range [FirstDescendant(i), i].
	FirstDescendant(i IdD) IdD
	// Children returns i's direct children, in source order.
	Children(i IdD) []IdD
	// Size returns the number of nodes in the subtree rooted at i.
	Size(i IdD) int
	// IsDescendant reports whether i is in the subtree rooted at anc
	// (anc itself counts as its own descendant).
	IsDescendant(anc, i IdD) bool
	// Type returns i's hyper-AST node kind.
	Type(i IdD) Ty
	// Label returns i's label, if it has one.
	Label(i IdD) (LabelID, bool)
	// Hash returns the content hash of the subtree rooted at i.
	Hash(i IdD) uint64
	// KeyRoots returns the Zhang-Shasha key roots of this arena, computed
	// lazily on first access and cached.
	KeyRoots() []IdD
	// SlicePO returns a view of the subtree rooted at i, with indices
	// re-based to [0, Size(i)). The offset i-slice.Root() translates a
	// sliced index back to this arena's index space.
	SlicePO(i IdD) Arena[IdN, Ty]
}

// eagerArena is the straightforward, fully-materialized [Arena]
// implementation: every array is populated up front by a single O(N)
// iterative post-order walk. Grounded on the "dense arena, no pointer
// graph" idiom used throughout the pack's own tree-shaped data structures
// (see DESIGN.md).
type eagerArena[IdN comparable, Ty Type] struct {
	hast HyperAST[IdN, Ty]

	original []IdN
	parent   []IdD
	fd       []IdD
	typ      []Ty
	label    []LabelID
	hasLabel []bool
	hash     []uint64

	// childStart has Len()+1 entries; node i's children are
	// childIdx[childStart[i]:childStart[i+1]].
	childStart []int32
	childIdx   []IdD

	kr keyRootCache
}

// Decompress eagerly walks the subtree rooted at root, materializing a
// dense post-order arena in O(N) time and memory. The walk is iterative
// (an explicit frame stack), not recursive, so arbitrarily
// deep ASTs cannot blow the Go call stack - the same discipline fox's
// own tree walks (roots.search, lookupByDomain) use explicit loops over
// recursion.
func Decompress[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], root IdN) Arena[IdN, Ty] {
	a := &eagerArena[IdN, Ty]{hast: hast}
	a.childStart = append(a.childStart, 0)

	type frame struct {
		idn      IdN
		view     NodeView[IdN]
		children []IdN
		next     int
		kids     []IdD
	}

	rootView := hast.NodeStore().Resolve(root)
	stack := []*frame{{idn: root, view: rootView, children: rootView.Children()}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			c := top.children[top.next]
			top.next++
			cv := hast.NodeStore().Resolve(c)
			stack = append(stack, &frame{idn: c, view: cv, children: cv.Children()})
			continue
		}

		idx := IdD(len(a.original))
		a.original = append(a.original, top.idn)
		a.typ = append(a.typ, hast.ResolveType(top.idn))
		lbl, ok := top.view.TryGetLabel()
		a.label = append(a.label, lbl)
		a.hasLabel = append(a.hasLabel, ok)
		a.hash = append(a.hash, top.view.Hash())

		if len(top.kids) == 0 {
			a.fd = append(a.fd, idx)
		} else {
			a.fd = append(a.fd, a.fd[top.kids[0]])
		}
		// Sentinel: every node starts as its own parent. Non-root nodes
		// are overwritten below, exactly once, when their real parent
		// frame finalizes; the root is never overwritten, so it remains
		// its own parent.
		a.parent = append(a.parent, idx)
		for _, k := range top.kids {
			a.parent[k] = idx
		}

		a.childIdx = append(a.childIdx, top.kids...)
		a.childStart = append(a.childStart, int32(len(a.childIdx)))

		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.kids = append(parent.kids, idx)
		}
	}

	return a
}

func (a *eagerArena[IdN, Ty]) Len() int         { return len(a.original) }
func (a *eagerArena[IdN, Ty]) Root() IdD         { return IdD(len(a.original) - 1) }
func (a *eagerArena[IdN, Ty]) Original(i IdD) IdN { return a.original[i] }
func (a *eagerArena[IdN, Ty]) Parent(i IdD) IdD   { return a.parent[i] }
func (a *eagerArena[IdN, Ty]) FirstDescendant(i IdD) IdD { return a.fd[i] }

func (a *eagerArena[IdN, Ty]) Children(i IdD) []IdD {
	return a.childIdx[a.childStart[i]:a.childStart[i+1]]
}

func (a *eagerArena[IdN, Ty]) Size(i IdD) int { return int(i-a.fd[i]) + 1 }

func (a *eagerArena[IdN, Ty]) IsDescendant(anc, i IdD) bool {
	return i >= a.fd[anc] && i <= anc
}

func (a *eagerArena[IdN, Ty]) Type(i IdD) Ty { return a.typ[i] }

func (a *eagerArena[IdN, Ty]) Label(i IdD) (LabelID, bool) {
	return a.label[i], a.hasLabel[i]
}

func (a *eagerArena[IdN, Ty]) Hash(i IdD) uint64 { return a.hash[i] }

func (a *eagerArena[IdN, Ty]) KeyRoots() []IdD {
	if !a.kr.done {
		a.kr.roots = computeKeyRoots[IdN, Ty](a)
		a.kr.done = true
	}
	return a.kr.roots
}

func (a *eagerArena[IdN, Ty]) SlicePO(i IdD) Arena[IdN, Ty] {
	return newSliceArena[IdN, Ty](a, i)
}
