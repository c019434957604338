// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "github.com/tigerwill90/hyperdiff/internal/lcs"

// Mapping bundles the two decompressed arenas a mapping store's indices
// refer to: a [MappingStore] alone is meaningless without knowing which
// arenas its IdD values index into.
type Mapping[IdN comparable, Ty Type] struct {
	Src   Arena[IdN, Ty]
	Dst   Arena[IdN, Ty]
	Store *MappingStore
}

// midNode is one node of the script generator's working "mid" tree: a
// mutable copy of src that Insert/Move/Update/Delete progressively reshape
// into dst's shape.
type midNode[IdN comparable] struct {
	original IdN
	label    LabelID
	hasLabel bool
	parent   IdD
	children []IdD
}

// scriptGen holds everything the script generator's two phases share: the
// mid arena, the src/dst "in-order" marks align_children needs, and a
// private copy of the mapping the generator is allowed to mutate as it
// inserts fresh nodes.
type scriptGen[IdN comparable, Ty Type] struct {
	hast HyperAST[IdN, Ty]
	srcA Arena[IdN, Ty]
	dstA Arena[IdN, Ty]
	m    *MappingStore

	mid     []midNode[IdN]
	midRoot IdD

	// midToDst/dstToMid mirror m but are indexed into mid (not src) and
	// grow as fresh nodes are inserted; for every node carried over from
	// src unmodified, mid's IdD equals src's IdD - the copy-to-original
	// and original-to-copy identity collapse preserved explicitly at this
	// single call site.
	midToDst []IdD
	dstToMid []IdD

	srcInOrder []bool
	dstInOrder []bool

	actions ActionsVec[IdN]
}

// ComputeActions derives an edit script directly from a finalized mapping,
// without re-running any matcher.
func ComputeActions[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], mapping Mapping[IdN, Ty]) (ActionsVec[IdN], error) {
	scratch := newTimings()
	return computeActionsTimed(hast, mapping, &scratch)
}

// computeActionsTimed is [ComputeActions] plus instrumentation: mid-arena
// setup (ScriptPreparation) is timed separately from the two generation
// phases (ScriptGeneration), so a caller that tracks [Timings] can tell
// setup cost apart from the walk that actually produces actions.
func computeActionsTimed[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], mapping Mapping[IdN, Ty], timings *Timings) (ActionsVec[IdN], error) {
	stopPrep := track(&timings.ScriptPreparation)
	g := newScriptGen(hast, mapping.Src, mapping.Dst, mapping.Store)
	stopPrep()

	stopGen := track(&timings.ScriptGeneration)
	defer stopGen()
	if err := g.insertMoveUpdatePhase(); err != nil {
		return nil, err
	}
	g.deletePhase()
	return g.actions, nil
}

func newScriptGen[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], srcA, dstA Arena[IdN, Ty], m *MappingStore) *scriptGen[IdN, Ty] {
	n := srcA.Len()
	g := &scriptGen[IdN, Ty]{hast: hast, srcA: srcA, dstA: dstA, m: m}

	g.mid = make([]midNode[IdN], n)
	for i := 0; i < n; i++ {
		id := IdD(i)
		lbl, ok := srcA.Label(id)
		g.mid[i] = midNode[IdN]{
			original: srcA.Original(id),
			label:    lbl,
			hasLabel: ok,
			parent:   srcA.Parent(id),
			children: append([]IdD(nil), srcA.Children(id)...),
		}
	}
	if n > 0 {
		g.midRoot = srcA.Root()
	}

	g.midToDst = make([]IdD, n)
	for i := range g.midToDst {
		g.midToDst[i] = NoIdD
	}
	g.dstToMid = make([]IdD, dstA.Len())
	for i := range g.dstToMid {
		g.dstToMid[i] = NoIdD
	}
	m.Each(func(s, d IdD) {
		g.midToDst[s] = d
		g.dstToMid[d] = s
	})

	g.srcInOrder = make([]bool, n)
	g.dstInOrder = make([]bool, dstA.Len())
	return g
}

func (g *scriptGen[IdN, Ty]) labelStr(lbl LabelID, ok bool) string {
	if !ok {
		return ""
	}
	return g.hast.LabelStore().Resolve(lbl)
}

func (g *scriptGen[IdN, Ty]) newMidNode(original IdN) IdD {
	idx := IdD(len(g.mid))
	g.mid = append(g.mid, midNode[IdN]{original: original, parent: idx})
	g.midToDst = append(g.midToDst, NoIdD)
	g.srcInOrder = append(g.srcInOrder, false)
	return idx
}

// detach removes child from its current mid parent's children list. The
// root (its own parent, per the sentinel convention) is never detached.
func (g *scriptGen[IdN, Ty]) detach(child IdD) {
	parent := g.mid[child].parent
	if parent == child {
		return
	}
	children := g.mid[parent].children
	for i, c := range children {
		if c == child {
			g.mid[parent].children = append(children[:i], children[i+1:]...)
			return
		}
	}
}

// attach inserts child into parent's children list at idx (clamped to the
// list's length) and records the new parent.
func (g *scriptGen[IdN, Ty]) attach(child, parent IdD, idx int) {
	children := g.mid[parent].children
	if idx > len(children) {
		idx = len(children)
	}
	if idx < 0 {
		idx = 0
	}
	children = append(children, NoIdD)
	copy(children[idx+1:], children[idx:])
	children[idx] = child
	g.mid[parent].children = children
	g.mid[child].parent = parent
}

// findPos implements find_pos(x, y): among y's children in dst, the
// rightmost sibling left of x that is already marked in-order determines
// x's target position, translated into the mapped parent's current mid
// children list. With no such sibling, x goes to position 0.
func (g *scriptGen[IdN, Ty]) findPos(x, y IdD) int {
	siblings := g.dstA.Children(y)
	xPos := -1
	for i, c := range siblings {
		if c == x {
			xPos = i
			break
		}
	}
	for i := xPos - 1; i >= 0; i-- {
		v := siblings[i]
		if !g.dstInOrder[v] {
			continue
		}
		sv := g.dstToMid[v]
		z := g.dstToMid[y]
		for i2, c := range g.mid[z].children {
			if c == sv {
				return i2 + 1
			}
		}
		return 0
	}
	return 0
}

func (g *scriptGen[IdN, Ty]) originalOf(mid IdD) IdN {
	return g.mid[mid].original
}

// insertMoveUpdatePhase is the script generator's first phase: a
// breadth-first walk of dst that inserts unmapped nodes, rewrites labels
// and/or parents of mapped ones, and reorders each visited node's
// already-mapped children.
func (g *scriptGen[IdN, Ty]) insertMoveUpdatePhase() error {
	if g.dstA.Len() == 0 {
		return nil
	}
	root := g.dstA.Root()
	queue := []IdD{root}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]

		if x == root {
			g.processRoot(x)
		} else {
			y := g.dstA.Parent(x)
			if err := g.processNode(x, y); err != nil {
				return err
			}
		}

		w := g.dstToMid[x]
		g.alignChildren(w, x)
		queue = append(queue, g.dstA.Children(x)...)
	}
	return nil
}

// processRoot handles the root's edge case: it has no parent, so only a
// label difference (Update) is possible when it is mapped; when unmapped
// it is inserted and rebinds mid_root.
func (g *scriptGen[IdN, Ty]) processRoot(x IdD) {
	if s, ok := g.m.GetSrc(x); ok {
		w := s
		lw, lwok := g.mid[w].label, g.mid[w].hasLabel
		lx, lxok := g.dstA.Label(x)
		if lwok != lxok || (lwok && lw != lx) {
			old, newL := g.labelStr(lw, lwok), g.labelStr(lx, lxok)
			g.actions = append(g.actions, NewUpdate[IdN](g.originalOf(w), g.dstA.Original(x), old, newL))
			g.mid[w].label, g.mid[w].hasLabel = lx, lxok
		}
		g.srcInOrder[w] = true
		g.dstInOrder[x] = true
		return
	}

	w := g.newMidNode(g.dstA.Original(x))
	lx, lxok := g.dstA.Label(x)
	g.mid[w].label, g.mid[w].hasLabel = lx, lxok
	g.midToDst[w] = x
	g.dstToMid[x] = w
	g.midRoot = w
	g.actions = append(g.actions, NewInsert[IdN](g.dstA.Original(x), nil, 0))
	g.srcInOrder[w] = true
	g.dstInOrder[x] = true
}

// processNode handles the four label/parent comparison branches for a
// non-root dst node x with dst parent y.
func (g *scriptGen[IdN, Ty]) processNode(x, y IdD) error {
	if g.dstToMid[y] == NoIdD {
		return ErrScriptUnreachable
	}

	s, ok := g.m.GetSrc(x)
	if !ok {
		z := g.dstToMid[y]
		w := g.newMidNode(g.dstA.Original(x))
		lx, lxok := g.dstA.Label(x)
		g.mid[w].label, g.mid[w].hasLabel = lx, lxok
		idx := g.findPos(x, y)
		g.attach(w, z, idx)
		zOrig := g.originalOf(z)
		g.actions = append(g.actions, NewInsert[IdN](g.dstA.Original(x), &zOrig, idx))
		g.midToDst[w] = x
		g.dstToMid[x] = w
		g.srcInOrder[w] = true
		g.dstInOrder[x] = true
		return nil
	}

	w := s
	v := g.mid[w].parent
	z := g.dstToMid[y]
	lw, lwok := g.mid[w].label, g.mid[w].hasLabel
	lx, lxok := g.dstA.Label(x)
	labelsDiffer := lwok != lxok || (lwok && lw != lx)
	parentsDiffer := v != z

	switch {
	case labelsDiffer && parentsDiffer:
		old, newL := g.labelStr(lw, lwok), g.labelStr(lx, lxok)
		g.detach(w)
		idx := g.findPos(x, y)
		g.attach(w, z, idx)
		g.mid[w].label, g.mid[w].hasLabel = lx, lxok
		zOrig := g.originalOf(z)
		g.actions = append(g.actions, NewMoveUpdate[IdN](g.originalOf(w), &zOrig, idx, old, newL))
	case labelsDiffer:
		old, newL := g.labelStr(lw, lwok), g.labelStr(lx, lxok)
		g.mid[w].label, g.mid[w].hasLabel = lx, lxok
		g.actions = append(g.actions, NewUpdate[IdN](g.originalOf(w), g.dstA.Original(x), old, newL))
	case parentsDiffer:
		g.detach(w)
		idx := g.findPos(x, y)
		g.attach(w, z, idx)
		zOrig := g.originalOf(z)
		g.actions = append(g.actions, NewMove[IdN](g.originalOf(w), &zOrig, idx))
	}

	g.srcInOrder[w] = true
	g.dstInOrder[x] = true
	return nil
}

// alignChildren implements align_children: among the children of w and x
// that are already mapped to one another, it computes their longest
// common (mapped) subsequence and repositions every mapped pair not in
// that subsequence.
func (g *scriptGen[IdN, Ty]) alignChildren(w, x IdD) {
	wChildren := g.mid[w].children
	xChildren := g.dstA.Children(x)

	s1 := make([]IdD, 0, len(wChildren))
	for _, c := range wChildren {
		if d := g.midToDst[c]; d != NoIdD && containsIdD(xChildren, d) {
			s1 = append(s1, c)
		}
	}
	s2 := make([]IdD, 0, len(xChildren))
	for _, c := range xChildren {
		if s := g.dstToMid[c]; s != NoIdD && containsIdD(wChildren, s) {
			s2 = append(s2, c)
		}
	}

	pairs := lcs.Of(s1, s2, func(a, b IdD) bool { return g.midToDst[a] == b })
	inLCS1 := make(map[IdD]bool, len(pairs))
	for _, p := range pairs {
		inLCS1[s1[p.I]] = true
		g.srcInOrder[s1[p.I]] = true
		g.dstInOrder[s2[p.J]] = true
	}

	for _, a := range s1 {
		if inLCS1[a] {
			continue
		}
		b := g.midToDst[a]
		idx := g.findPos(b, x)
		g.detach(a)
		g.attach(a, w, idx)
		wOrig := g.originalOf(w)
		g.actions = append(g.actions, NewMove[IdN](g.originalOf(a), &wOrig, idx))
		g.srcInOrder[a] = true
		g.dstInOrder[b] = true
	}
}

// deletePhase is the script generator's second phase: emitting a Delete for every
// surviving-from-src node with no dst counterpart, children before parents.
// It scans src's original mid indices directly rather than walking down
// from mid_root: when a root insert rebinds mid_root (processRoot), the
// displaced original root's whole subtree is no longer reachable from the
// new root, yet it must still be deleted if none of it got remapped
// elsewhere. Those original indices are already in post-order - they were
// copied straight out of src's post-order arena in newScriptGen - so a
// plain forward scan visits every child before its parent without needing
// a tree walk at all. The root itself is never deleted.
func (g *scriptGen[IdN, Ty]) deletePhase() {
	n := g.srcA.Len()
	for i := 0; i < n; i++ {
		w := IdD(i)
		if w == g.midRoot {
			continue
		}
		if g.midToDst[w] == NoIdD {
			g.actions = append(g.actions, NewDelete[IdN](g.originalOf(w)))
		}
	}
}

func containsIdD(s []IdD, v IdD) bool {
	for _, c := range s {
		if c == v {
			return true
		}
	}
	return false
}
