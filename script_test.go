// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityMapping links src index i to dst index i for every i < n, the
// shape every test below that reuses most of a tree relies on.
func identityMapping(m *MappingStore, n int) {
	for i := 0; i < n; i++ {
		m.Link(IdD(i), IdD(i))
	}
}

func TestComputeActions_IdenticalTrees_NoActions(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)
	dstRoot := buildSample(f)
	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	identityMapping(m, srcA.Len())

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestComputeActions_LabelUpdate(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "y") // was "x"
	ret1_2 := f.ident("StmtReturn", "1")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2)
	ret2_2 := f.ident("StmtReturn", "2")
	dstRoot := f.add("StmtBlock", "", false, if2, ret2_2)

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	identityMapping(m, srcA.Len())

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	upd, ok := actions[0].(Update[testID])
	require.True(t, ok)
	assert.Equal(t, "x", upd.OldLabel)
	assert.Equal(t, "y", upd.NewLabel)
}

func TestComputeActions_Insert(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "x")
	ret1_2 := f.ident("StmtReturn", "1")
	extra := f.leaf("Expr")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2, extra)
	ret2_2 := f.ident("StmtReturn", "2")
	dstRoot := f.add("StmtBlock", "", false, if2, ret2_2)

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	m.Link(0, 0) // cond
	m.Link(1, 1) // ret1
	m.Link(2, 3) // ifNode
	m.Link(3, 4) // ret2
	m.Link(4, 5) // block

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	ins, ok := actions[0].(Insert[testID])
	require.True(t, ok)
	assert.Equal(t, extra, ins.Sub)
	require.NotNil(t, ins.Parent)
	assert.Equal(t, 2, ins.Idx)
}

func TestComputeActions_Delete(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "x")
	ret1_2 := f.ident("StmtReturn", "1")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2)
	dstRoot := f.add("StmtBlock", "", false, if2) // ret2 dropped

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	m.Link(0, 0) // cond
	m.Link(1, 1) // ret1
	m.Link(2, 2) // ifNode
	m.Link(4, 3) // block

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	del, ok := actions[0].(Delete[testID])
	require.True(t, ok)
	_ = del
}

// TestComputeActions_CrossParentMove moves a leaf from one internal node to
// another between src and dst, without changing its label.
func TestComputeActions_CrossParentMove(t *testing.T) {
	f := newTestForest()
	x := f.ident("Expr", "p")
	a := f.add("StmtA", "", false, x)
	y := f.ident("Expr", "q")
	b := f.add("StmtB", "", false, y)
	srcRoot := f.add("StmtRoot", "", false, a, b)

	x2 := f.ident("Expr", "p")
	a2 := f.add("StmtA", "", false)
	y2 := f.ident("Expr", "q")
	b2 := f.add("StmtB", "", false, y2, x2)
	dstRoot := f.add("StmtRoot", "", false, a2, b2)

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	m.Link(0, 2) // x -> x2
	m.Link(1, 0) // a -> a2
	m.Link(2, 1) // y -> y2
	m.Link(3, 3) // b -> b2
	m.Link(4, 4) // root -> root

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	mv, ok := actions[0].(Move[testID])
	require.True(t, ok)
	assert.Equal(t, x, mv.Sub)
	require.NotNil(t, mv.Parent)
	assert.Equal(t, b, *mv.Parent)
}

// TestComputeActions_SiblingReorder swaps the order of two leaves under the
// same parent, exercising align_children's LCS-based repositioning rather
// than a cross-parent move.
func TestComputeActions_SiblingReorder(t *testing.T) {
	f := newTestForest()
	p := f.ident("Expr", "p")
	q := f.ident("Expr", "q")
	srcRoot := f.add("StmtRoot", "", false, p, q)

	q2 := f.ident("Expr", "q")
	p2 := f.ident("Expr", "p")
	dstRoot := f.add("StmtRoot", "", false, q2, p2)

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	m.Link(0, 1) // p -> p2
	m.Link(1, 0) // q -> q2
	m.Link(2, 2) // root -> root

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	mv, ok := actions[0].(Move[testID])
	require.True(t, ok)
	assert.Equal(t, p, mv.Sub)
}

// TestComputeActions_UnmappedRootReplaced covers the root edge case from
// the other side: when the dst root has no src counterpart at all,
// processRoot inserts a fresh root and rebinds mid_root to it. The
// displaced original root's entire subtree must still be deleted even
// though it is no longer reachable from the new mid_root.
func TestComputeActions_UnmappedRootReplaced(t *testing.T) {
	f := newTestForest()
	oldLeaf := f.leaf("Expr")
	srcRoot := f.add("StmtOldRoot", "", false, oldLeaf)

	newLeaf := f.leaf("Expr")
	dstRoot := f.add("StmtNewRoot", "", false, newLeaf)

	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len()) // fully disjoint: no links at all

	actions, err := ComputeActions(f, Mapping[testID, testKind]{Src: srcA, Dst: dstA, Store: m})
	require.NoError(t, err)
	require.Len(t, actions, 4)

	ins1, ok := actions[0].(Insert[testID])
	require.True(t, ok, "expected the new root to be inserted first, got %#v", actions[0])
	assert.Equal(t, dstRoot, ins1.Sub)
	assert.Nil(t, ins1.Parent)

	ins2, ok := actions[1].(Insert[testID])
	require.True(t, ok, "expected the new leaf to be inserted next, got %#v", actions[1])
	assert.Equal(t, newLeaf, ins2.Sub)
	require.NotNil(t, ins2.Parent)
	assert.Equal(t, dstRoot, *ins2.Parent)

	del1, ok := actions[2].(Delete[testID])
	require.True(t, ok, "expected the old leaf to be deleted before its old root, got %#v", actions[2])
	assert.Equal(t, oldLeaf, del1.Tree)

	del2, ok := actions[3].(Delete[testID])
	require.True(t, ok, "expected the displaced old root to be deleted, got %#v", actions[3])
	assert.Equal(t, srcRoot, del2.Tree)
}

func TestComputeActions_UnreachableParent(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)
	dstRoot := buildSample(f)
	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	g := newScriptGen(f, srcA, dstA, m)
	err := g.processNode(0, 2) // y=2 was never visited by the BFS
	assert.ErrorIs(t, err, ErrScriptUnreachable)
}
