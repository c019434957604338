// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiff_IdenticalTrees_EmptyActions: diffing a tree against an
// identical copy of itself maps every node positionally and produces no
// actions.
func TestDiff_IdenticalTrees_EmptyActions(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)
	dstRoot := buildSample(f)

	res, err := Diff[testID, testKind](f, srcRoot, dstRoot)
	require.NoError(t, err)

	n := res.Mapping.Src.Len()
	require.Equal(t, n, res.Mapping.Dst.Len())
	assert.Equal(t, n, res.Mapping.Store.Len())
	for i := IdD(0); i < IdD(n); i++ {
		d, ok := res.Mapping.Store.GetDst(i)
		require.True(t, ok)
		assert.Equal(t, i, d)
	}
	assert.Empty(t, res.Actions)
}

// TestDiff_Deterministic: repeated runs over the same inputs and
// configuration produce the same mapping and the same action sequence.
func TestDiff_Deterministic(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "y")
	ret1_2 := f.ident("StmtReturn", "1")
	extra := f.leaf("Expr")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2, extra)
	ret2_2 := f.ident("StmtReturn", "2")
	dstRoot := f.add("StmtBlock", "", false, if2, ret2_2)

	res1, err := Diff[testID, testKind](f, srcRoot, dstRoot)
	require.NoError(t, err)
	res2, err := Diff[testID, testKind](f, srcRoot, dstRoot)
	require.NoError(t, err)

	require.Equal(t, len(res1.Actions), len(res2.Actions))
	for i := range res1.Actions {
		assert.Equal(t, res1.Actions[i], res2.Actions[i])
	}
	assert.Equal(t, res1.Mapping.Store.Pairs(), res2.Mapping.Store.Pairs())
}

// TestDiff_ActionCountBound: the produced script never exceeds
// len(src)+len(dst) actions, a sanity cap rather than a tight bound.
func TestDiff_ActionCountBound(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "y")
	ret1_2 := f.leaf("Expr")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2)
	ret2_2 := f.ident("StmtReturn", "3")
	extra := f.leaf("Expr")
	dstRoot := f.add("StmtBlock", "", false, if2, ret2_2, extra)

	res, err := Diff[testID, testKind](f, srcRoot, dstRoot)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Actions), res.Mapping.Src.Len()+res.Mapping.Dst.Len())
}

// TestDiffBaseline_SingleRename: a single leaf label change surrounded by
// otherwise-identical structure produces exactly one Update action.
// Thresholds are relaxed to zero so the outcome depends
// only on the pipeline's wiring (leaves matcher -> bottom-up matcher ->
// script generator), not on how similar "A" and "B" happen to look as
// q-grams of a single character.
func TestDiffBaseline_SingleRename(t *testing.T) {
	f := newTestForest()
	kw := func() testID { return f.ident("Kw", "class") }
	body := func() testID { return f.ident("Body", "{}") }

	srcClass := f.add("Class", "", false, kw(), f.ident("Name", "A"), body())
	srcRoot := f.add("Program", "", false, srcClass)

	dstClass := f.add("Class", "", false, kw(), f.ident("Name", "B"), body())
	dstRoot := f.add("Program", "", false, dstClass)

	cfg := baselineConfig()
	cfg.LabelSimThreshold = 0
	cfg.StructSimThreshold = 0

	res, err := DiffOptimized[testID, testKind](f, srcRoot, dstRoot, cfg)
	require.NoError(t, err)

	require.Len(t, res.Actions, 1)
	upd, ok := res.Actions[0].(Update[testID])
	require.True(t, ok, "expected a single Update action, got %#v", res.Actions[0])
	assert.Equal(t, "A", upd.OldLabel)
	assert.Equal(t, "B", upd.NewLabel)
}

// TestDiff_AllEntryPoints is a smoke test over every exported entry point:
// each must run to completion and return a structurally sane result for
// the same non-trivial pair of trees.
func TestDiff_AllEntryPoints(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)

	cond2 := f.ident("Expr", "y")
	ret1_2 := f.ident("StmtReturn", "1")
	if2 := f.add("StmtIf", "", false, cond2, ret1_2)
	ret2_2 := f.ident("StmtReturn", "2")
	dstRoot := f.add("StmtBlock", "", false, if2, ret2_2)

	runners := map[string]func() (*DiffResult[testID, testKind], error){
		"Diff": func() (*DiffResult[testID, testKind], error) {
			return Diff[testID, testKind](f, srcRoot, dstRoot)
		},
		"DiffBaseline": func() (*DiffResult[testID, testKind], error) {
			return DiffBaseline[testID, testKind](f, srcRoot, dstRoot)
		},
		"DiffWithAllOptimizations": func() (*DiffResult[testID, testKind], error) {
			return DiffWithAllOptimizations[testID, testKind](f, srcRoot, dstRoot)
		},
		"DiffOptimized": func() (*DiffResult[testID, testKind], error) {
			return DiffOptimized[testID, testKind](f, srcRoot, dstRoot, DefaultConfig())
		},
	}

	for name, run := range runners {
		t.Run(name, func(t *testing.T) {
			res, err := run()
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.LessOrEqual(t, res.Mapping.Store.Len(), res.Mapping.Src.Len())
			assert.LessOrEqual(t, res.Mapping.Store.Len(), res.Mapping.Dst.Len())
			assert.LessOrEqual(t, len(res.Actions), res.Mapping.Src.Len()+res.Mapping.Dst.Len())

			actions, err := ComputeActions[testID, testKind](f, res.Mapping)
			require.NoError(t, err)
			assert.Equal(t, res.Actions, actions)
		})
	}
}

// TestDiff_NoScript verifies Config.CalculateScript=false suppresses the
// script generation phase entirely: the mapping is still computed, but
// Actions stays nil.
func TestDiff_NoScript(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)
	dstRoot := buildSample(f)

	res, err := Diff[testID, testKind](f, srcRoot, dstRoot, WithCalculateScript(false))
	require.NoError(t, err)
	assert.Nil(t, res.Actions)
	assert.Equal(t, res.Mapping.Src.Len(), res.Mapping.Store.Len())
}

// TestDiff_EmptyTrees exercises the smallest possible input: a single-node
// tree diffed against itself still degenerates gracefully, since there is
// no such thing as a truly empty hyper-AST subtree (every root resolves to
// at least one node).
// MinHeight is lowered to 0 so this single leaf pair clears the top-down
// matcher's height gate; at the default MinHeight=2 a lone leaf (height 1)
// is never a top-down candidate, by design (see TestTopDownMatch_RespectsMinHeight).
func TestDiff_EmptyTrees(t *testing.T) {
	f := newTestForest()
	srcRoot := f.leaf("Empty")
	dstRoot := f.leaf("Empty")

	res, err := Diff[testID, testKind](f, srcRoot, dstRoot, WithMinHeight(0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Mapping.Store.Len())
	assert.Empty(t, res.Actions)
}
