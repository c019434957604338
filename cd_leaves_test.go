// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectLeaves_TrueLeavesOnly(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	a := Decompress[testID, testKind](f, root)

	cfg := DefaultConfig()
	leaves := collectLeaves[testID, testKind](a, &cfg)
	assert.Equal(t, []IdD{0, 1, 3}, leaves)
}

func TestCollectLeaves_DeepLeavesIncludeStatements(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	a := Decompress[testID, testKind](f, root)

	cfg := DefaultConfig()
	cfg.EnableDeepLeaves = true
	leaves := collectLeaves[testID, testKind](a, &cfg)
	// ifNode (2) is "StmtIf", an internal statement node, now included.
	assert.Contains(t, leaves, IdD(2))
}

func TestCdLeavesMatch_MatchesSameLabelLeaves(t *testing.T) {
	f := newTestForest()
	srcRoot := buildSample(f)
	dstRoot := buildSample(f)
	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	cfg := DefaultConfig()
	cdLeavesMatch[testID, testKind](f, srcA, dstA, m, &cfg, &PhaseMetrics{})

	d, ok := m.GetDst(0)
	require.True(t, ok, "identical \"x\" identifiers should match")
	assert.Equal(t, IdD(0), d)

	d, ok = m.GetDst(1)
	require.True(t, ok)
	assert.Equal(t, IdD(1), d)
}

func TestCdLeavesMatch_RejectsBelowThreshold(t *testing.T) {
	f := newTestForest()
	srcRoot := f.ident("Expr", "alpha")
	dstRoot := f.ident("Expr", "zzz")
	srcA := Decompress[testID, testKind](f, srcRoot)
	dstA := Decompress[testID, testKind](f, dstRoot)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	cfg := DefaultConfig()
	cfg.LabelSimThreshold = 0.9
	cdLeavesMatch[testID, testKind](f, srcA, dstA, m, &cfg, &PhaseMetrics{})

	assert.Equal(t, 0, m.Len())
}

func TestSerializeSubtree_ConcatenatesDescendantLabels(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	a := Decompress[testID, testKind](f, root)

	got := serializeSubtree[testID, testKind](f, a, 2) // ifNode: cond(x), ret1(1)
	assert.Equal(t, "x 1", got)
}
