// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressLazy_StructureMatchesEager(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)

	eager := Decompress[testID, testKind](f, root)
	lazy := DecompressLazy[testID, testKind](f, root)

	require.Equal(t, eager.Len(), lazy.Len())
	for i := IdD(0); i < IdD(eager.Len()); i++ {
		assert.Equal(t, eager.Parent(i), lazy.Parent(i))
		assert.Equal(t, eager.FirstDescendant(i), lazy.FirstDescendant(i))
		assert.Equal(t, eager.Children(i), lazy.Children(i))
		assert.Equal(t, eager.Original(i), lazy.Original(i))
	}
}

func TestDecompressLazy_ResolvesOnDemand(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	lazy := DecompressLazy[testID, testKind](f, root)

	assert.False(t, lazy.resolved[0])
	typ := lazy.Type(0)
	assert.True(t, lazy.resolved[0])
	assert.Equal(t, testKind("Expr"), typ)

	// Untouched nodes remain unresolved.
	assert.False(t, lazy.resolved[lazy.Root()])
}

func TestLazyComplete_MatchesEagerPayload(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)

	eager := Decompress[testID, testKind](f, root)
	lazy := DecompressLazy[testID, testKind](f, root)
	completed := lazy.Complete()

	for i := IdD(0); i < IdD(eager.Len()); i++ {
		assert.Equal(t, eager.Type(i), completed.Type(i))
		assert.Equal(t, eager.Hash(i), completed.Hash(i))
		el, eok := eager.Label(i)
		cl, cok := completed.Label(i)
		assert.Equal(t, eok, cok)
		assert.Equal(t, el, cl)
	}
}
