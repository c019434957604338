// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeKeyRoots(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	a := Decompress[testID, testKind](f, root)

	// Post-order: cond=0, ret1=1, ifNode=2, ret2=3, block=4.
	// fd: 0,1,0,3,0 -> key roots are the rightmost index per distinct fd:
	// fd=0 -> 4, fd=1 -> 1, fd=3 -> 3.
	assert.Equal(t, []IdD{4, 1, 3}, a.KeyRoots())
}

func TestComputeKeyRoots_CachedAcrossCalls(t *testing.T) {
	f := newTestForest()
	root := buildSample(f)
	a := Decompress[testID, testKind](f, root)

	first := a.KeyRoots()
	second := a.KeyRoots()
	assert.Equal(t, first, second)
}

func TestComputeKeyRoots_SingleLeaf(t *testing.T) {
	f := newTestForest()
	root := f.ident("Expr", "x")
	a := Decompress[testID, testKind](f, root)

	assert.Equal(t, []IdD{0}, a.KeyRoots())
}
