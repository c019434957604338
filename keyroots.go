// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

// keyRootCache memoizes an arena's key roots on first access. It is
// embedded (not referenced by pointer) in every Arena implementation so
// each decompressed or sliced arena owns its own cache.
type keyRootCache struct {
	done  bool
	roots []IdD
}

// computeKeyRoots returns a's Zhang-Shasha key roots: the root, plus every
// node that is not the leftmost child of its parent in post-order terms -
// equivalently, every index that is the rightmost node sharing its
// FirstDescendant. Returned in ascending order of FirstDescendant (each
// FirstDescendant value has exactly one key root).
func computeKeyRoots[IdN comparable, Ty Type](a Arena[IdN, Ty]) []IdD {
	n := a.Len()
	if n == 0 {
		return nil
	}
	// rightmost[fd] is the largest index seen so far with that
	// FirstDescendant; since indices are visited ascending, the value left
	// behind after the full scan is already the rightmost one.
	rightmost := make([]IdD, n)
	for i := range rightmost {
		rightmost[i] = NoIdD
	}
	for i := IdD(0); i < IdD(n); i++ {
		rightmost[a.FirstDescendant(i)] = i
	}

	roots := make([]IdD, 0, n)
	for fd, i := range rightmost {
		if i != NoIdD {
			_ = fd
			roots = append(roots, i)
		}
	}
	return roots
}
