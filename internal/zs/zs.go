// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

// Package zs implements the Zhang-Shasha tree edit distance algorithm
// (Zhang & Shasha, 1989) over two post-order-indexed trees, and recovers an
// optimal node alignment from the distance computation. It is the
// last-chance subroutine the GumTree bottom-up matcher calls on small,
// sliced subtrees.
//
// Trees are addressed purely by dense, 0-based post-order index: the
// caller is expected to have already sliced the subtrees down to this
// shape (see the root package's Arena.SlicePO) and to re-base any returned
// Pair back to its own index space.
package zs

// Tree is the minimal contract this package needs from a sliced subtree:
// its size and, for every node, the post-order index of its leftmost
// (first) descendant.
type Tree interface {
	Size() int
	LLD(i int) int
}

// Costs supplies the three edit operation costs. Rename(i, j) should
// return 0 when node i of t1 and node j of t2 are considered equal (same
// type, same label), matching Zhang-Shasha's standard formulation where a
// zero-cost rename is effectively a match.
type Costs struct {
	Delete func(i int) float64
	Insert func(j int) float64
	Rename func(i, j int) float64
}

// Pair identifies one aligned position in each tree.
type Pair struct {
	I, J int
}

const (
	opNone = iota
	opDelete
	opInsert
	opRename    // fd[i1][j1] chosen via a direct rename cost at a forest boundary
	opComposite // fd[i1][j1] chosen via fd[i1off][j1off] + treedist(di,dj)
)

// forestTable holds one keyroot pair's forest-distance DP table, enough to
// backtrace an alignment for any cell within it.
type forestTable struct {
	baseI, baseJ int // li-1, lj-1: actual index = base + local offset
	op           [][]byte
	// compI/compJ[i1][j1] record, for opComposite cells only, the (di,dj)
	// node pair whose own treedist must be recursively backtraced.
	compI, compJ [][]int
}

func newForestTable(rows, cols, baseI, baseJ int) *forestTable {
	tb := &forestTable{baseI: baseI, baseJ: baseJ}
	tb.op = make([][]byte, rows)
	tb.compI = make([][]int, rows)
	tb.compJ = make([][]int, rows)
	for i := range tb.op {
		tb.op[i] = make([]byte, cols)
		tb.compI[i] = make([]int, cols)
		tb.compJ[i] = make([]int, cols)
	}
	return tb
}

// Diff computes the tree edit distance between t1 and t2 under costs, and
// returns an alignment: a set of (i,j) pairs covering every "match" edit
// operation found along an optimal edit path, whether or not Rename(i,j)
// was zero. Callers filter the returned pairs by whatever compatibility
// check they need - e.g. importing only those whose endpoints are still
// unmapped and type-compatible.
func Diff(t1, t2 Tree, costs Costs) (dist float64, mapping []Pair) {
	n1, n2 := t1.Size(), t2.Size()
	if n1 == 0 || n2 == 0 {
		return 0, nil
	}

	kr1 := keyRoots(t1)
	kr2 := keyRoots(t2)

	treedist := make([][]float64, n1)
	for i := range treedist {
		treedist[i] = make([]float64, n2)
	}
	// owningTable[di][dj] is non-nil once (di,dj) has been resolved as a
	// forest-boundary cell by some keyroot pair's table, together with the
	// local offsets to start a backtrace from within that table.
	owningTable := make([][]*forestTable, n1)
	localI := make([][]int, n1)
	localJ := make([][]int, n1)
	for i := range owningTable {
		owningTable[i] = make([]*forestTable, n2)
		localI[i] = make([]int, n2)
		localJ[i] = make([]int, n2)
	}

	for _, ki := range kr1 {
		for _, kj := range kr2 {
			forestDist(t1, t2, costs, ki, kj, treedist, owningTable, localI, localJ)
		}
	}

	root1, root2 := n1-1, n2-1
	dist = treedist[root1][root2]
	mapping = backtrace(owningTable, localI, localJ, root1, root2)
	return dist, mapping
}

// forestDist computes the forest-distance table for the keyroot pair
// (ki, kj), filling in treedist[di][dj] for every "closed" (forest
// boundary) position encountered - the standard Zhang-Shasha side effect
// that makes iterating only over keyroot pairs sufficient to resolve every
// node pair.
func forestDist(
	t1, t2 Tree, costs Costs, ki, kj int,
	treedist [][]float64, owningTable [][]*forestTable, localI, localJ [][]int,
) {
	li, lj := t1.LLD(ki), t2.LLD(kj)
	rows := ki - li + 2
	cols := kj - lj + 2
	fd := make([][]float64, rows)
	for i := range fd {
		fd[i] = make([]float64, cols)
	}
	tb := newForestTable(rows, cols, li-1, lj-1)

	for i1 := 1; i1 < rows; i1++ {
		di := li - 1 + i1
		fd[i1][0] = fd[i1-1][0] + costs.Delete(di)
		tb.op[i1][0] = opDelete
	}
	for j1 := 1; j1 < cols; j1++ {
		dj := lj - 1 + j1
		fd[0][j1] = fd[0][j1-1] + costs.Insert(dj)
		tb.op[0][j1] = opInsert
	}

	for i1 := 1; i1 < rows; i1++ {
		di := li - 1 + i1
		for j1 := 1; j1 < cols; j1++ {
			dj := lj - 1 + j1

			delCost := fd[i1-1][j1] + costs.Delete(di)
			insCost := fd[i1][j1-1] + costs.Insert(dj)
			boundary := t1.LLD(di) == li && t2.LLD(dj) == lj

			var matchCost float64
			var matchOp byte
			if boundary {
				matchCost = fd[i1-1][j1-1] + costs.Rename(di, dj)
				matchOp = opRename
			} else {
				i1off := t1.LLD(di) - li
				j1off := t2.LLD(dj) - lj
				matchCost = fd[i1off][j1off] + treedist[di][dj]
				matchOp = opComposite
			}

			best, bestOp := delCost, byte(opDelete)
			if insCost < best {
				best, bestOp = insCost, opInsert
			}
			if matchCost < best {
				best, bestOp = matchCost, matchOp
			}
			fd[i1][j1] = best
			tb.op[i1][j1] = bestOp
			if bestOp == opComposite {
				tb.compI[i1][j1] = di
				tb.compJ[i1][j1] = dj
			}

			if boundary {
				treedist[di][dj] = best
				owningTable[di][dj] = tb
				localI[di][dj] = i1
				localJ[di][dj] = j1
			}
		}
	}
}

func backtrace(owningTable [][]*forestTable, localI, localJ [][]int, root1, root2 int) []Pair {
	tb := owningTable[root1][root2]
	if tb == nil {
		return nil
	}
	var pairs []Pair
	walk(tb, owningTable, localI, localJ, localI[root1][root2], localJ[root1][root2], &pairs)
	return pairs
}

func walk(tb *forestTable, owningTable [][]*forestTable, localI, localJ [][]int, i1, j1 int, pairs *[]Pair) {
	for i1 > 0 || j1 > 0 {
		switch {
		case i1 == 0:
			j1--
		case j1 == 0:
			i1--
		default:
			switch tb.op[i1][j1] {
			case opDelete:
				i1--
			case opInsert:
				j1--
			case opRename:
				*pairs = append(*pairs, Pair{I: tb.baseI + i1, J: tb.baseJ + j1})
				i1--
				j1--
			case opComposite:
				di, dj := tb.compI[i1][j1], tb.compJ[i1][j1]
				inner := owningTable[di][dj]
				if inner == nil {
					i1--
					j1--
					break
				}
				walk(inner, owningTable, localI, localJ, localI[di][dj], localJ[di][dj], pairs)
				// Resume at fd[i1off][j1off]: inner's bases are
				// lld(di)-1 and lld(dj)-1, so the offsets follow from them.
				i1, j1 = inner.baseI-tb.baseI, inner.baseJ-tb.baseJ
			}
		}
	}
}

// keyRoots returns the key roots of t, sorted ascending by post-order
// index so that the main loop in Diff always resolves a composite
// subproblem's treedist entry before a larger forest needs it.
// A node is a key root iff it is the root or no left sibling shares its
// leftmost descendant.
func keyRoots(t Tree) []int {
	n := t.Size()
	rightmostWithLLD := make(map[int]int, n)
	for i := 0; i < n; i++ {
		rightmostWithLLD[t.LLD(i)] = i
	}
	roots := make([]int, 0, len(rightmostWithLLD))
	for _, i := range rightmostWithLLD {
		roots = append(roots, i)
	}
	insertionSort(roots, t)
	return roots
}

func insertionSort(roots []int, t Tree) {
	for i := 1; i < len(roots); i++ {
		v := roots[i]
		j := i - 1
		for j >= 0 && less(t, v, roots[j]) {
			roots[j+1] = roots[j]
			j--
		}
		roots[j+1] = v
	}
}

func less(t Tree, a, b int) bool {
	return a < b
}
