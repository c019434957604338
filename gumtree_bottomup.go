// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "github.com/tigerwill90/hyperdiff/internal/zs"

// bottomUpMatch runs the GumTree bottom-up (greedy) matcher: for every
// still-unmapped internal src node, in post-order, it gathers dst ancestors
// of already-mapped descendants as candidates, accepts the one maximizing
// Dice above SimThreshold, and - for small enough subtrees - runs a
// last-chance Zhang-Shasha pass to recover any remaining leaf-level
// correspondences the coarser Dice gate missed.
func bottomUpMatch[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, cfg *Config, metrics *PhaseMetrics) {
	threshold := cfg.simThreshold()
	for s := IdD(0); s < IdD(srcA.Len()); s++ {
		if len(srcA.Children(s)) == 0 || m.IsSrc(s) {
			continue
		}

		candidates := candidateAncestors[IdN, Ty](srcA, dstA, m, s)
		if len(candidates) == 0 {
			continue
		}

		best, bestDice := NoIdD, -1.0
		for _, cand := range candidates {
			common, lo, ro := DescendantOverlap[IdN, Ty, IdN, Ty](m, srcA, s, dstA, cand)
			metrics.ComparisonsAttempted++
			metrics.CandidatesConsidered++
			d := Dice(common, common+lo, common+ro)
			if d > bestDice || (d == bestDice && betterCandidate(dstA, cand, best)) {
				best, bestDice = cand, d
			}
		}

		if best == NoIdD || bestDice < threshold {
			continue
		}
		if m.LinkIfBothUnmapped(s, best) {
			metrics.MappingsAdded++
			cfg.logDebug("bottomup matched node", "src", s, "dst", best, "dice", bestDice)
		}
		if srcA.Size(s) < cfg.SizeThreshold && dstA.Size(best) < cfg.SizeThreshold {
			lastChanceZS[IdN, Ty](srcA, dstA, m, s, best, metrics)
		}
	}
}

// candidateAncestors collects the unmapped, type-compatible dst ancestors
// of every dst node already mapped from within s's descendant range,
// walking each ancestor chain to the root exactly once per distinct
// ancestor encountered.
func candidateAncestors[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, s IdD) []IdD {
	seen := make(map[IdD]bool)
	var candidates []IdD
	srcType := srcA.Type(s)
	lo, hi := srcA.FirstDescendant(s), s
	for i := lo; i <= hi; i++ {
		d, ok := m.GetDst(i)
		if !ok {
			continue
		}
		for anc := dstA.Parent(d); ; anc = dstA.Parent(anc) {
			if seen[anc] {
				if anc == dstA.Root() {
					break
				}
				continue
			}
			seen[anc] = true
			if len(dstA.Children(anc)) > 0 && !m.IsDst(anc) && dstA.Type(anc) == srcType {
				candidates = append(candidates, anc)
			}
			if anc == dstA.Root() {
				break
			}
		}
	}
	return candidates
}

// betterCandidate applies the deterministic (FirstDescendant, IdD) tie-break
// when two dst candidates score an equal Dice coefficient.
func betterCandidate[IdN comparable, Ty Type](dstA Arena[IdN, Ty], a, b IdD) bool {
	if b == NoIdD {
		return true
	}
	if fa, fb := dstA.FirstDescendant(a), dstA.FirstDescendant(b); fa != fb {
		return fa < fb
	}
	return a < b
}

// sliceTree adapts an [Arena] slice (already re-based to [0, Size())) to
// [zs.Tree].
type sliceTree[IdN comparable, Ty Type] struct {
	a Arena[IdN, Ty]
}

func (t sliceTree[IdN, Ty]) Size() int      { return t.a.Len() }
func (t sliceTree[IdN, Ty]) LLD(i int) int { return int(t.a.FirstDescendant(IdD(i))) }

// lastChanceZS runs Zhang-Shasha over the subtrees sliced at s and best,
// re-bases the resulting alignment by the two slice offsets, and imports
// every pair whose endpoints are still unmapped and type-compatible.
func lastChanceZS[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, s, d IdD, metrics *PhaseMetrics) {
	srcSlice := sliceTree[IdN, Ty]{srcA.SlicePO(s)}
	dstSlice := sliceTree[IdN, Ty]{dstA.SlicePO(d)}
	sArena, dArena := srcA.SlicePO(s), dstA.SlicePO(d)

	costs := zs.Costs{
		Delete: func(int) float64 { return 1 },
		Insert: func(int) float64 { return 1 },
		Rename: func(i, j int) float64 {
			if sArena.Type(IdD(i)) != dArena.Type(IdD(j)) {
				return 1
			}
			sl, sok := sArena.Label(IdD(i))
			dl, dok := dArena.Label(IdD(j))
			if sok != dok || (sok && sl != dl) {
				return 1
			}
			return 0
		},
	}

	_, pairs := zs.Diff(srcSlice, dstSlice, costs)
	sBase, dBase := srcA.FirstDescendant(s), dstA.FirstDescendant(d)
	for _, p := range pairs {
		si, di := sBase+IdD(p.I), dBase+IdD(p.J)
		if srcA.Type(si) != dstA.Type(di) {
			continue
		}
		if m.LinkIfBothUnmapped(si, di) {
			metrics.MappingsAdded++
		}
	}
}
