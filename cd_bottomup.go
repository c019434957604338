// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

// cdBottomUpMatch runs the ChangeDistiller bottom-up matcher: for every
// still-unmapped internal src node, in post-order, it searches unmapped
// type-compatible dst internal nodes for the one maximizing Chawathe
// descendant-overlap similarity, linking it when that similarity clears
// StructSimThreshold. Candidate search is restricted to a type bucket when
// EnableTypeGrouping is set.
func cdBottomUpMatch[IdN comparable, Ty Type](srcA, dstA Arena[IdN, Ty], m *MappingStore, cfg *Config, metrics *PhaseMetrics) {
	var typeIndex map[Ty][]IdD
	if cfg.EnableTypeGrouping {
		typeIndex = make(map[Ty][]IdD)
		for d := IdD(0); d < IdD(dstA.Len()); d++ {
			if len(dstA.Children(d)) > 0 {
				typeIndex[dstA.Type(d)] = append(typeIndex[dstA.Type(d)], d)
			}
		}
	}

	for s := IdD(0); s < IdD(srcA.Len()); s++ {
		if len(srcA.Children(s)) == 0 || m.IsSrc(s) {
			continue
		}

		var candidates []IdD
		if typeIndex != nil {
			candidates = typeIndex[srcA.Type(s)]
		} else {
			srcType := srcA.Type(s)
			for d := IdD(0); d < IdD(dstA.Len()); d++ {
				if len(dstA.Children(d)) > 0 && dstA.Type(d) == srcType {
					candidates = append(candidates, d)
				}
			}
		}

		best, bestSim := NoIdD, -1.0
		for _, d := range candidates {
			if m.IsDst(d) {
				continue
			}
			common, lo, ro := DescendantOverlap[IdN, Ty, IdN, Ty](m, srcA, s, dstA, d)
			metrics.ComparisonsAttempted++
			metrics.CandidatesConsidered++
			sim := Chawathe(common, lo, ro)
			if sim > bestSim || (sim == bestSim && betterCandidate(dstA, d, best)) {
				best, bestSim = d, sim
			}
		}

		if best == NoIdD || bestSim < cfg.StructSimThreshold {
			continue
		}
		if m.LinkIfBothUnmapped(s, best) {
			metrics.MappingsAdded++
			cfg.logDebug("bottomup matched node", "src", s, "dst", best, "similarity", bestSim)
		}
	}
}
