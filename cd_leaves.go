// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"sort"
	"strings"

	"github.com/tigerwill90/hyperdiff/internal/qgram"
)

// cdLeavesMatch runs the ChangeDistiller leaves matcher: every type-
// compatible pair of leaves (optionally widened to statement-level internal
// nodes by EnableDeepLeaves) is scored by normalized q-gram label
// similarity, and candidates above LabelSimThreshold are linked greedily in
// descending-similarity order, with ties broken toward earlier src order.
func cdLeavesMatch[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], srcA, dstA Arena[IdN, Ty], m *MappingStore, cfg *Config, metrics *PhaseMetrics) {
	srcLeaves := collectLeaves[IdN, Ty](srcA, cfg)
	dstLeaves := collectLeaves[IdN, Ty](dstA, cfg)
	if len(srcLeaves) == 0 || len(dstLeaves) == 0 {
		return
	}

	var caches map[int]*qgram.Cache
	if cfg.EnableNgramCaching || cfg.ReuseQgramObject {
		caches = make(map[int]*qgram.Cache)
	}
	gramsFor := func(q int, s string) qgram.Multiset {
		if caches == nil {
			return qgram.Grams(s, q)
		}
		c, ok := caches[q]
		if !ok {
			c = qgram.NewCache(q)
			caches[q] = c
		}
		return c.Grams(s)
	}

	type leafText struct {
		id   IdD
		text string
		q    int
	}
	text := func(a Arena[IdN, Ty], i IdD) leafText {
		if cfg.StatementLevelIteration && a.Type(i).IsStatement() && len(a.Children(i)) > 0 {
			return leafText{id: i, text: serializeSubtree[IdN, Ty](hast, a, i), q: 2}
		}
		s := ""
		if lbl, ok := a.Label(i); ok {
			s = hast.LabelStore().Resolve(lbl)
		}
		return leafText{id: i, text: s, q: 3}
	}

	srcTexts := make([]leafText, len(srcLeaves))
	for i, s := range srcLeaves {
		srcTexts[i] = text(srcA, s)
	}
	dstTexts := make([]leafText, len(dstLeaves))
	for i, d := range dstLeaves {
		dstTexts[i] = text(dstA, d)
	}

	type candidate struct {
		srcIdx, dstIdx int
		sim            float64
	}
	var candidates []candidate
	for si, st := range srcTexts {
		for di, dt := range dstTexts {
			if srcA.Type(st.id) != dstA.Type(dt.id) {
				continue
			}
			metrics.CandidatesConsidered++
			sim := qgram.SimilarityGrams(gramsFor(st.q, st.text), gramsFor(dt.q, dt.text))
			metrics.addComparison(len(st.text) + len(dt.text))
			if sim >= cfg.LabelSimThreshold {
				candidates = append(candidates, candidate{si, di, sim})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		if candidates[i].srcIdx != candidates[j].srcIdx {
			return candidates[i].srcIdx < candidates[j].srcIdx
		}
		return candidates[i].dstIdx < candidates[j].dstIdx
	})

	for _, c := range candidates {
		s, d := srcTexts[c.srcIdx].id, dstTexts[c.dstIdx].id
		if m.LinkIfBothUnmapped(s, d) {
			metrics.MappingsAdded++
			cfg.logDebug("leaves matched node", "src", s, "dst", d, "similarity", c.sim)
		}
	}
}

// collectLeaves returns, in ascending post-order, every true leaf of a, plus
// (when EnableDeepLeaves is set) every statement-level internal node,
// treated as a "deep leaf" for this matcher's purposes.
func collectLeaves[IdN comparable, Ty Type](a Arena[IdN, Ty], cfg *Config) []IdD {
	var leaves []IdD
	for i := IdD(0); i < IdD(a.Len()); i++ {
		if len(a.Children(i)) == 0 {
			leaves = append(leaves, i)
		} else if cfg.EnableDeepLeaves && a.Type(i).IsStatement() {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// serializeSubtree builds a deterministic textual approximation of the
// subtree rooted at i, used in place of a label when comparing
// statement-level nodes under StatementLevelIteration: the core never parses
// source text directly, so it falls back to the concatenation of every
// descendant label it does have, in post-order.
func serializeSubtree[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], a Arena[IdN, Ty], i IdD) string {
	var b strings.Builder
	lo, hi := a.FirstDescendant(i), i
	for j := lo; j <= hi; j++ {
		if lbl, ok := a.Label(j); ok {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(hast.LabelStore().Resolve(lbl))
		}
	}
	return b.String()
}
