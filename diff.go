// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "time"

// DiffResult is what every entry point in this file returns: the final
// mapping (both decompressed arenas plus the [MappingStore] that links
// them), the derived edit script (nil when [Config.CalculateScript] is
// false), and per-phase timings.
type DiffResult[IdN comparable, Ty Type] struct {
	Mapping Mapping[IdN, Ty]
	Actions ActionsVec[IdN]
	Timings Timings
}

// Diff computes a mapping and, by default, an edit script between src and
// dst using the GumTree pipeline: a top-down subtree matcher, then a
// bottom-up greedy matcher with last-chance Zhang-Shasha.
func Diff[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, opts ...Option) (*DiffResult[IdN, Ty], error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return runGumTree(hast, src, dst, &cfg)
}

// DiffBaseline runs the ChangeDistiller pipeline (leaves matcher, then
// bottom-up matcher) with every optimization flag disabled. Caller-supplied
// options are applied after the baseline defaults and may re-enable
// individual flags.
func DiffBaseline[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, opts ...Option) (*DiffResult[IdN, Ty], error) {
	cfg := baselineConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return runChangeDistiller(hast, src, dst, &cfg)
}

// DiffWithAllOptimizations runs the ChangeDistiller pipeline with every
// optimization flag enabled.
func DiffWithAllOptimizations[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, opts ...Option) (*DiffResult[IdN, Ty], error) {
	cfg := allOptimizationsConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return runChangeDistiller(hast, src, dst, &cfg)
}

// DiffOptimized runs the ChangeDistiller pipeline under an explicit,
// caller-constructed configuration. No optimization flag changes the
// output contract, only performance.
func DiffOptimized[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, cfg Config) (*DiffResult[IdN, Ty], error) {
	return runChangeDistiller(hast, src, dst, &cfg)
}

func decompressPair[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, cfg *Config, timings *Timings) (Arena[IdN, Ty], Arena[IdN, Ty]) {
	stop := track(&timings.Decompression)
	defer stop()
	if cfg.UseLazyDecompression {
		return DecompressLazy[IdN, Ty](hast, src), DecompressLazy[IdN, Ty](hast, dst)
	}
	return Decompress[IdN, Ty](hast, src), Decompress[IdN, Ty](hast, dst)
}

// completeIfLazy upgrades a lazy arena to fully materialized before a phase
// that is going to touch most of the tree anyway (the bottom-up matchers,
// script generation), where per-node lazy dispatch is pure overhead
// (arena_lazy.go). Already-eager arenas pass through unchanged.
func completeIfLazy[IdN comparable, Ty Type](a Arena[IdN, Ty]) Arena[IdN, Ty] {
	if l, ok := a.(*lazyArena[IdN, Ty]); ok {
		return l.Complete()
	}
	return a
}

func runPhase(name string, cfg *Config, m map[string]time.Duration, fn func(*PhaseMetrics)) *PhaseMetrics {
	cfg.logDebug("phase start", "phase", name)
	stop := trackPhase(m, name)
	defer stop()
	pm := &PhaseMetrics{}
	fn(pm)
	cfg.logDebug("phase done", "phase", name,
		"mappingsAdded", pm.MappingsAdded,
		"candidatesConsidered", pm.CandidatesConsidered,
		"comparisonsAttempted", pm.ComparisonsAttempted)
	return pm
}

func runGumTree[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, cfg *Config) (*DiffResult[IdN, Ty], error) {
	timings := newTimings()
	stopTotal := track(&timings.Total)
	defer stopTotal()

	srcA, dstA := decompressPair(hast, src, dst, cfg, &timings)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	runPhase("topdown", cfg, timings.Matching, func(pm *PhaseMetrics) {
		topDownMatch[IdN, Ty](srcA, dstA, m, cfg, pm)
	})

	srcA, dstA = completeIfLazy(srcA), completeIfLazy(dstA)
	runPhase("bottomup", cfg, timings.Matching, func(pm *PhaseMetrics) {
		bottomUpMatch[IdN, Ty](srcA, dstA, m, cfg, pm)
	})

	mapping := Mapping[IdN, Ty]{Src: srcA, Dst: dstA, Store: m}
	result := &DiffResult[IdN, Ty]{Mapping: mapping}
	if cfg.CalculateScript {
		if err := generateScript(hast, mapping, result, &timings); err != nil {
			return nil, err
		}
	}
	result.Timings = timings
	return result, nil
}

func runChangeDistiller[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], src, dst IdN, cfg *Config) (*DiffResult[IdN, Ty], error) {
	timings := newTimings()
	stopTotal := track(&timings.Total)
	defer stopTotal()

	srcA, dstA := decompressPair(hast, src, dst, cfg, &timings)

	m := NewMappingStore(srcA.Len(), dstA.Len())
	runPhase("leaves", cfg, timings.Matching, func(pm *PhaseMetrics) {
		cdLeavesMatch[IdN, Ty](hast, srcA, dstA, m, cfg, pm)
	})

	srcA, dstA = completeIfLazy(srcA), completeIfLazy(dstA)
	runPhase("bottomup", cfg, timings.Matching, func(pm *PhaseMetrics) {
		cdBottomUpMatch[IdN, Ty](srcA, dstA, m, cfg, pm)
	})

	mapping := Mapping[IdN, Ty]{Src: srcA, Dst: dstA, Store: m}
	result := &DiffResult[IdN, Ty]{Mapping: mapping}
	if cfg.CalculateScript {
		if err := generateScript(hast, mapping, result, &timings); err != nil {
			return nil, err
		}
	}
	result.Timings = timings
	return result, nil
}

// generateScript runs the script generator and stores its result on
// result: an [ErrScriptUnreachable] leaves the mapping intact with no
// actions rather than failing the whole diff.
func generateScript[IdN comparable, Ty Type](hast HyperAST[IdN, Ty], mapping Mapping[IdN, Ty], result *DiffResult[IdN, Ty], timings *Timings) error {
	actions, err := computeActionsTimed(hast, mapping, timings)
	if err != nil {
		if err == ErrScriptUnreachable {
			result.Actions = nil
			return nil
		}
		return err
	}
	result.Actions = actions
	return nil
}
