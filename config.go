// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "log/slog"

// Config holds every tunable the matching and script-generation pipeline
// exposes. Optimization flags only change performance, never the output
// contract.
type Config struct {
	// UseLazyDecompression defers arena materialization to the nodes a
	// matcher actually visits. Default true.
	UseLazyDecompression bool
	// CalculateScript runs the script generator after matching. When
	// false, [DiffResult.Actions] is nil and [DiffResult.Timings]'s
	// script-related fields are zero. Default true.
	CalculateScript bool
	// LabelSimThreshold is the minimum normalized q-gram similarity two
	// labels must reach to be considered a candidate pair in the leaves
	// matcher. Default 0.5.
	LabelSimThreshold float64
	// StructSimThreshold is the minimum descendant-overlap (Chawathe
	// similarity) the ChangeDistiller bottom-up matcher requires to link
	// two internal nodes. Default 0.6.
	StructSimThreshold float64
	// SizeThreshold bounds the subtree size (descendant count) the
	// GumTree bottom-up matcher's last-chance Zhang-Shasha pass will run
	// on. Default 1000.
	SizeThreshold int
	// MinHeight is the subtree height below which the top-down matcher
	// stops descending and leaves the remaining nodes for the bottom-up
	// phase. Default 2.
	MinHeight int
	// SimThreshold is the minimum Dice coefficient the GumTree bottom-up
	// (greedy) matcher requires to accept a candidate pair, expressed as a
	// fraction SimNum/SimDen. Default 1/2.
	SimNum, SimDen int
	// EnableTypeGrouping buckets candidate search by node type. Default
	// true.
	EnableTypeGrouping bool
	// EnableDeepLeaves additionally treats statement-level internal nodes
	// as leaves for the ChangeDistiller leaves matcher. Default false.
	EnableDeepLeaves bool
	// StatementLevelIteration switches the leaves matcher's q-gram size
	// from 3 (labels) to 2 and compares serialized text instead of raw
	// labels for statement-level nodes. Default false.
	StatementLevelIteration bool
	// EnableLabelCaching is set by [DiffWithAllOptimizations], but no
	// matcher reads it: label strings are resolved the same way whether or
	// not it is set. Default false.
	EnableLabelCaching bool
	// EnableNgramCaching memoizes a label's q-gram multiset across
	// repeated comparisons within a single matcher phase. Default false.
	EnableNgramCaching bool
	// ReuseQgramObject has the same effect as EnableNgramCaching: either
	// one makes the leaves matcher keep one q-gram multiset cache per gram
	// size for the whole phase. Default false.
	ReuseQgramObject bool
	// EnableLeafCountPrecomputation is set by [DiffWithAllOptimizations],
	// but no matcher reads it: candidate ranking counts descendants the
	// same way whether or not it is set. Default false.
	EnableLeafCountPrecomputation bool
	// UseBinaryHeap selects a binary-heap implementation of the top-down
	// matcher's height-ordered queues over a linear scan. Default true.
	UseBinaryHeap bool
	// UseRangedSimilarity is not read by any matcher: [DescendantOverlap]
	// always scans the contiguous descendant range, whether this is true
	// or false. Default true.
	UseRangedSimilarity bool
	// AncestorSteps is the list of ancestor-chain step sizes the top-down
	// matcher's ambiguity resolution walks when bounding candidate search.
	// Default [2,4,8,16,32].
	AncestorSteps []int
	// Logger receives instrumentation-only debug records (phase
	// boundaries, matcher decisions). Nil means no instrumentation.
	Logger *slog.Logger
}

// Option configures a [Config].
type Option func(*Config)

// DefaultConfig returns the configuration used by [Diff]: the GumTree
// pipeline with every tunable at its documented default.
func DefaultConfig() Config {
	return Config{
		UseLazyDecompression: true,
		CalculateScript:      true,
		LabelSimThreshold:    0.5,
		StructSimThreshold:   0.6,
		SizeThreshold:        1000,
		MinHeight:            2,
		SimNum:               1,
		SimDen:               2,
		EnableTypeGrouping:   true,
		EnableDeepLeaves:     false,
		UseBinaryHeap:        true,
		UseRangedSimilarity:  true,
		AncestorSteps:        []int{2, 4, 8, 16, 32},
	}
}

// baselineConfig returns the ChangeDistiller configuration with every
// optimization flag disabled, used by [DiffBaseline].
func baselineConfig() Config {
	c := DefaultConfig()
	c.UseLazyDecompression = false
	c.EnableTypeGrouping = false
	c.UseBinaryHeap = false
	c.UseRangedSimilarity = false
	return c
}

// allOptimizationsConfig returns the ChangeDistiller configuration with
// every optimization flag enabled, used by [DiffWithAllOptimizations].
func allOptimizationsConfig() Config {
	c := DefaultConfig()
	c.EnableLabelCaching = true
	c.EnableNgramCaching = true
	c.EnableDeepLeaves = true
	c.StatementLevelIteration = true
	c.ReuseQgramObject = true
	c.EnableLeafCountPrecomputation = true
	return c
}

// WithLazyDecompression sets UseLazyDecompression.
func WithLazyDecompression(enabled bool) Option {
	return func(c *Config) { c.UseLazyDecompression = enabled }
}

// WithCalculateScript sets CalculateScript.
func WithCalculateScript(enabled bool) Option {
	return func(c *Config) { c.CalculateScript = enabled }
}

// WithLabelSimThreshold sets LabelSimThreshold.
func WithLabelSimThreshold(threshold float64) Option {
	return func(c *Config) { c.LabelSimThreshold = threshold }
}

// WithStructSimThreshold sets StructSimThreshold.
func WithStructSimThreshold(threshold float64) Option {
	return func(c *Config) { c.StructSimThreshold = threshold }
}

// WithSizeThreshold sets SizeThreshold.
func WithSizeThreshold(n int) Option {
	return func(c *Config) { c.SizeThreshold = n }
}

// WithMinHeight sets MinHeight, the subtree height below which the top-down
// matcher stops descending.
func WithMinHeight(n int) Option {
	return func(c *Config) { c.MinHeight = n }
}

// WithSimThreshold sets the Dice acceptance fraction num/den for the
// GumTree bottom-up matcher.
func WithSimThreshold(num, den int) Option {
	return func(c *Config) { c.SimNum, c.SimDen = num, den }
}

// WithTypeGrouping sets EnableTypeGrouping.
func WithTypeGrouping(enabled bool) Option {
	return func(c *Config) { c.EnableTypeGrouping = enabled }
}

// WithDeepLeaves sets EnableDeepLeaves.
func WithDeepLeaves(enabled bool) Option {
	return func(c *Config) { c.EnableDeepLeaves = enabled }
}

// WithStatementLevelIteration sets StatementLevelIteration.
func WithStatementLevelIteration(enabled bool) Option {
	return func(c *Config) { c.StatementLevelIteration = enabled }
}

// WithAncestorSteps overrides the ancestor-chain step sizes used by the
// top-down matcher's ambiguity resolution. The slice is used as given, in
// order; pass a sorted ascending slice.
func WithAncestorSteps(steps []int) Option {
	return func(c *Config) { c.AncestorSteps = steps }
}

// WithLogger attaches a [slog.Logger] for instrumentation-only debug
// records. Pass nil to disable instrumentation (the default).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func (c *Config) logDebug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c *Config) simThreshold() float64 {
	if c.SimDen == 0 {
		return 0.5
	}
	return float64(c.SimNum) / float64(c.SimDen)
}
