// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

// Package hyperdiff computes a node mapping and an edit script between two
// subtrees of an externally owned hyper-AST forest. The package never parses
// source code, never persists anything, and never talks to the network: it
// is a pure function from a pair of root identifiers to a mapping and an
// ordered list of actions.
package hyperdiff

// LabelID identifies a label string stored in a [LabelStore]. It is opaque
// to the core: the only operation ever performed on it is a round trip
// through [LabelStore.Resolve].
type LabelID uint32

// Type is the hyper-AST's node-kind classifier. It must be comparable (two
// nodes of the same kind compare equal) and know whether it denotes a
// "statement" level construct, which the ChangeDistiller pipeline uses to
// optionally widen leaf enumeration to statement-level internal nodes
// when EnableDeepLeaves is set.
//
// Type is a constraint-only interface: because it embeds comparable
// alongside a method, it can only be used as a generic type parameter's
// constraint, never as an ordinary variable type. Every exported type in
// this package that deals with node kinds is therefore generic over a type
// parameter Ty Type, following the curiously-recursive-constraint idiom
// used throughout rogpeppe/generic (e.g. its Equaler[T]/Set[self, elem]).
type Type interface {
	comparable
	IsStatement() bool
}

// NodeView is a read-only view of a single hyper-AST node, as returned by
// [NodeStore.Resolve]. Implementations must be cheap and side-effect free;
// the core may call these methods once per decompression or many times,
// depending on whether eager or lazy decompression is configured.
type NodeView[IdN comparable] interface {
	// TryGetLabel returns the node's label, if it has one (leaves with a
	// textual value - identifiers, literals - typically do; most internal
	// nodes don't).
	TryGetLabel() (LabelID, bool)
	// HasChildren reports whether Children returns a non-empty slice.
	HasChildren() bool
	// Children returns the node's direct children, in source order.
	Children() []IdN
	// Hash returns a content-addressed hash of the subtree rooted at this
	// node. Two nodes with equal Hash are assumed structurally identical
	// (including descendants) for the purpose of the top-down matcher's
	// hash-grouping step; a hash collision does not corrupt the mapping,
	// it only produces a spurious match candidate that downstream
	// similarity checks may reject.
	Hash() uint64
	// Size returns the number of nodes in the subtree rooted at this node,
	// including itself.
	Size() int
}

// NodeStore resolves opaque node identifiers to [NodeView]s.
type NodeStore[IdN comparable] interface {
	Resolve(id IdN) NodeView[IdN]
}

// LabelStore resolves label identifiers to their string content.
type LabelStore interface {
	Resolve(id LabelID) string
}

// HyperAST is the external collaborator this package depends on: an
// immutable, content-addressed forest of nodes. A diff call borrows it for
// the duration of the call and never invokes a mutating operation on it.
type HyperAST[IdN comparable, Ty Type] interface {
	// ResolveType returns the node kind of id.
	ResolveType(id IdN) Ty
	// NodeStore returns the store used to resolve node identifiers.
	NodeStore() NodeStore[IdN]
	// LabelStore returns the store used to resolve label identifiers.
	LabelStore() LabelStore
}
