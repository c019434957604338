// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"errors"
	"fmt"
)

var (
	// ErrScriptUnreachable is returned by [ComputeActions] when an action
	// was predicated on a mid-arena state the generator could not reach.
	// It is not a fatal error: the mapping half of a [DiffResult] is
	// always valid even when this is returned, only the action list is
	// incomplete.
	ErrScriptUnreachable = errors.New("hyperdiff: no actions available for this mapping")

	// ErrInvariantViolation is the sentinel every [InvariantViolationError]
	// unwraps to.
	ErrInvariantViolation = errors.New("hyperdiff: invariant violation")
)

// InvariantViolationError reports a fatal, unrecoverable inconsistency in
// the decompressed arenas or the mapping store: a malformed hyper-AST whose
// child count changed between two resolutions of the same node, or a
// mapping store observed to violate its own bijectivity guarantee. These
// indicate programmer or hyper-AST error, never input error, and the core
// never attempts to repair them.
type InvariantViolationError struct {
	// Component names the subsystem that detected the violation, e.g.
	// "arena", "mapping".
	Component string
	// Reason is a short, human-readable description of what was observed.
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("hyperdiff: invariant violation in %s: %s", e.Component, e.Reason)
}

// Unwrap returns [ErrInvariantViolation].
func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// invariant panics with an *InvariantViolationError when cond is false. A
// conformant caller is not expected to recover from this: it marks a bug in
// the hyper-AST implementation or in this package, not a recoverable input
// error.
func invariant(component string, cond bool, reason string) {
	if !cond {
		panic(&InvariantViolationError{Component: component, Reason: reason})
	}
}
