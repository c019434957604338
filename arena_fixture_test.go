// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import "strings"

// testID is the IdN used by every fixture tree in this package's tests: a
// plain integer index into a testForest's node slice.
type testID int32

// testKind is the Ty used by every fixture tree. Any kind starting with
// "Stmt" reports true from IsStatement, mirroring how a real hyper-AST
// distinguishes statement-level node kinds from expression/leaf kinds.
type testKind string

func (k testKind) IsStatement() bool { return strings.HasPrefix(string(k), "Stmt") }

type testNode struct {
	kind     testKind
	label    string
	hasLabel bool
	children []testID
}

// testLabels is a trivial bidirectional label interner.
type testLabels struct {
	strs []string
}

func (l *testLabels) intern(s string) LabelID {
	for i, existing := range l.strs {
		if existing == s {
			return LabelID(i)
		}
	}
	l.strs = append(l.strs, s)
	return LabelID(len(l.strs) - 1)
}

func (l *testLabels) Resolve(id LabelID) string { return l.strs[id] }

// testForest is a minimal, hand-built [HyperAST] implementation used to
// exercise the six literal scenarios and every unit test in this package:
// real hyper-ASTs are externally owned and far larger, but every operation
// this package performs on one is captured by this fixture.
type testForest struct {
	nodes  []testNode
	labels *testLabels
}

func newTestForest() *testForest {
	return &testForest{labels: &testLabels{}}
}

// add appends a node and returns its id. Pass label="" for an unlabeled
// node (most internal nodes) or a non-empty string to give it a label.
func (f *testForest) add(kind testKind, label string, hasLabel bool, children ...testID) testID {
	id := testID(len(f.nodes))
	n := testNode{kind: kind, children: children}
	if hasLabel {
		n.label = label
		n.hasLabel = true
	}
	f.nodes = append(f.nodes, n)
	return id
}

// leaf adds an unlabeled leaf (e.g. a punctuation token).
func (f *testForest) leaf(kind testKind) testID {
	return f.add(kind, "", false)
}

// ident adds a labeled leaf (e.g. an identifier or literal).
func (f *testForest) ident(kind, label string) testID {
	return f.add(testKind(kind), label, true)
}

func (f *testForest) ResolveType(id testID) testKind { return f.nodes[id].kind }
func (f *testForest) NodeStore() NodeStore[testID]   { return testStore{f} }
func (f *testForest) LabelStore() LabelStore         { return f.labels }

type testStore struct{ f *testForest }

func (s testStore) Resolve(id testID) NodeView[testID] { return testView{s.f, id} }

type testView struct {
	f  *testForest
	id testID
}

func (v testView) TryGetLabel() (LabelID, bool) {
	n := v.f.nodes[v.id]
	if !n.hasLabel {
		return 0, false
	}
	return v.f.labels.intern(n.label), true
}

func (v testView) HasChildren() bool { return len(v.f.nodes[v.id].children) > 0 }
func (v testView) Children() []testID { return v.f.nodes[v.id].children }

// Hash is a structural content hash: two subtrees that serialize to the
// same string hash equal, the same guarantee a real hyper-AST's
// content-addressed hash gives the top-down matcher.
func (v testView) Hash() uint64 { return fnv64(v.serialize()) }

func (v testView) Size() int {
	size := 1
	for _, c := range v.f.nodes[v.id].children {
		size += testView{v.f, c}.Size()
	}
	return size
}

func (v testView) serialize() string {
	n := v.f.nodes[v.id]
	var b strings.Builder
	b.WriteString(string(n.kind))
	if n.hasLabel {
		b.WriteByte(':')
		b.WriteString(n.label)
	}
	for _, c := range n.children {
		b.WriteByte('(')
		b.WriteString(testView{v.f, c}.serialize())
		b.WriteByte(')')
	}
	return b.String()
}

func fnv64(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

var _ HyperAST[testID, testKind] = (*testForest)(nil)
