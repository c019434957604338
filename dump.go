// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

package hyperdiff

import (
	"cmp"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rogpeppe/generic/mermaid"
)

// dumpSide distinguishes a dumpNode's originating arena; only needed by
// DumpMermaid, never by the matching/script pipeline itself.
type dumpSide byte

const (
	dumpSrc dumpSide = 's'
	dumpDst dumpSide = 'd'
)

type dumpNode struct {
	side dumpSide
	id   IdD
}

type dumpEdge struct {
	from, to dumpNode
	mapping  bool
}

// mappingGraph adapts a [Mapping] to [mermaid.GraphInterface]: both
// decompressed trees as parent-to-child edges, plus one dashed edge per
// linked pair in the mapping store.
type mappingGraph[IdN comparable, Ty Type] struct {
	mapping Mapping[IdN, Ty]
}

// DumpMermaid renders a mapping as a Mermaid flowchart, for offline
// debugging of a diff result. It is instrumentation, not a server surface:
// nothing in this package calls it.
func DumpMermaid[IdN comparable, Ty Type](mapping Mapping[IdN, Ty]) ([]byte, error) {
	g := mappingGraph[IdN, Ty]{mapping: mapping}
	return mermaid.NewGraph[dumpNode, dumpEdge](g).MarshalMermaid()
}

func (g mappingGraph[IdN, Ty]) arena(side dumpSide) Arena[IdN, Ty] {
	if side == dumpSrc {
		return g.mapping.Src
	}
	return g.mapping.Dst
}

func (g mappingGraph[IdN, Ty]) EdgesFrom(n dumpNode) ([]dumpEdge, bool) {
	a := g.arena(n.side)
	if int(n.id) < 0 || int(n.id) >= a.Len() {
		return nil, false
	}
	var edges []dumpEdge
	for _, c := range a.Children(n.id) {
		edges = append(edges, dumpEdge{from: n, to: dumpNode{side: n.side, id: c}})
	}
	if n.side == dumpSrc {
		if d, ok := g.mapping.Store.GetDst(n.id); ok {
			edges = append(edges, dumpEdge{from: n, to: dumpNode{side: dumpDst, id: d}, mapping: true})
		}
	}
	return edges, true
}

func (g mappingGraph[IdN, Ty]) Nodes(e dumpEdge) (from, to dumpNode) {
	return e.from, e.to
}

func (g mappingGraph[IdN, Ty]) CmpNode(n0, n1 dumpNode) int {
	if n0.side != n1.side {
		return cmp.Compare(n0.side, n1.side)
	}
	return cmp.Compare(n0.id, n1.id)
}

func (g mappingGraph[IdN, Ty]) AllNodes() []dumpNode {
	nodes := make([]dumpNode, 0, g.mapping.Src.Len()+g.mapping.Dst.Len())
	for i := 0; i < g.mapping.Src.Len(); i++ {
		nodes = append(nodes, dumpNode{side: dumpSrc, id: IdD(i)})
	}
	for i := 0; i < g.mapping.Dst.Len(); i++ {
		nodes = append(nodes, dumpNode{side: dumpDst, id: IdD(i)})
	}
	return nodes
}

func (g mappingGraph[IdN, Ty]) NodeInfo(n dumpNode) mermaid.NodeInfo {
	a := g.arena(n.side)
	id := fmt.Sprintf("%c%d", n.side, n.id)
	text := fmt.Sprintf("%v", a.Type(n.id))

	mapped := g.mapping.Store.IsSrc(n.id)
	if n.side == dumpDst {
		mapped = g.mapping.Store.IsDst(n.id)
	}
	style := ""
	if !mapped {
		style = "stroke-dasharray: 3 3"
	}
	return mermaid.NodeInfo{ID: id, Text: text, Style: style}
}

// formatLabelDiff renders a unified diff between an Update or MoveUpdate
// action's old and new labels, for debug output alongside [DumpMermaid].
// Labels are ordinary short strings, not source files, so Context is kept
// at zero: the whole of each side is relevant.
func formatLabelDiff(oldLabel, newLabel string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldLabel),
		B:        difflib.SplitLines(newLabel),
		FromFile: "old",
		ToFile:   "new",
		Context:  0,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// FormatActionDiff renders a human-readable, one-line-per-action summary of
// an edit script, with a unified label diff appended to Update and
// MoveUpdate entries.
func FormatActionDiff[IdN comparable](actions ActionsVec[IdN]) (string, error) {
	var lines []string
	for _, act := range actions {
		switch a := act.(type) {
		case Insert[IdN]:
			lines = append(lines, fmt.Sprintf("insert %v at %d", a.Sub, a.Idx))
		case Delete[IdN]:
			lines = append(lines, fmt.Sprintf("delete %v", a.Tree))
		case Move[IdN]:
			lines = append(lines, fmt.Sprintf("move %v to %d", a.Sub, a.Idx))
		case Update[IdN]:
			d, err := formatLabelDiff(a.OldLabel, a.NewLabel)
			if err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("update %v\n%s", a.Src, d))
		case MoveUpdate[IdN]:
			d, err := formatLabelDiff(a.OldLabel, a.NewLabel)
			if err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("move+update %v to %d\n%s", a.Sub, a.Idx, d))
		}
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out, nil
}
