// Copyright 2020, Square, Inc.

package builder

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/grapher"
)

const indentUnit = "    "

// Render writes r as Python task definitions: the primary preamble, the nodes
// of each scope in topological order with generators nested as task groups,
// the dependencies in edge order, and the primary epilogue. The output depends
// only on r, so rendering the same result twice gives the same bytes. Nothing
// is written to w if rendering fails.
func Render(w io.Writer, r *grapher.Result) error {
	g := r.Graph
	order, err := g.TopologicalSort()
	if err != nil {
		return err
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}

	vars := map[string]string{} // var -> node id
	byScope := map[string][]*graph.Node{}
	for _, id := range g.Order {
		v := varName(id)
		if other, ok := vars[v]; ok {
			return fmt.Errorf("nodes %s and %s render to the same variable %s", other, id, v)
		}
		vars[v] = id
		n := g.Nodes[id]
		k := pathKey(n.Path)
		byScope[k] = append(byScope[k], n)
	}
	for _, nodes := range byScope {
		sort.Slice(nodes, func(i, j int) bool { return rank[nodes[i].Id] < rank[nodes[j].Id] })
	}

	rr := &renderer{g: g, byScope: byScope}
	primary := PrimaryBuilder{Name: g.Name}
	if err := rr.fragment(0, primary.Preamble); err != nil {
		return err
	}
	if err := rr.scope(r.Scope, 0); err != nil {
		return err
	}

	rr.buf.WriteString("\n# dependencies\n")
	for _, e := range g.EdgeList() {
		fmt.Fprintf(&rr.buf, "%s >> %s", varName(e.From), varName(e.To))
		switch {
		case e.Resource != "":
			fmt.Fprintf(&rr.buf, "  # resource %s", e.Resource)
		case e.Embedding != "":
			fmt.Fprintf(&rr.buf, "  # generator %s", e.Embedding)
		}
		rr.buf.WriteString("\n")
	}
	rr.buf.WriteString("\n")
	if err := rr.fragment(0, primary.Epilogue); err != nil {
		return err
	}

	_, err = w.Write(rr.buf.Bytes())
	return err
}

type renderer struct {
	g       *graph.Graph
	byScope map[string][]*graph.Node
	buf     bytes.Buffer
}

func (rr *renderer) scope(s *grapher.Scope, depth int) error {
	nodes := rr.byScope[pathKey(s.Path)]
	if len(nodes) == 0 && len(s.Children) == 0 {
		rr.buf.WriteString(indent("pass\n", depth))
		return nil
	}
	for _, n := range nodes {
		nb := NodeBuilder{
			Node:       n,
			Upstream:   rr.g.Upstream(n.Id),
			Downstream: rr.g.Downstream(n.Id),
		}
		rr.buf.WriteString("\n")
		if err := rr.fragment(depth, nb.Build); err != nil {
			return err
		}
	}
	for _, child := range s.Children {
		gb := GeneratorBuilder{Embedding: child.Embedding}
		rr.buf.WriteString("\n")
		if err := rr.fragment(depth, gb.Preamble); err != nil {
			return err
		}
		if err := rr.scope(child, depth+1); err != nil {
			return err
		}
		if err := rr.fragment(depth, gb.Epilogue); err != nil {
			return err
		}
	}
	return nil
}

func (rr *renderer) fragment(depth int, build func() (string, error)) error {
	s, err := build()
	if err != nil {
		return err
	}
	rr.buf.WriteString(indent(s, depth))
	return nil
}

// indent prefixes every non-empty line of s with depth indent units.
func indent(s string, depth int) string {
	if depth == 0 {
		return s
	}
	prefix := strings.Repeat(indentUnit, depth)
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "")
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}
