// Copyright 2017-2020, Square, Inc.

package graph

import (
	"fmt"
	"io"
)

var kindColor = map[Kind]string{
	KindOperator: "#86cedf",
	KindCreate:   "#9fdf86",
	KindDestroy:  "#df9f86",
	KindSentinel: "#d3d3d3",
}

// WriteDot writes g in DOT graph format. Nodes and edges are written in
// insertion order so the output is stable. Embedded graphs are drawn as clusters.
func (g *Graph) WriteDot(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("digraph {\n")
	ew.printf("\trankdir=UD;\n")
	ew.printf("\tlabelloc=\"t\";\n")
	ew.printf("\tlabel=\"%s\"\n", g.Name)
	ew.printf("\tfontsize=22\n")

	inCluster := map[string]bool{}
	for i, emb := range g.Embeddings {
		ew.printf("\tsubgraph cluster_%d {\n", i)
		ew.printf("\t\tlabel=\"%s (%s)\"\n", emb.Key(), emb.Target)
		for _, id := range emb.Nodes {
			if !inCluster[id] {
				ew.printf("\t\t\"%s\";\n", id)
				inCluster[id] = true
			}
		}
		ew.printf("\t}\n")
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		ew.printf("\t\"%s\" [style=filled,color=\"%s\",shape=box,label=\"%s\\n%s\"];\n",
			id, kindColor[n.Kind], id, n.Type)
	}
	for _, e := range g.EdgeList() {
		switch {
		case e.Resource != "":
			ew.printf("\t\"%s\" -> \"%s\" [style=dashed,tooltip=\"%s\"];\n", e.From, e.To, e.Resource)
		case e.Embedding != "":
			ew.printf("\t\"%s\" -> \"%s\" [style=bold];\n", e.From, e.To)
		default:
			ew.printf("\t\"%s\" -> \"%s\";\n", e.From, e.To)
		}
	}
	ew.printf("}\n")
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
