// Copyright 2020, Square, Inc.

package graph

import (
	"strings"

	serr "github.com/square/taskgraph/errors"
)

// Embedding records a resolved graph wrapped into an outer graph as a generator.
// The renderer uses it to emit the generator's preamble and epilogue.
type Embedding struct {
	Name       string                 // generator name in the outer graph
	Path       []string               // reference path of the embedded graph
	Target     string                 // name of the embedded graph
	Referrer   string                 // node or DAG that declared the generator
	Config     map[string]interface{} // generator properties
	Upstream   []string               // upstream surface of the embedded graph
	Downstream []string               // downstream surface of the embedded graph
	Nodes      []string               // embedded node ids, insertion order
}

// Key returns the path joined with ".", the value stored in Edge.Embedding.
func (e *Embedding) Key() string {
	return strings.Join(e.Path, ".")
}

// Embed copies the resolved graph inner into outer and wires it in through its
// surfaces: every node in externalUp gets an edge to every node in the inner
// upstream surface, and every node in the inner downstream surface gets an edge
// to every node in externalDown. No other edges cross the boundary.
//
// path is the reference path of inner and must have more than one element: a
// graph can only be embedded within an enclosing context. Inner node ids are
// kept as they are, so they must not collide with outer ids.
//
// Nothing is written to outer unless every check passes.
func Embed(inner, outer *Graph, path []string, externalUp, externalDown []string) (*Embedding, error) {
	if len(path) <= 1 {
		return nil, serr.InvalidEmbeddingError{Path: path, Reason: "embedding requires an enclosing context"}
	}
	if !inner.Resolved() {
		return nil, serr.InvalidEmbeddingError{Path: path, Reason: "embedded graph " + inner.Name + " is not resolved"}
	}
	if outer.Resolved() {
		return nil, ErrResolved
	}

	emb := &Embedding{
		Name:       path[len(path)-1],
		Path:       append([]string{}, path...),
		Target:     inner.Name,
		Upstream:   UpstreamSurface(inner),
		Downstream: DownstreamSurface(inner),
		Nodes:      append([]string{}, inner.Order...),
	}
	referrer := emb.Key()

	for _, id := range inner.Order {
		if _, ok := outer.Nodes[id]; ok {
			return nil, serr.DuplicateNodeError{Node: id}
		}
	}
	for _, id := range externalUp {
		if _, ok := outer.Nodes[id]; !ok {
			return nil, serr.UnknownNodeError{Node: id, Referrer: referrer}
		}
	}
	for _, id := range externalDown {
		if _, ok := outer.Nodes[id]; !ok {
			return nil, serr.UnknownNodeError{Node: id, Referrer: referrer}
		}
	}

	for _, id := range inner.Order {
		n := *inner.Nodes[id]
		if err := outer.AddNode(&n); err != nil {
			return nil, err
		}
	}
	for _, e := range inner.EdgeList() {
		if err := outer.addEdge(e); err != nil {
			return nil, err
		}
	}
	for _, up := range externalUp {
		for _, x := range emb.Upstream {
			if err := outer.addEdge(Edge{From: up, To: x, Embedding: referrer}); err != nil {
				return nil, err
			}
		}
	}
	for _, x := range emb.Downstream {
		for _, down := range externalDown {
			if err := outer.addEdge(Edge{From: x, To: down, Embedding: referrer}); err != nil {
				return nil, err
			}
		}
	}

	outer.Embeddings = append(outer.Embeddings, inner.Embeddings...)
	outer.Embeddings = append(outer.Embeddings, emb)
	return emb, nil
}
