// Copyright 2017-2020, Square, Inc.

package graph

import (
	serr "github.com/square/taskgraph/errors"
)

// DFS visit marks.
const (
	white = iota // not visited
	gray         // on the current path
	black        // finished
)

// ValidateAcyclic returns CycleError naming the first cycle found, or nil if the
// graph is acyclic. Nodes are visited in insertion order so the reported cycle
// is the same on every run.
func (g *Graph) ValidateAcyclic() error {
	_, err := dfs(g.Order, g.Edges)
	return err
}

// HasCycles returns true iff the graph has at least one cycle in it.
func (g *Graph) HasCycles() bool {
	return g.ValidateAcyclic() != nil
}

// TopologicalSort returns every node id such that each node comes after all of
// its predecessors. Unrelated nodes keep their insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	// Post-order over predecessors emits a node only after everything upstream of it.
	order, err := dfs(g.Order, g.RevEdges)
	if err != nil {
		cerr := err.(serr.CycleError)
		return nil, serr.CycleError{Path: reverse(cerr.Path)}
	}
	return order, nil
}

// dfs walks adj from every root in roots and returns the post-order. A back edge
// to a gray node is a cycle; the returned CycleError holds the path from that
// node around to itself.
func dfs(roots []string, adj map[string][]string) ([]string, error) {
	color := make(map[string]int, len(roots))
	post := make([]string, 0, len(roots))
	path := []string{}

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		path = append(path, id)
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				i := len(path) - 1
				for path[i] != next {
					i--
				}
				cycle := append(append([]string{}, path[i:]...), next)
				return serr.CycleError{Path: cycle}
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		post = append(post, id)
		return nil
	}

	for _, id := range roots {
		if color[id] != white {
			continue
		}
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return post, nil
}

func reverse(ss []string) []string {
	r := make([]string, len(ss))
	for i, s := range ss {
		r[len(ss)-1-i] = s
	}
	return r
}
