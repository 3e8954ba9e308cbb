// Copyright 2020, Square, Inc.

package graph

import (
	"sort"
)

// Surface is the entry and exit node sets of a graph. A parent graph attaches
// its own edges to an embedded graph only through these two sets.
type Surface struct {
	Upstream   []string // nodes with no predecessors
	Downstream []string // nodes with no successors
}

// UpstreamSurface returns the ids of nodes with no predecessors, sorted.
// Call it after lifecycle resolution: injected create nodes usually join it.
func UpstreamSurface(g *Graph) []string {
	return surface(g, g.RevEdges)
}

// DownstreamSurface returns the ids of nodes with no successors, sorted.
// Injected destroy and sentinel nodes usually join it.
func DownstreamSurface(g *Graph) []string {
	return surface(g, g.Edges)
}

// Surfaces computes both surfaces of the current graph.
func Surfaces(g *Graph) Surface {
	return Surface{
		Upstream:   UpstreamSurface(g),
		Downstream: DownstreamSurface(g),
	}
}

func surface(g *Graph, adj map[string][]string) []string {
	ids := []string{}
	for _, id := range g.Order {
		if len(adj[id]) == 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
