// Copyright 2017-2020, Square, Inc.

// Package graph provides the task graph produced by resolving a workflow spec:
// nodes, directed edges, acyclicity checks, topological order, surfaces, and the
// embedding of one resolved graph into another.
//
// A Graph is built and mutated by a single resolution pass. Once the pass calls
// MarkResolved, every write returns ErrResolved.
package graph

import (
	"errors"
	"fmt"

	serr "github.com/square/taskgraph/errors"
)

var (
	ErrResolved = errors.New("graph is resolved and cannot be modified")
	ErrNoId     = errors.New("node has no id")
)

// Kind is the category of a node. Operator nodes are declared by the author;
// the others are injected by lifecycle resolution.
type Kind string

const (
	KindOperator Kind = "operator"
	KindCreate   Kind = "create"
	KindDestroy  Kind = "destroy"
	KindSentinel Kind = "sentinel"
)

// InjectedArg is an argument a resource's create step provides to a consumer.
type InjectedArg struct {
	Name     string `json:"name"`     // from the resource's provides_args
	Resource string `json:"resource"` // resource providing the arg
	From     string `json:"from"`     // id of the create node
}

// Node is a single unit of generated work.
type Node struct {
	Id        string                 // unique within the graph
	Name      string                 // declared (or derived) name
	Type      string                 // operator type tag
	Kind      Kind                   // operator, create, destroy, sentinel
	Config    map[string]interface{} // type-specific payload
	Resources []string               // resources the node requires, declaration order
	Args      []InjectedArg          // args injected by resources
	Resource  string                 // owning resource of create/destroy/sentinel nodes
	Path      []string               // reference path of the scope that declared the node
}

// Edge is a directed dependency From -> To. Resource is set when lifecycle
// resolution injected the edge for that resource; Embedding is set when the
// edge wires an embedded graph's surface. Both are empty for author-declared edges.
type Edge struct {
	From      string
	To        string
	Resource  string
	Embedding string
}

type edgeKey struct {
	from, to string
}

// Graph represents a task graph via Nodes, a map of node id -> Node, and Edges,
// an adjacency list. RevEdges mirrors Edges. Order records node insertion order,
// which is the only ordering the graph imposes beyond its edges.
type Graph struct {
	Name       string              // Name of the graph, usually the DAG name
	Nodes      map[string]*Node    // All nodes in the graph (node id -> node)
	Order      []string            // Node ids in insertion order
	Edges      map[string][]string // All edges (upstream id -> downstream ids)
	RevEdges   map[string][]string // All edges reversed (downstream id -> upstream ids)
	Embeddings []*Embedding        // Graphs embedded into this one, innermost first

	annotations map[edgeKey]Edge
	resolved    bool
}

func New(name string) *Graph {
	return &Graph{
		Name:        name,
		Nodes:       map[string]*Node{},
		Order:       []string{},
		Edges:       map[string][]string{},
		RevEdges:    map[string][]string{},
		annotations: map[edgeKey]Edge{},
	}
}

// AddNode adds n to the graph. It returns DuplicateNodeError if a node with the
// same id exists.
func (g *Graph) AddNode(n *Node) error {
	if g.resolved {
		return ErrResolved
	}
	if n.Id == "" {
		return ErrNoId
	}
	if _, ok := g.Nodes[n.Id]; ok {
		return serr.DuplicateNodeError{Node: n.Id}
	}
	g.Nodes[n.Id] = n
	g.Order = append(g.Order, n.Id)
	return nil
}

// AddEdge adds an author-declared edge from -> to. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(from, to string) error {
	return g.addEdge(Edge{From: from, To: to})
}

// AddResourceEdge adds an edge injected for resource.
func (g *Graph) AddResourceEdge(from, to, resource string) error {
	return g.addEdge(Edge{From: from, To: to, Resource: resource})
}

// AddEmbeddingEdge adds an edge that wires the embedding named by key (see
// Embedding.Key) to another node of the graph.
func (g *Graph) AddEmbeddingEdge(from, to, key string) error {
	return g.addEdge(Edge{From: from, To: to, Embedding: key})
}

func (g *Graph) addEdge(e Edge) error {
	if g.resolved {
		return ErrResolved
	}
	if _, ok := g.Nodes[e.From]; !ok {
		return serr.UnknownNodeError{Node: e.From, Referrer: e.To}
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return serr.UnknownNodeError{Node: e.To, Referrer: e.From}
	}
	if e.From == e.To {
		return serr.CycleError{Path: []string{e.From, e.To}}
	}
	k := edgeKey{e.From, e.To}
	if _, ok := g.annotations[k]; ok {
		return nil // first annotation wins
	}
	g.annotations[k] = e
	g.Edges[e.From] = append(g.Edges[e.From], e.To)
	g.RevEdges[e.To] = append(g.RevEdges[e.To], e.From)
	return nil
}

// Edge returns the edge from -> to and whether it exists.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.annotations[edgeKey{from, to}]
	return e, ok
}

// EdgeList returns every edge, ordered by upstream node insertion order and then
// by the order the edges were added.
func (g *Graph) EdgeList() []Edge {
	edges := make([]Edge, 0, len(g.annotations))
	for _, from := range g.Order {
		for _, to := range g.Edges[from] {
			edges = append(edges, g.annotations[edgeKey{from, to}])
		}
	}
	return edges
}

// Node returns the node with id and whether it exists.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Upstream returns the ids of the direct predecessors of id.
func (g *Graph) Upstream(id string) []string {
	return append([]string{}, g.RevEdges[id]...)
}

// Downstream returns the ids of the direct successors of id.
func (g *Graph) Downstream(id string) []string {
	return append([]string{}, g.Edges[id]...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Order)
}

// MarkResolved freezes the graph.
func (g *Graph) MarkResolved() {
	g.resolved = true
}

func (g *Graph) Resolved() bool {
	return g.resolved
}

// EdgesMutual returns true iff every edge in Edges has its mirror in RevEdges
// and vice versa, and every edge endpoint is a node in the graph.
func (g *Graph) EdgesMutual() bool {
	count := 0
	for from, tos := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			return false
		}
		for _, to := range tos {
			if _, ok := g.Nodes[to]; !ok {
				return false
			}
			if find(g.RevEdges[to], from) < 0 {
				return false
			}
			count++
		}
	}
	for to, froms := range g.RevEdges {
		for _, from := range froms {
			if find(g.Edges[from], to) < 0 {
				return false
			}
			count--
		}
	}
	return count == 0 && len(g.annotations) == len(g.EdgeList())
}

func (g *Graph) String() string {
	return fmt.Sprintf("graph %s (%d nodes, %d edges)", g.Name, len(g.Order), len(g.annotations))
}

// returns the index of s in ss, returns -1 if s is not found in ss
func find(ss []string, s string) int {
	for i, j := range ss {
		if j == s {
			return i
		}
	}
	return -1
}
