// Copyright 2017-2020, Square, Inc.

// Package proto provides API message structures and constants, and the
// conversion of resolved graphs and resolution errors into them.
package proto

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/grapher"
)

// Node represents one node of a resolved graph.
type Node struct {
	Id         string                 `json:"id"`                  // unique within the graph
	Name       string                 `json:"name"`                // declared name
	Type       string                 `json:"type"`                // operator type
	Kind       string                 `json:"kind"`                // KIND_* const
	Config     map[string]interface{} `json:"config,omitempty"`    // type-specific payload
	Resources  []string               `json:"resources,omitempty"` // required resources
	Args       []graph.InjectedArg    `json:"args,omitempty"`      // resource-provided args
	Resource   string                 `json:"resource,omitempty"`  // owning resource of create, destroy, sentinel nodes
	Path       []string               `json:"path"`                // reference path of the declaring scope
	Upstream   []string               `json:"upstream"`            // direct predecessors
	Downstream []string               `json:"downstream"`          // direct successors
}

// Edge represents one dependency From -> To.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Resource  string `json:"resource,omitempty"`  // set if injected for a resource
	Embedding string `json:"embedding,omitempty"` // set if wiring an embedded graph
}

// Surface is the entry and exit node sets of a graph.
type Surface struct {
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// Embedding represents a generator: a DAG embedded into the graph.
type Embedding struct {
	Key      string                 `json:"key"`    // reference path joined with "."
	Name     string                 `json:"name"`   // generator name
	Path     []string               `json:"path"`   // reference path
	Target   string                 `json:"target"` // embedded DAG
	Referrer string                 `json:"referrer"`
	Config   map[string]interface{} `json:"config,omitempty"`
	Surface  Surface                `json:"surface"`
	Nodes    []string               `json:"nodes"`
}

// Graph represents a resolved DAG. Nodes are in topological order.
type Graph struct {
	Name       string      `json:"name"`
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
	Surface    Surface     `json:"surface"`
	Embeddings []Embedding `json:"embeddings,omitempty"`
	Elided     []string    `json:"elided,omitempty"` // resources nothing requires
}

// DagList is the response listing the loaded DAGs.
type DagList struct {
	Dags []string `json:"dags"`
}

// Version is the response of the version endpoint.
type Version struct {
	Version string `json:"version"`
}

// NewGraph converts a resolution result to its API form. The conversion is
// deterministic: the same result always yields the same Graph.
func NewGraph(r *grapher.Result) (Graph, error) {
	g := r.Graph
	order, err := g.TopologicalSort()
	if err != nil {
		return Graph{}, err
	}

	pg := Graph{
		Name:       g.Name,
		Nodes:      make([]Node, 0, len(order)),
		Edges:      make([]Edge, 0, len(g.Edges)),
		Surface:    Surface{Upstream: r.Surface.Upstream, Downstream: r.Surface.Downstream},
		Embeddings: make([]Embedding, 0, len(g.Embeddings)),
		Elided:     r.Elided,
	}
	for _, id := range order {
		n := g.Nodes[id]
		pg.Nodes = append(pg.Nodes, Node{
			Id:         n.Id,
			Name:       n.Name,
			Type:       n.Type,
			Kind:       string(n.Kind),
			Config:     n.Config,
			Resources:  n.Resources,
			Args:       n.Args,
			Resource:   n.Resource,
			Path:       n.Path,
			Upstream:   g.Upstream(id),
			Downstream: g.Downstream(id),
		})
	}
	for _, e := range g.EdgeList() {
		pg.Edges = append(pg.Edges, Edge{From: e.From, To: e.To, Resource: e.Resource, Embedding: e.Embedding})
	}
	for _, emb := range g.Embeddings {
		pg.Embeddings = append(pg.Embeddings, Embedding{
			Key:      emb.Key(),
			Name:     emb.Name,
			Path:     emb.Path,
			Target:   emb.Target,
			Referrer: emb.Referrer,
			Config:   emb.Config,
			Surface:  Surface{Upstream: emb.Upstream, Downstream: emb.Downstream},
			Nodes:    emb.Nodes,
		})
	}
	return pg, nil
}

// Filter returns a copy of g holding only the nodes of kind, and only the edges
// between those nodes. An empty kind returns g unchanged.
func (g Graph) Filter(kind string) Graph {
	if kind == "" {
		return g
	}
	keep := map[string]bool{}
	nodes := []Node{}
	for _, n := range g.Nodes {
		if n.Kind == kind {
			keep[n.Id] = true
			nodes = append(nodes, n)
		}
	}
	edges := []Edge{}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			edges = append(edges, e)
		}
	}
	g.Nodes = nodes
	g.Edges = edges
	return g
}

// GraphFilter represents optional query params for the graph endpoint.
type GraphFilter struct {
	Kind string // KIND_* const, only nodes of this kind
}

// String returns the query string, including the leading "?", or "" if no
// filter is set.
func (f GraphFilter) String() string {
	params := []string{}
	if f.Kind != "" {
		params = append(params, "kind="+url.QueryEscape(strings.ToLower(f.Kind)))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + strings.Join(params, "&")
}

// Validate returns an error if the filter names an unknown kind.
func (f GraphFilter) Validate() error {
	if f.Kind != "" && !KindValue[strings.ToLower(f.Kind)] {
		return fmt.Errorf("invalid kind %q, expected operator, create, destroy, or sentinel", f.Kind)
	}
	return nil
}

// Error is the standard response for all handled errors. Client errors (HTTP 400
// codes) and resolution errors (HTTP 422) are returned as an Error. Nodes lists
// the node ids, resources, or DAG names the error is about, if any.
type Error struct {
	Type       string   `json:"type"`            // ERR_* const
	Message    string   `json:"message"`         // human-readable and loggable error message
	Nodes      []string `json:"nodes,omitempty"` // entities that caused the error
	RequestId  string   `json:"requestId"`       // X-Request-Id of the failed request
	HTTPStatus int      `json:"httpStatus"`      // HTTP status code
}

func NewError(msgFmt string, msgArgs ...interface{}) Error {
	e := Error{Type: ERR_UNKNOWN}
	if msgFmt != "" {
		e.Message = fmt.Sprintf(msgFmt, msgArgs...)
	}
	return e
}

// NewResolveError converts a resolution error into an Error, setting Type and
// Nodes from the error. Errors that are not resolution errors get ERR_UNKNOWN.
func NewResolveError(err error) Error {
	e := Error{Type: ERR_UNKNOWN, Message: err.Error()}

	var (
		dup      serr.DuplicateNodeError
		node     serr.UnknownNodeError
		res      serr.UnknownResourceError
		conflict serr.ResolutionConflictError
		cycle    serr.CycleError
		emb      serr.InvalidEmbeddingError
		spec     serr.InvalidResourceSpecError
		dag      serr.UnknownDagError
	)
	switch {
	case errors.As(err, &dup):
		e.Type, e.Nodes = ERR_DUPLICATE_NODE, []string{dup.Node}
	case errors.As(err, &node):
		e.Type, e.Nodes = ERR_UNKNOWN_NODE, nonEmpty(node.Node, node.Referrer)
	case errors.As(err, &res):
		e.Type, e.Nodes = ERR_UNKNOWN_RESOURCE, nonEmpty(res.Resource, res.Node)
	case errors.As(err, &conflict):
		e.Type, e.Nodes = ERR_CONFLICT, []string{conflict.Identity}
	case errors.As(err, &cycle):
		e.Type, e.Nodes = ERR_CYCLE, cycle.Path
	case errors.As(err, &emb):
		e.Type, e.Nodes = ERR_INVALID_EMBEDDING, emb.Path
	case errors.As(err, &spec):
		e.Type, e.Nodes = ERR_INVALID_RESOURCE, nonEmpty(spec.Resource)
	case errors.As(err, &dag):
		e.Type, e.Nodes = ERR_UNKNOWN_DAG, nonEmpty(dag.Dag, dag.Referrer)
	}
	return e
}

func (e Error) String() string {
	return e.Message
}

func (e Error) Error() string {
	return e.Message
}

func nonEmpty(ss ...string) []string {
	r := []string{}
	for _, s := range ss {
		if s != "" {
			r = append(r, s)
		}
	}
	return r
}
