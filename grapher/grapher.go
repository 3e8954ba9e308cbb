// Copyright 2017-2020, Square, Inc.

package grapher

import (
	"context"
	"fmt"
	"strings"

	"github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/id"
	"github.com/square/taskgraph/lifecycle"
	"github.com/square/taskgraph/resource"
	"github.com/square/taskgraph/spec"
)

// Scope is one node of the resolution tree: the primary DAG or a generator.
type Scope struct {
	Name      string             // generator name, or DAG name for the root
	Path      []string           // reference path, starting with the primary DAG
	Dag       *spec.Dag          // DAG resolved in this scope
	Registry  *resource.Registry // resources of Dag
	Lifecycle *lifecycle.Result  // resource nodes injected in this scope
	Embedding *graph.Embedding   // nil for the root
	Children  []*Scope           // one per generator, declaration order
}

// Walk calls f for s and every scope below it, depth first.
func (s *Scope) Walk(f func(*Scope)) {
	f(s)
	for _, c := range s.Children {
		c.Walk(f)
	}
}

// Result is a resolved DAG.
type Result struct {
	Graph   *graph.Graph
	Surface graph.Surface
	Scope   *Scope
	Elided  []string // resources nothing requires, qualified by generator path
}

// Grapher resolves DAGs from a set of specs. It is safe for concurrent use:
// specs are only read, and every resolution builds its own graph.
type Grapher struct {
	specs  spec.Specs
	logger *log.Entry
}

func NewGrapher(specs spec.Specs, logger *log.Entry) *Grapher {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Grapher{
		specs:  specs,
		logger: logger,
	}
}

// Resolve resolves the DAG named dagName and every DAG it embeds.
func (g *Grapher) Resolve(dagName string) (*Result, error) {
	dag, ok := g.specs.Dag(dagName)
	if !ok {
		return nil, serr.UnknownDagError{Dag: dagName}
	}

	r := &resolution{
		specs:  g.specs,
		namer:  id.NewNamer(),
		logger: g.logger.WithField("dag", dagName),
		stack:  []string{},
	}
	gr, scope, err := r.resolve(dag, []string{dagName})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Graph:   gr,
		Surface: graph.Surfaces(gr),
		Scope:   scope,
		Elided:  []string{},
	}
	scope.Walk(func(s *Scope) {
		for _, name := range s.Lifecycle.Elided {
			res.Elided = append(res.Elided, id.Qualified(s.Path, name))
		}
	})

	r.logger.WithFields(log.Fields{
		"nodes":      gr.Len(),
		"embeddings": len(gr.Embeddings),
		"elided":     len(res.Elided),
	}).Info("resolved dag")
	return res, nil
}

// ResolveAll resolves every DAG in names, at most parallelism at a time. Each
// resolution is independent; one failing does not stop the others. It returns
// the results and the errors, both keyed on DAG name. If ctx is cancelled, the
// DAGs not yet started fail with the context error.
func (g *Grapher) ResolveAll(ctx context.Context, names []string, parallelism int) (map[string]*Result, map[string]error) {
	if parallelism < 1 {
		parallelism = 1
	}
	results := NewRepo()
	errs := cmap.New()

	sem := make(chan struct{}, parallelism)
	eg, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs.Set(name, ctx.Err())
				return nil
			}
			defer func() { <-sem }()

			res, err := g.Resolve(name)
			if err != nil {
				g.logger.WithField("dag", name).Errorf("failed to resolve dag: %s", err)
				errs.Set(name, err)
				return nil
			}
			results.Set(name, res)
			return nil
		})
	}
	eg.Wait() // goroutines never return an error

	items, _ := results.Items()
	errMap := map[string]error{}
	for name, v := range errs.Items() {
		errMap[name] = v.(error)
	}
	return items, errMap
}

// --------------------------------------------------------------------------

// resolution is one Resolve call. It is single-threaded and owns every graph
// it builds.
type resolution struct {
	specs  spec.Specs
	namer  *id.Namer
	logger *log.Entry
	stack  []string // DAGs being resolved, outermost first
}

type declaredEdge struct {
	from, to string // declared operator or generator names
}

func (r *resolution) resolve(dag *spec.Dag, path []string) (*graph.Graph, *Scope, error) {
	for _, name := range r.stack {
		if name == dag.Name {
			return nil, nil, serr.InvalidEmbeddingError{
				Path:   path,
				Reason: fmt.Sprintf("dag %s embeds itself (%s -> %s)", dag.Name, strings.Join(r.stack, " -> "), dag.Name),
			}
		}
	}
	r.stack = append(r.stack, dag.Name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	logger := r.logger.WithField("scope", strings.Join(path, id.Separator))
	registry, err := resource.NewRegistry(dag.ResourceSpecs())
	if err != nil {
		return nil, nil, err
	}
	scope := &Scope{
		Name:     path[len(path)-1],
		Path:     path,
		Dag:      dag,
		Registry: registry,
		Children: []*Scope{},
	}
	scoped := id.Scoped(path)
	g := graph.New(dag.Name)

	// Operators
	operators := map[string]string{} // declared name -> node id
	consumers := make([]string, 0, len(dag.Operators))
	for _, op := range dag.Operators {
		nodeId := id.Join(scoped, op.Name)
		if err := r.namer.Claim(nodeId, id.OperatorOwner(id.Qualified(path, op.Name))); err != nil {
			return nil, nil, err
		}
		n := &graph.Node{
			Id:        nodeId,
			Name:      op.Name,
			Type:      op.Type,
			Kind:      graph.KindOperator,
			Config:    copyConfig(op.Properties),
			Resources: append([]string{}, op.RequiresResources...),
			Path:      append([]string{}, path...),
		}
		if err := g.AddNode(n); err != nil {
			return nil, nil, err
		}
		operators[op.Name] = nodeId
		consumers = append(consumers, nodeId)
	}

	// Generators: resolve each target in its own scope
	inner := map[string]*graph.Graph{}
	for _, gen := range dag.Generators {
		genPath := append(append([]string{}, path...), gen.Name)
		if gen.Target == "" {
			return nil, nil, serr.InvalidEmbeddingError{Path: genPath, Reason: "generator has no target"}
		}
		target, ok := r.specs.Dag(gen.Target)
		if !ok {
			return nil, nil, serr.UnknownDagError{Dag: gen.Target, Referrer: id.Qualified(path, gen.Name)}
		}
		prefix := id.Join(scoped, gen.Name)
		if err := r.namer.Claim(prefix, id.GeneratorOwner(id.Qualified(path, gen.Name))); err != nil {
			return nil, nil, err
		}
		if _, ok := inner[gen.Name]; ok {
			return nil, nil, serr.DuplicateNodeError{Node: prefix}
		}
		ig, child, err := r.resolve(target, genPath)
		if err != nil {
			return nil, nil, err
		}
		inner[gen.Name] = ig
		scope.Children = append(scope.Children, child)
	}

	edges, err := declaredEdges(dag, path, operators, inner)
	if err != nil {
		return nil, nil, err
	}

	// Embed generators, wired to the operators they depend on
	embeddings := map[string]*graph.Embedding{}
	for i, gen := range dag.Generators {
		up, down := []string{}, []string{}
		wired := false
		for _, e := range edges {
			if e.from == gen.Name || e.to == gen.Name {
				wired = true
			}
			if e.to == gen.Name {
				if nodeId, ok := operators[e.from]; ok {
					up = append(up, nodeId)
				}
			}
			if e.from == gen.Name {
				if nodeId, ok := operators[e.to]; ok {
					down = append(down, nodeId)
				}
			}
		}
		// An empty graph has no surfaces to carry the declared ordering through
		if wired && inner[gen.Name].Len() == 0 {
			return nil, nil, serr.InvalidEmbeddingError{
				Path:   scope.Children[i].Path,
				Reason: "generator " + gen.Name + " has dependencies but dag " + gen.Target + " resolves to no nodes",
			}
		}
		emb, err := graph.Embed(inner[gen.Name], g, scope.Children[i].Path, up, down)
		if err != nil {
			return nil, nil, err
		}
		emb.Referrer = dag.Name
		emb.Config = copyConfig(gen.Properties)
		scope.Children[i].Embedding = emb
		embeddings[gen.Name] = emb
		logger.WithFields(log.Fields{
			"generator": gen.Name,
			"target":    gen.Target,
			"nodes":     len(emb.Nodes),
		}).Debug("embedded generator")
	}

	// Remaining declared edges: operator -> operator and generator -> generator
	for _, e := range edges {
		fromEmb, fromGen := embeddings[e.from]
		toEmb, toGen := embeddings[e.to]
		switch {
		case !fromGen && !toGen:
			if err := g.AddEdge(operators[e.from], operators[e.to]); err != nil {
				return nil, nil, err
			}
		case fromGen && toGen:
			if e.from == e.to {
				return nil, nil, serr.CycleError{Path: []string{fromEmb.Key(), toEmb.Key()}}
			}
			for _, x := range fromEmb.Downstream {
				for _, y := range toEmb.Upstream {
					if err := g.AddEmbeddingEdge(x, y, toEmb.Key()); err != nil {
						return nil, nil, err
					}
				}
			}
		}
	}
	if err := g.ValidateAcyclic(); err != nil {
		return nil, nil, err
	}

	// Resources
	lr, err := lifecycle.NewResolver(registry, r.namer, logger).Resolve(g, path, consumers)
	if err != nil {
		return nil, nil, err
	}
	scope.Lifecycle = lr

	g.MarkResolved()
	logger.WithFields(log.Fields{"nodes": g.Len(), "resources": len(lr.Instances)}).Debug("resolved scope")
	return g, scope, nil
}

// declaredEdges returns every declared dependency as an edge between declared
// names, in declaration order: operators first, then generators; upstream
// dependencies before downstream ones. Duplicates are dropped.
func declaredEdges(dag *spec.Dag, path []string, operators map[string]string, generators map[string]*graph.Graph) ([]declaredEdge, error) {
	edges := []declaredEdge{}
	seen := map[declaredEdge]bool{}
	add := func(referrer, from, to string) error {
		for _, name := range []string{from, to} {
			_, isOp := operators[name]
			_, isGen := generators[name]
			if !isOp && !isGen {
				return serr.UnknownNodeError{Node: name, Referrer: id.Qualified(path, referrer)}
			}
		}
		e := declaredEdge{from, to}
		if !seen[e] {
			seen[e] = true
			edges = append(edges, e)
		}
		return nil
	}

	type decl struct {
		name       string
		upstream   []string
		downstream []string
	}
	decls := make([]decl, 0, len(dag.Operators)+len(dag.Generators))
	for _, op := range dag.Operators {
		decls = append(decls, decl{op.Name, op.UpstreamDependencies, op.DownstreamDependencies})
	}
	for _, gen := range dag.Generators {
		decls = append(decls, decl{gen.Name, gen.UpstreamDependencies, gen.DownstreamDependencies})
	}
	for _, d := range decls {
		for _, up := range d.upstream {
			if err := add(d.name, up, d.name); err != nil {
				return nil, err
			}
		}
		for _, down := range d.downstream {
			if err := add(d.name, d.name, down); err != nil {
				return nil, err
			}
		}
	}
	return edges, nil
}

func copyConfig(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
