// Copyright 2020, Square, Inc.

// Package lifecycle rewrites a graph so that every resource a node requires is
// backed by explicit create and destroy nodes. One create node is shared by all
// consumers of a resource in a scope. Teardown waits for every consumer, either
// directly or through a sentinel node that merges the consumers into one edge.
package lifecycle

import (
	log "github.com/sirupsen/logrus"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/id"
	"github.com/square/taskgraph/resource"
)

// SentinelOperatorType is the operator type of injected sentinel nodes. The
// renderer emits a no-op task for it.
const SentinelOperatorType = "sentinel"

// Instance binds a resource to the nodes injected for it in one scope.
// Nodes are referenced by id only.
type Instance struct {
	Resource  string
	Create    string
	Destroy   string   // empty if the resource has no destroy operator type
	Sentinel  string   // empty if no sentinel was needed
	Consumers []string // declaration order
}

// Result describes what Resolve injected.
type Result struct {
	Instances []*Instance // first-use order
	Elided    []string    // declared resources nothing requires
}

// Instance returns the instance of resource, if any node required it.
func (r *Result) Instance(resource string) (*Instance, bool) {
	for _, inst := range r.Instances {
		if inst.Resource == resource {
			return inst, true
		}
	}
	return nil, false
}

// Resolver injects resource nodes for one scope.
type Resolver struct {
	registry *resource.Registry
	namer    *id.Namer
	logger   *log.Entry
}

func NewResolver(registry *resource.Registry, namer *id.Namer, logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Resolver{
		registry: registry,
		namer:    namer,
		logger:   logger,
	}
}

// Resolve walks consumers (ids of declared nodes, in declaration order) and
// injects create, sentinel, and destroy nodes into g for every resource they
// require. refPath is the reference path of the scope; injected ids are
// qualified by it. The graph is checked for cycles after the create batch and
// after the teardown batch. Any error aborts the pass.
func (r *Resolver) Resolve(g *graph.Graph, refPath []string, consumers []string) (*Result, error) {
	res := &Result{
		Instances: []*Instance{},
		Elided:    []string{},
	}
	byName := map[string]*Instance{}

	for _, nodeId := range consumers {
		n, ok := g.Node(nodeId)
		if !ok {
			return nil, serr.UnknownNodeError{Node: nodeId}
		}
		seen := map[string]bool{}
		for _, name := range n.Resources {
			if seen[name] {
				continue
			}
			seen[name] = true

			spec, err := r.registry.Lookup(name)
			if err != nil {
				return nil, serr.UnknownResourceError{Resource: name, Node: nodeId}
			}

			inst, ok := byName[name]
			if !ok {
				inst, err = r.create(g, refPath, spec)
				if err != nil {
					return nil, err
				}
				byName[name] = inst
				res.Instances = append(res.Instances, inst)
			}
			if err := g.AddResourceEdge(inst.Create, nodeId, name); err != nil {
				return nil, err
			}
			inst.Consumers = append(inst.Consumers, nodeId)
			injectArgs(n, spec, inst.Create)
		}
	}
	if err := g.ValidateAcyclic(); err != nil {
		return nil, err
	}

	for _, inst := range res.Instances {
		spec, err := r.registry.Lookup(inst.Resource)
		if err != nil {
			return nil, err
		}
		if err := r.teardown(g, refPath, spec, inst); err != nil {
			return nil, err
		}
	}
	if err := g.ValidateAcyclic(); err != nil {
		return nil, err
	}

	for _, name := range r.registry.Names() {
		if _, ok := byName[name]; ok {
			continue
		}
		res.Elided = append(res.Elided, name)
		r.logger.WithField("resource", name).Warn("resource declared but not required by any node; no nodes injected")
	}

	return res, nil
}

// create injects the create node of spec.
func (r *Resolver) create(g *graph.Graph, refPath []string, spec resource.Spec) (*Instance, error) {
	n := r.resourceNode(refPath, spec, id.RoleCreate, spec.CreateOperatorType, graph.KindCreate)
	if err := r.add(g, n); err != nil {
		return nil, err
	}
	r.logger.WithFields(log.Fields{"resource": spec.Name, "node": n.Id}).Debug("injected create node")
	return &Instance{
		Resource:  spec.Name,
		Create:    n.Id,
		Consumers: []string{},
	}, nil
}

// teardown injects the destroy node of inst, and a sentinel unless the single
// consumer can precede destroy directly.
func (r *Resolver) teardown(g *graph.Graph, refPath []string, spec resource.Spec, inst *Instance) error {
	if !spec.HasDestroy() {
		return nil
	}
	logger := r.logger.WithField("resource", spec.Name)

	upstream := inst.Consumers
	var sentinel *graph.Node
	if len(inst.Consumers) > 1 || !spec.DisableSentinelNode {
		sentinel = r.resourceNode(refPath, spec, id.RoleSentinel, SentinelOperatorType, graph.KindSentinel)
		sentinel.Config = map[string]interface{}{}
		if err := r.add(g, sentinel); err != nil {
			return err
		}
		for _, c := range inst.Consumers {
			if err := g.AddResourceEdge(c, sentinel.Id, spec.Name); err != nil {
				return err
			}
		}
		inst.Sentinel = sentinel.Id
		upstream = []string{sentinel.Id}
		logger.WithFields(log.Fields{"node": sentinel.Id, "consumers": len(inst.Consumers)}).Debug("injected sentinel node")
	}

	destroy := r.resourceNode(refPath, spec, id.RoleDestroy, spec.DestroyOperatorType, graph.KindDestroy)
	if err := r.add(g, destroy); err != nil {
		return err
	}
	for _, u := range upstream {
		if err := g.AddResourceEdge(u, destroy.Id, spec.Name); err != nil {
			return err
		}
	}
	inst.Destroy = destroy.Id
	logger.WithField("node", destroy.Id).Debug("injected destroy node")
	return nil
}

func (r *Resolver) resourceNode(refPath []string, spec resource.Spec, role id.Role, opType string, kind graph.Kind) *graph.Node {
	return &graph.Node{
		Id:       id.ResourceNode(id.Scoped(refPath), spec.Name, role),
		Name:     spec.Name + "-" + string(role),
		Type:     opType,
		Kind:     kind,
		Config:   copyConfig(spec.Properties),
		Resource: spec.Name,
		Path:     append([]string{}, refPath...),
	}
}

// add claims n's identity for its resource and adds it to g. An identity that
// already names a node is a conflict between that node's owner and the resource.
func (r *Resolver) add(g *graph.Graph, n *graph.Node) error {
	owner := id.ResourceOwner(id.Qualified(n.Path, n.Resource))
	if err := r.namer.Claim(n.Id, owner); err != nil {
		return err
	}
	if _, ok := g.Node(n.Id); ok {
		return serr.ResolutionConflictError{Identity: n.Id, Owner: "node " + n.Id, Claimant: owner}
	}
	return g.AddNode(n)
}

// injectArgs records the args spec provides to consumer n. When n does not set
// an arg itself and the resource properties define it, the value is copied.
func injectArgs(n *graph.Node, spec resource.Spec, createId string) {
	for _, arg := range spec.ProvidesArgs {
		n.Args = append(n.Args, graph.InjectedArg{Name: arg, Resource: spec.Name, From: createId})
		if _, ok := n.Config[arg]; ok {
			continue
		}
		v, ok := spec.Properties[arg]
		if !ok {
			continue
		}
		if n.Config == nil {
			n.Config = map[string]interface{}{}
		}
		n.Config[arg] = v
	}
}

func copyConfig(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
