// Copyright 2017-2020, Square, Inc.

// Package spec loads and checks DAG spec files. A DAG spec declares the shared
// resources of a workflow, its operators, and its generators: embedded
// sub-workflows that reference another DAG by name.
package spec

import (
	"sort"

	"github.com/square/taskgraph/resource"
)

// ResourceSpec defines the structure expected from the yaml file to define a
// shared resource.
type ResourceSpec struct {
	Name                string                 `yaml:"name"`                  // unique within the DAG
	CreateOperatorType  string                 `yaml:"create_operator_type"`  // operator type of the create node
	DestroyOperatorType string                 `yaml:"destroy_operator_type"` // optional
	ProvidesArgs        []string               `yaml:"provides_args"`         // args injected into every consumer
	DisableSentinelNode bool                   `yaml:"disable_sentinel_node"` // single consumer precedes destroy directly
	Properties          map[string]interface{} `yaml:"properties"`            // payload of the create and destroy nodes
}

// Spec returns the registry form of r.
func (r ResourceSpec) Spec() resource.Spec {
	return resource.Spec{
		Name:                r.Name,
		CreateOperatorType:  r.CreateOperatorType,
		DestroyOperatorType: r.DestroyOperatorType,
		ProvidesArgs:        r.ProvidesArgs,
		DisableSentinelNode: r.DisableSentinelNode,
		Properties:          r.Properties,
	}
}

// OperatorSpec defines the structure expected from the yaml file to define an
// operator, i.e. one unit of generated work.
type OperatorSpec struct {
	Name                   string                 `yaml:"name"`                    // unique within the DAG
	Type                   string                 `yaml:"type"`                    // operator type tag
	RequiresResources      []string               `yaml:"requires_resources"`      // resources this operator consumes
	UpstreamDependencies   []string               `yaml:"upstream_dependencies"`   // nodes that must run before this one
	DownstreamDependencies []string               `yaml:"downstream_dependencies"` // nodes that must run after this one
	Properties             map[string]interface{} `yaml:"properties"`              // type-specific configuration
}

// GeneratorSpec defines the structure expected from the yaml file to define a
// generator: the resolved graph of the target DAG embedded in this one.
type GeneratorSpec struct {
	Name                   string                 `yaml:"name"`
	Target                 string                 `yaml:"target"` // name of the embedded DAG
	UpstreamDependencies   []string               `yaml:"upstream_dependencies"`
	DownstreamDependencies []string               `yaml:"downstream_dependencies"`
	Properties             map[string]interface{} `yaml:"properties"`
}

// Dag is one DAG spec file. Declaration order of every list is significant:
// node identities and edge order in the resolved graph follow it.
type Dag struct {
	Name       string           `yaml:"name"`
	Resources  []*ResourceSpec  `yaml:"resources"`
	Operators  []*OperatorSpec  `yaml:"operators"`
	Generators []*GeneratorSpec `yaml:"generators"`

	File string `yaml:"-"` // file the spec was read from, if any
}

func (d *Dag) Operator(name string) (*OperatorSpec, bool) {
	for _, op := range d.Operators {
		if op.Name == name {
			return op, true
		}
	}
	return nil, false
}

func (d *Dag) Generator(name string) (*GeneratorSpec, bool) {
	for _, gen := range d.Generators {
		if gen.Name == name {
			return gen, true
		}
	}
	return nil, false
}

func (d *Dag) Resource(name string) (*ResourceSpec, bool) {
	for _, r := range d.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// ResourceSpecs returns the registry form of every resource, declaration order.
func (d *Dag) ResourceSpecs() []resource.Spec {
	specs := make([]resource.Spec, 0, len(d.Resources))
	for _, r := range d.Resources {
		specs = append(specs, r.Spec())
	}
	return specs
}

// Specs is every DAG spec loaded from a specs dir or a bundle, keyed on name.
type Specs struct {
	Dags map[string]*Dag
}

func NewSpecs() Specs {
	return Specs{
		Dags: map[string]*Dag{},
	}
}

// Names returns the DAG names, sorted.
func (s Specs) Names() []string {
	names := make([]string, 0, len(s.Dags))
	for name := range s.Dags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Specs) Dag(name string) (*Dag, bool) {
	d, ok := s.Dags[name]
	return d, ok
}

// Bundle is a self-contained set of DAG specs posted to the graph service.
// Primary is the DAG to resolve; the others are generator targets.
type Bundle struct {
	Primary string `yaml:"primary"`
	Dags    []*Dag `yaml:"dags"`
}
