// Copyright 2020, Square, Inc.

// Package resource provides the resource registry of one resolution scope.
// A registry is built once from the scope's resource specs and is read-only
// afterwards, so lookups have no side effects.
package resource

import (
	serr "github.com/square/taskgraph/errors"
)

// Spec describes a shared resource: the operator that creates it, the optional
// operator that destroys it, and the args its create step provides to consumers.
type Spec struct {
	Name                string
	CreateOperatorType  string
	DestroyOperatorType string   // empty: resource is never torn down
	ProvidesArgs        []string // injected into every consumer, in order
	DisableSentinelNode bool
	Properties          map[string]interface{} // payload of the create and destroy nodes
}

// HasDestroy returns true if the resource is torn down after its consumers finish.
func (s Spec) HasDestroy() bool {
	return s.DestroyOperatorType != ""
}

// ValidateSpec checks a single spec: the name and create operator type must be
// set and provides_args must not repeat a name.
func ValidateSpec(s Spec) error {
	if s.Name == "" {
		return serr.InvalidResourceSpecError{Field: "name", Reason: "missing"}
	}
	if s.CreateOperatorType == "" {
		return serr.InvalidResourceSpecError{Resource: s.Name, Field: "create_operator_type", Reason: "missing"}
	}
	seen := map[string]bool{}
	for _, arg := range s.ProvidesArgs {
		if seen[arg] {
			return serr.InvalidResourceSpecError{Resource: s.Name, Field: "provides_args", Reason: "duplicates arg " + arg}
		}
		seen[arg] = true
	}
	return nil
}

// Registry maps resource names to specs for one scope.
type Registry struct {
	specs map[string]Spec
	names []string // declaration order
}

// NewRegistry validates every spec and that names are unique.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		specs: make(map[string]Spec, len(specs)),
		names: make([]string, 0, len(specs)),
	}
	for _, s := range specs {
		if err := ValidateSpec(s); err != nil {
			return nil, err
		}
		if _, ok := r.specs[s.Name]; ok {
			return nil, serr.InvalidResourceSpecError{Resource: s.Name, Field: "name", Reason: "is not unique"}
		}
		if s.ProvidesArgs != nil {
			s.ProvidesArgs = append([]string{}, s.ProvidesArgs...)
		}
		r.specs[s.Name] = s
		r.names = append(r.names, s.Name)
	}
	return r, nil
}

// Lookup returns the spec named name or UnknownResourceError.
func (r *Registry) Lookup(name string) (Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, serr.UnknownResourceError{Resource: name}
	}
	return s, nil
}

// Names returns resource names in declaration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.names...)
}

func (r *Registry) Len() int {
	return len(r.names)
}
