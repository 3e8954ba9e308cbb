// Copyright 2020, Square, Inc.

package spec

import (
	"github.com/square/taskgraph/resource"
)

type DagCheck interface {
	CheckDag(Dag) error
}

// nodeNames returns the names of every operator and generator in dag.
func nodeNames(dag Dag) map[string]bool {
	names := map[string]bool{}
	for _, op := range dag.Operators {
		names[op.Name] = true
	}
	for _, gen := range dag.Generators {
		names[gen.Name] = true
	}
	return names
}

/* ========================================================================== */
type HasNameDagCheck struct{}

/* DAGs must be named. */
func (check HasNameDagCheck) CheckDag(dag Dag) error {
	if dag.Name == "" {
		return MissingValueError{
			Dag:         dag.File,
			Field:       "name",
			Explanation: "required for dags",
		}
	}
	return nil
}

/* ========================================================================== */
type HasNodesDagCheck struct{}

/* DAGs should have at least one operator or generator. */
func (check HasNodesDagCheck) CheckDag(dag Dag) error {
	if len(dag.Operators) == 0 && len(dag.Generators) == 0 {
		return MissingValueError{
			Dag:         dag.Name,
			Field:       "operators, generators",
			Explanation: "at least one operator or generator is required",
		}
	}
	return nil
}

/* ========================================================================== */
type UniqueNodeNamesDagCheck struct{}

/* Operator and generator names share one namespace. */
func (check UniqueNodeNamesDagCheck) CheckDag(dag Dag) error {
	seen := map[string]bool{}
	values := map[string]bool{}
	for _, op := range dag.Operators {
		if seen[op.Name] {
			values[op.Name] = true
		}
		seen[op.Name] = true
	}
	for _, gen := range dag.Generators {
		if seen[gen.Name] {
			values[gen.Name] = true
		}
		seen[gen.Name] = true
	}

	if len(values) > 0 {
		return DuplicateValueError{
			Dag:         dag.Name,
			Field:       "operators -> name, generators -> name",
			Values:      stringSetToArray(values),
			Explanation: "operator and generator names must be unique within a dag",
		}
	}
	return nil
}

/* ========================================================================== */
type ValidResourcesDagCheck struct{}

/* Resources must be valid on their own and uniquely named. */
func (check ValidResourcesDagCheck) CheckDag(dag Dag) error {
	_, err := resource.NewRegistry(dag.ResourceSpecs())
	return err
}

/* ========================================================================== */
type DependenciesDeclaredDagCheck struct{}

/* Upstream and downstream dependencies must name an operator or generator of the same dag. */
func (check DependenciesDeclaredDagCheck) CheckDag(dag Dag) error {
	names := nodeNames(dag)
	undeclared := func(node string, field string, deps []string) error {
		values := map[string]bool{}
		for _, dep := range deps {
			if !names[dep] {
				values[dep] = true
			}
		}
		if len(values) > 0 {
			return InvalidValueError{
				Dag:      dag.Name,
				Node:     &node,
				Field:    field,
				Values:   stringSetToArray(values),
				Expected: "name of an operator or generator in the dag",
			}
		}
		return nil
	}

	for _, op := range dag.Operators {
		if err := undeclared(op.Name, "upstream_dependencies", op.UpstreamDependencies); err != nil {
			return err
		}
		if err := undeclared(op.Name, "downstream_dependencies", op.DownstreamDependencies); err != nil {
			return err
		}
	}
	for _, gen := range dag.Generators {
		if err := undeclared(gen.Name, "upstream_dependencies", gen.UpstreamDependencies); err != nil {
			return err
		}
		if err := undeclared(gen.Name, "downstream_dependencies", gen.DownstreamDependencies); err != nil {
			return err
		}
	}
	return nil
}

/* ========================================================================== */
type RequiredResourcesDeclaredDagCheck struct{}

/* Operators may only require resources declared in the same dag. */
func (check RequiredResourcesDeclaredDagCheck) CheckDag(dag Dag) error {
	for _, op := range dag.Operators {
		values := map[string]bool{}
		for _, name := range op.RequiresResources {
			if _, ok := dag.Resource(name); !ok {
				values[name] = true
			}
		}
		if len(values) > 0 {
			return InvalidValueError{
				Dag:      dag.Name,
				Node:     &op.Name,
				Field:    "requires_resources",
				Values:   stringSetToArray(values),
				Expected: "name of a resource in the dag",
			}
		}
	}
	return nil
}

/* ========================================================================== */
type GeneratorsHaveTargetDagCheck struct{}

/* Generators must name the dag they embed. */
func (check GeneratorsHaveTargetDagCheck) CheckDag(dag Dag) error {
	for _, gen := range dag.Generators {
		if gen.Target == "" {
			return MissingValueError{
				Dag:         dag.Name,
				Node:        &gen.Name,
				Field:       "target",
				Explanation: "required for generators",
			}
		}
	}
	return nil
}

/* ========================================================================== */
type GeneratorTargetsExistDagCheck struct {
	AllSpecs Specs
}

/* Generator targets must be loaded dags other than the dag itself. */
func (check GeneratorTargetsExistDagCheck) CheckDag(dag Dag) error {
	for _, gen := range dag.Generators {
		if gen.Target == "" {
			continue // GeneratorsHaveTargetDagCheck
		}
		if gen.Target == dag.Name {
			return InvalidValueError{
				Dag:      dag.Name,
				Node:     &gen.Name,
				Field:    "target",
				Values:   []string{gen.Target},
				Expected: "name of a dag other than the generator's own dag",
			}
		}
		if _, ok := check.AllSpecs.Dags[gen.Target]; !ok {
			return InvalidValueError{
				Dag:      dag.Name,
				Node:     &gen.Name,
				Field:    "target",
				Values:   []string{gen.Target},
				Expected: "name of a loaded dag",
			}
		}
	}
	return nil
}

/* ========================================================================== */
type ResourcesUsedDagCheck struct{}

/* Resources nothing requires are dropped from the graph. Probably a mistake. */
func (check ResourcesUsedDagCheck) CheckDag(dag Dag) error {
	used := map[string]bool{}
	for _, op := range dag.Operators {
		for _, name := range op.RequiresResources {
			used[name] = true
		}
	}
	values := map[string]bool{}
	for _, r := range dag.Resources {
		if !used[r.Name] {
			values[r.Name] = true
		}
	}
	if len(values) > 0 {
		return InvalidValueError{
			Dag:      dag.Name,
			Field:    "resources",
			Values:   stringSetToArray(values),
			Expected: "resources required by at least one operator; unused resources are not added to the graph",
		}
	}
	return nil
}
