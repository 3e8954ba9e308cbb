// Copyright 2020, Square, Inc.

package spec

type OperatorCheck interface {
	CheckOperator(string, OperatorSpec) error
}

/* ========================================================================== */
type HasNameOperatorCheck struct{}

/* Operators must be named. */
func (check HasNameOperatorCheck) CheckOperator(dagName string, op OperatorSpec) error {
	if op.Name == "" {
		return MissingValueError{
			Dag:         dagName,
			Field:       "name",
			Explanation: "required for operators",
		}
	}
	return nil
}

/* ========================================================================== */
type HasTypeOperatorCheck struct{}

/* Operators must specify a type. */
func (check HasTypeOperatorCheck) CheckOperator(dagName string, op OperatorSpec) error {
	if op.Type == "" {
		return MissingValueError{
			Dag:         dagName,
			Node:        &op.Name,
			Field:       "type",
			Explanation: "required for operators",
		}
	}
	return nil
}

/* ========================================================================== */
type NoSelfDependencyOperatorCheck struct{}

/* An operator cannot depend on itself. */
func (check NoSelfDependencyOperatorCheck) CheckOperator(dagName string, op OperatorSpec) error {
	for _, field := range []struct {
		name string
		deps []string
	}{
		{"upstream_dependencies", op.UpstreamDependencies},
		{"downstream_dependencies", op.DownstreamDependencies},
	} {
		for _, dep := range field.deps {
			if dep == op.Name {
				return InvalidValueError{
					Dag:      dagName,
					Node:     &op.Name,
					Field:    field.name,
					Values:   []string{dep},
					Expected: "name of another operator or generator",
				}
			}
		}
	}
	return nil
}

/* ========================================================================== */
type NoUpstreamDownstreamOverlapOperatorCheck struct{}

/* A node cannot be both upstream and downstream of an operator: that is a cycle. */
func (check NoUpstreamDownstreamOverlapOperatorCheck) CheckOperator(dagName string, op OperatorSpec) error {
	up := map[string]bool{}
	for _, dep := range op.UpstreamDependencies {
		up[dep] = true
	}
	values := map[string]bool{}
	for _, dep := range op.DownstreamDependencies {
		if up[dep] {
			values[dep] = true
		}
	}
	if len(values) > 0 {
		return InvalidValueError{
			Dag:      dagName,
			Node:     &op.Name,
			Field:    "upstream_dependencies, downstream_dependencies",
			Values:   stringSetToArray(values),
			Expected: "each node to be either upstream or downstream, not both",
		}
	}
	return nil
}

/* ========================================================================== */
type DependenciesOnceOperatorCheck struct{}

/* Listing a dependency twice has no effect. Probably a mistake. */
func (check DependenciesOnceOperatorCheck) CheckOperator(dagName string, op OperatorSpec) error {
	for _, field := range []struct {
		name string
		deps []string
	}{
		{"upstream_dependencies", op.UpstreamDependencies},
		{"downstream_dependencies", op.DownstreamDependencies},
		{"requires_resources", op.RequiresResources},
	} {
		seen := map[string]bool{}
		values := map[string]bool{}
		for _, dep := range field.deps {
			if seen[dep] {
				values[dep] = true
			}
			seen[dep] = true
		}
		if len(values) > 0 {
			return DuplicateValueError{
				Dag:    dagName,
				Node:   &op.Name,
				Field:  field.name,
				Values: stringSetToArray(values),
			}
		}
	}
	return nil
}
