// Copyright 2020, Square, Inc.

package spec

// Generates static checks to be performed on dag and operator specs.
//
// Errors are mistakes in the specs that prevent a dag from being resolved into
// a graph. For example, a dependency on an operator that does not exist.
// Errors can also be used to enforce reasonable conventions. For example,
// dags should have nodes.
// If any error occurs, the compiler exits and the graph service fails to boot.
//
// Warnings identify probable mistakes in the specs. For example, a resource
// that no operator requires.
// Warnings will be logged, but do not stop resolution.
type CheckFactory interface {
	MakeDagErrorChecks() ([]DagCheck, error)
	MakeDagWarningChecks() ([]DagCheck, error)
	MakeOperatorErrorChecks() ([]OperatorCheck, error)
	MakeOperatorWarningChecks() ([]OperatorCheck, error)
}

// The absolute minimum of checks for resolution to work properly.
type BaseCheckFactory struct {
	AllSpecs Specs // All specs in specs dir
}

func (c BaseCheckFactory) MakeDagErrorChecks() ([]DagCheck, error) {
	return []DagCheck{
		HasNameDagCheck{},
		UniqueNodeNamesDagCheck{},
		ValidResourcesDagCheck{},
		DependenciesDeclaredDagCheck{},
		RequiredResourcesDeclaredDagCheck{},
		GeneratorsHaveTargetDagCheck{},
		GeneratorTargetsExistDagCheck{c.AllSpecs},
	}, nil
}

func (c BaseCheckFactory) MakeDagWarningChecks() ([]DagCheck, error) {
	return []DagCheck{}, nil
}

func (c BaseCheckFactory) MakeOperatorErrorChecks() ([]OperatorCheck, error) {
	return []OperatorCheck{
		HasNameOperatorCheck{},
		HasTypeOperatorCheck{},
	}, nil
}

func (c BaseCheckFactory) MakeOperatorWarningChecks() ([]OperatorCheck, error) {
	return []OperatorCheck{}, nil
}

// Some default checks. Not strictly necessary for resolution, but generally reasonable.
type DefaultCheckFactory struct{}

func (c DefaultCheckFactory) MakeDagErrorChecks() ([]DagCheck, error) {
	return []DagCheck{
		HasNodesDagCheck{},
	}, nil
}

func (c DefaultCheckFactory) MakeDagWarningChecks() ([]DagCheck, error) {
	return []DagCheck{
		ResourcesUsedDagCheck{},
	}, nil
}

func (c DefaultCheckFactory) MakeOperatorErrorChecks() ([]OperatorCheck, error) {
	return []OperatorCheck{
		NoSelfDependencyOperatorCheck{},
		NoUpstreamDownstreamOverlapOperatorCheck{},
	}, nil
}

func (c DefaultCheckFactory) MakeOperatorWarningChecks() ([]OperatorCheck, error) {
	return []OperatorCheck{
		DependenciesOnceOperatorCheck{},
	}, nil
}
