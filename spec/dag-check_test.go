// Copyright 2020, Square, Inc.

package spec_test

import (
	"errors"
	"testing"

	serr "github.com/square/taskgraph/errors"
	. "github.com/square/taskgraph/spec"
)

func TestFailHasNameDagCheck(t *testing.T) {
	check := HasNameDagCheck{}
	dag := Dag{File: "x.yaml"}
	expectedErr := MissingValueError{
		Dag:   "x.yaml",
		Field: "name",
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted dag with no name, expected error")
}

func TestFailHasNodesDagCheck(t *testing.T) {
	check := HasNodesDagCheck{}
	dag := Dag{Name: dagA}
	expectedErr := MissingValueError{
		Dag:   dagA,
		Field: "operators, generators",
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted dag with no nodes, expected error")
}

func TestFailUniqueNodeNamesDagCheck(t *testing.T) {
	check := UniqueNodeNamesDagCheck{}
	dag := Dag{
		Name:       dagA,
		Operators:  []*OperatorSpec{{Name: nodeA}, {Name: nodeB}},
		Generators: []*GeneratorSpec{{Name: nodeA}},
	}
	expectedErr := DuplicateValueError{
		Dag:    dagA,
		Field:  "operators -> name, generators -> name",
		Values: []string{nodeA},
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted operator and generator with the same name, expected error")
}

func TestFailValidResourcesDagCheck(t *testing.T) {
	check := ValidResourcesDagCheck{}
	dag := Dag{
		Name: dagA,
		Resources: []*ResourceSpec{
			{Name: "db", CreateOperatorType: "db_create"},
			{Name: "db", CreateOperatorType: "db_create"},
		},
	}

	err := check.CheckDag(dag)
	var invalid serr.InvalidResourceSpecError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, expected InvalidResourceSpecError", err)
	}
	if invalid.Resource != "db" || invalid.Field != "name" {
		t.Errorf("got %+v", invalid)
	}

	dag.Resources = dag.Resources[:1]
	dag.Resources[0].CreateOperatorType = ""
	if err := check.CheckDag(dag); !errors.As(err, &invalid) {
		t.Errorf("err = %v, expected InvalidResourceSpecError for missing create_operator_type", err)
	}
}

func TestFailDependenciesDeclaredDagCheck(t *testing.T) {
	check := DependenciesDeclaredDagCheck{}
	dag := Dag{
		Name: dagA,
		Operators: []*OperatorSpec{
			{Name: nodeA, UpstreamDependencies: []string{"gen"}},
			{Name: nodeB, DownstreamDependencies: []string{"missing", nodeA}},
		},
		Generators: []*GeneratorSpec{{Name: "gen", Target: "x"}},
	}
	expectedErr := InvalidValueError{
		Dag:    dagA,
		Node:   &nodeB,
		Field:  "downstream_dependencies",
		Values: []string{"missing"},
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted dependency on an undeclared node, expected error")
}

func TestPassDependenciesDeclaredDagCheck(t *testing.T) {
	check := DependenciesDeclaredDagCheck{}
	dag := Dag{
		Name:       dagA,
		Operators:  []*OperatorSpec{{Name: nodeA, UpstreamDependencies: []string{"gen"}}},
		Generators: []*GeneratorSpec{{Name: "gen", Target: "x", DownstreamDependencies: []string{nodeA}}},
	}
	if err := check.CheckDag(dag); err != nil {
		t.Errorf("err = %s, expected nil", err)
	}
}

func TestFailRequiredResourcesDeclaredDagCheck(t *testing.T) {
	check := RequiredResourcesDeclaredDagCheck{}
	dag := Dag{
		Name:      dagA,
		Resources: []*ResourceSpec{{Name: "db", CreateOperatorType: "db_create"}},
		Operators: []*OperatorSpec{{Name: nodeA, RequiresResources: []string{"db", "cache"}}},
	}
	expectedErr := InvalidValueError{
		Dag:    dagA,
		Node:   &nodeA,
		Field:  "requires_resources",
		Values: []string{"cache"},
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted undeclared resource, expected error")
}

func TestFailGeneratorsHaveTargetDagCheck(t *testing.T) {
	check := GeneratorsHaveTargetDagCheck{}
	dag := Dag{
		Name:       dagA,
		Generators: []*GeneratorSpec{{Name: nodeA}},
	}
	expectedErr := MissingValueError{
		Dag:   dagA,
		Node:  &nodeA,
		Field: "target",
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted generator without target, expected error")
}

func TestFailGeneratorTargetsExistDagCheck(t *testing.T) {
	allSpecs := NewSpecs()
	allSpecs.Dags[dagA] = &Dag{Name: dagA}
	allSpecs.Dags["other"] = &Dag{Name: "other"}
	check := GeneratorTargetsExistDagCheck{allSpecs}

	dag := Dag{
		Name:       dagA,
		Generators: []*GeneratorSpec{{Name: nodeA, Target: "other"}, {Name: nodeB, Target: "missing"}},
	}
	expectedErr := InvalidValueError{
		Dag:    dagA,
		Node:   &nodeB,
		Field:  "target",
		Values: []string{"missing"},
	}
	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted generator with unknown target, expected error")

	dag.Generators = []*GeneratorSpec{{Name: nodeA, Target: dagA}}
	expectedErr = InvalidValueError{
		Dag:    dagA,
		Node:   &nodeA,
		Field:  "target",
		Values: []string{dagA},
	}
	err = check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted generator targeting its own dag, expected error")
}

func TestFailResourcesUsedDagCheck(t *testing.T) {
	check := ResourcesUsedDagCheck{}
	dag := Dag{
		Name: dagA,
		Resources: []*ResourceSpec{
			{Name: "db", CreateOperatorType: "db_create"},
			{Name: "cache", CreateOperatorType: "cache_create"},
			{Name: "bucket", CreateOperatorType: "bucket_create"},
		},
		Operators: []*OperatorSpec{{Name: nodeA, RequiresResources: []string{"db"}}},
	}
	expectedErr := InvalidValueError{
		Dag:    dagA,
		Field:  "resources",
		Values: []string{"bucket", "cache"},
	}

	err := check.CheckDag(dag)
	compareError(t, err, expectedErr, "accepted unused resources, expected warning")
}
