// Copyright 2020, Square, Inc.

package spec

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Parse a single DAG (YAML) file. The DAG name defaults to the file name
// without its extension.
// `logFunc` is a Printf-like function used to log warning(s) should they occur.
// Errors are returned, not logged.
func ParseSpec(specFile string, logFunc func(string, ...interface{})) (*Dag, error) {
	data, err := ioutil.ReadFile(specFile)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(specFile)
	dag, err := ParseBytes(data, strings.TrimSuffix(base, filepath.Ext(base)), logFunc)
	if err != nil {
		return nil, err
	}
	dag.File = specFile
	return dag, nil
}

// ParseBytes parses one DAG spec. defaultName is used if the spec has no name.
func ParseBytes(data []byte, defaultName string, logFunc func(string, ...interface{})) (*Dag, error) {
	dag := &Dag{}
	if err := unmarshal(data, dag, logFunc); err != nil {
		return nil, err
	}
	if dag.Name == "" {
		dag.Name = defaultName
	}
	normalize(dag)
	return dag, nil
}

// ParseBundle parses a bundle (YAML or JSON). It returns the name of the primary
// DAG and every DAG in the bundle. The primary defaults to the first DAG.
func ParseBundle(data []byte, logFunc func(string, ...interface{})) (string, Specs, error) {
	specs := NewSpecs()

	var bundle Bundle
	if err := unmarshal(data, &bundle, logFunc); err != nil {
		return "", specs, err
	}
	if len(bundle.Dags) == 0 {
		return "", specs, fmt.Errorf("bundle has no dags")
	}
	for i, dag := range bundle.Dags {
		if dag == nil {
			return "", specs, fmt.Errorf("bundle dag %d is empty", i)
		}
		if dag.Name == "" {
			return "", specs, MissingValueError{Dag: fmt.Sprintf("#%d", i), Field: "name", Explanation: "required for dags in a bundle"}
		}
		if _, ok := specs.Dags[dag.Name]; ok {
			return "", specs, DuplicateValueError{Dag: dag.Name, Field: "name", Values: []string{dag.Name}, Explanation: "dag names must be unique within a bundle"}
		}
		normalize(dag)
		specs.Dags[dag.Name] = dag
	}

	primary := bundle.Primary
	if primary == "" {
		primary = bundle.Dags[0].Name
	}
	if _, ok := specs.Dags[primary]; !ok {
		return "", specs, InvalidValueError{Dag: primary, Field: "primary", Values: []string{primary}, Expected: "name of a dag in the bundle"}
	}
	return primary, specs, nil
}

// Read all specs file in indicated specs directory. Files ending in .yaml or
// .yml are read; every file holds one DAG.
// `logFunc` is a Printf-like function used to log warning(s) should they occur.
// Errors are returned, not logged.
func Parse(specsDir string, logFunc func(string, ...interface{})) (Specs, error) {
	specs := NewSpecs()

	err := filepath.Walk(specsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(info.Name()); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		relPath, err := filepath.Rel(specsDir, path)
		if err != nil {
			logFunc("Warning: failed to get relative directory path for file %s: %s", path, err)
			relPath = path
		}

		dag, err := ParseSpec(path, logFunc) // logs warnings but not errors
		if err != nil {
			return fmt.Errorf("error reading spec file %s: %s", relPath, err)
		}

		if prev, ok := specs.Dags[dag.Name]; ok {
			return DuplicateValueError{
				Dag:         dag.Name,
				Field:       "name",
				Values:      []string{dag.Name},
				Explanation: fmt.Sprintf("defined in %s and %s", prev.File, dag.File),
			}
		}
		specs.Dags[dag.Name] = dag

		return nil
	})
	if err != nil {
		return specs, fmt.Errorf("error reading spec files: %s", err)
	}

	return specs, nil
}

func unmarshal(data []byte, v interface{}, logFunc func(string, ...interface{})) error {
	/* Emit warning if unexpected or duplicate fields are present. */
	/* Error if specs are incorrectly formatted or fields are of incorrect type. */
	err := yaml.UnmarshalStrict(data, v)
	if err != nil {
		logFunc("Warning: %s\n", err)
		if err = yaml.Unmarshal(data, v); err != nil {
			return err
		}
	}
	return nil
}

// normalize drops empty list entries and converts nested yaml maps to
// map[string]interface{} so properties can be encoded as JSON.
func normalize(dag *Dag) {
	resources := dag.Resources[:0]
	for _, r := range dag.Resources {
		if r != nil {
			r.Properties = normalizeMap(r.Properties)
			resources = append(resources, r)
		}
	}
	dag.Resources = resources

	operators := dag.Operators[:0]
	for _, op := range dag.Operators {
		if op != nil {
			op.Properties = normalizeMap(op.Properties)
			operators = append(operators, op)
		}
	}
	dag.Operators = operators

	generators := dag.Generators[:0]
	for _, gen := range dag.Generators {
		if gen != nil {
			gen.Properties = normalizeMap(gen.Properties)
			generators = append(generators, gen)
		}
	}
	dag.Generators = generators
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, v := range t {
			m[fmt.Sprint(k)] = normalizeValue(v)
		}
		return m
	case map[string]interface{}:
		return normalizeMap(t)
	case []interface{}:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	}
	return v
}
