// Copyright 2020, Square, Inc.

// Package builder renders a resolved graph as Python task definitions. The
// primary DAG and every generator get a DagBuilder that writes the code before
// and after their nodes; each node is written by a NodeBuilder.
package builder

import (
	"bytes"
	"strings"
	"text/template"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/version"
)

// A DagBuilder writes the code that opens and closes one DAG: the primary DAG
// file or the group of an embedded generator.
type DagBuilder interface {
	Preamble() (string, error)
	Epilogue() (string, error)
}

var (
	_ DagBuilder = PrimaryBuilder{}
	_ DagBuilder = GeneratorBuilder{}
)

// PrimaryBuilder writes the file header and the DAG object.
type PrimaryBuilder struct {
	Name   string                 // DAG id
	Config map[string]interface{} // DAG kwargs, optional
}

func (b PrimaryBuilder) Preamble() (string, error) {
	return execute(primaryPreamble, map[string]interface{}{
		"Version": version.Version(),
		"Name":    b.Name,
		"Config":  b.Config,
	})
}

func (b PrimaryBuilder) Epilogue() (string, error) {
	return execute(primaryEpilogue, map[string]interface{}{
		"Name": b.Name,
	})
}

// GeneratorBuilder writes the task group of an embedded DAG. The epilogue lists
// the surfaces the enclosing DAG was wired to.
type GeneratorBuilder struct {
	Embedding *graph.Embedding
}

func (b GeneratorBuilder) Preamble() (string, error) {
	emb := b.Embedding
	if len(emb.Path) <= 1 {
		return "", serr.InvalidEmbeddingError{Path: emb.Path, Reason: "generator requires an enclosing dag"}
	}
	return execute(generatorPreamble, map[string]interface{}{
		"Var":      varName(emb.Key()),
		"Name":     emb.Name,
		"GroupId":  strings.Join(emb.Path[1:], "."),
		"Target":   emb.Target,
		"Referrer": emb.Referrer,
		"Config":   emb.Config,
	})
}

func (b GeneratorBuilder) Epilogue() (string, error) {
	emb := b.Embedding
	return execute(generatorEpilogue, map[string]interface{}{
		"Name":       emb.Name,
		"Upstream":   emb.Upstream,
		"Downstream": emb.Downstream,
	})
}

// NodeBuilder writes the definition of one node.
type NodeBuilder struct {
	Node       *graph.Node
	Upstream   []string
	Downstream []string
}

func (b NodeBuilder) Build() (string, error) {
	n := b.Node
	return execute(nodeTemplate, map[string]interface{}{
		"Var":        varName(n.Id),
		"Id":         n.Id,
		"Type":       n.Type,
		"Kind":       string(n.Kind),
		"Resource":   n.Resource,
		"Config":     n.Config,
		"Args":       n.Args,
		"Upstream":   b.Upstream,
		"Downstream": b.Downstream,
	})
}

func execute(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
