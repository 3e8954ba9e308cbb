// Copyright 2019-2020, Square, Inc.

package proto_test

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	log "github.com/sirupsen/logrus"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/grapher"
	"github.com/square/taskgraph/proto"
	"github.com/square/taskgraph/spec"
	"github.com/square/taskgraph/test"
)

func TestGraphFilterString(t *testing.T) {
	f := proto.GraphFilter{}
	expect := ""
	got := f.String()
	if got != expect {
		t.Errorf("got '%s', expected '%s'", got, expect)
	}

	f = proto.GraphFilter{Kind: "Create"}
	expect = "?kind=create"
	got = f.String()
	if got != expect {
		t.Errorf("got '%s', expected '%s'", got, expect)
	}
}

func TestGraphFilterValidate(t *testing.T) {
	if err := (proto.GraphFilter{Kind: "sentinel"}).Validate(); err != nil {
		t.Errorf("sentinel: %s", err)
	}
	if err := (proto.GraphFilter{Kind: "job"}).Validate(); err == nil {
		t.Error("job: no error")
	}
}

func resolveNightly(t *testing.T) *grapher.Result {
	specs, err := spec.Parse(filepath.Join(test.SpecPath, "dags"), t.Logf)
	if err != nil {
		t.Fatal(err)
	}
	l := log.New()
	l.Out = ioutil.Discard
	res, err := grapher.NewGrapher(specs, log.NewEntry(l)).Resolve("nightly")
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestNewGraph(t *testing.T) {
	g, err := proto.NewGraph(resolveNightly(t))
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{}
	for _, n := range g.Nodes {
		ids = append(ids, n.Id)
	}
	expect := []string{
		"cluster-create", "extract", "transform",
		"load.connection-create", "load.stage", "load.connection-destroy", "load.publish", "report",
		"cluster-sentinel", "cluster-destroy",
	}
	if diff := deep.Equal(ids, expect); diff != nil {
		t.Error(diff)
	}

	sentinel := g.Nodes[8]
	expectNode := proto.Node{
		Id:         "cluster-sentinel",
		Name:       "cluster-sentinel",
		Type:       "sentinel",
		Kind:       proto.KIND_SENTINEL,
		Config:     map[string]interface{}{},
		Resource:   "cluster",
		Path:       []string{"nightly"},
		Upstream:   []string{"extract", "transform"},
		Downstream: []string{"cluster-destroy"},
	}
	if diff := deep.Equal(sentinel, expectNode); diff != nil {
		t.Error(diff)
	}

	if len(g.Edges) != 12 {
		t.Errorf("got %d edges, expected 12", len(g.Edges))
	}
	if len(g.Embeddings) != 1 || g.Embeddings[0].Key != "nightly.load" {
		t.Errorf("embeddings = %+v, expected nightly.load", g.Embeddings)
	}
	if diff := deep.Equal(g.Elided, []string{"scratch_bucket"}); diff != nil {
		t.Error(diff)
	}

	creates := g.Filter(proto.KIND_CREATE)
	if len(creates.Nodes) != 2 || len(creates.Edges) != 0 {
		t.Errorf("create filter: %d nodes, %d edges, expected 2 and 0", len(creates.Nodes), len(creates.Edges))
	}
}

func TestNewResolveError(t *testing.T) {
	grid := []struct {
		err   error
		typ   string
		nodes []string
	}{
		{serr.DuplicateNodeError{Node: "a"}, proto.ERR_DUPLICATE_NODE, []string{"a"}},
		{serr.UnknownNodeError{Node: "a"}, proto.ERR_UNKNOWN_NODE, []string{"a"}},
		{serr.UnknownResourceError{Resource: "db", Node: "a"}, proto.ERR_UNKNOWN_RESOURCE, []string{"db", "a"}},
		{serr.ResolutionConflictError{Identity: "db-create"}, proto.ERR_CONFLICT, []string{"db-create"}},
		{serr.CycleError{Path: []string{"a", "b", "a"}}, proto.ERR_CYCLE, []string{"a", "b", "a"}},
		{serr.InvalidEmbeddingError{Path: []string{"p"}}, proto.ERR_INVALID_EMBEDDING, []string{"p"}},
		{serr.InvalidResourceSpecError{Field: "name"}, proto.ERR_INVALID_RESOURCE, []string{}},
		{fmt.Errorf("resolving x: %w", serr.UnknownDagError{Dag: "x"}), proto.ERR_UNKNOWN_DAG, []string{"x"}},
		{fmt.Errorf("boom"), proto.ERR_UNKNOWN, nil},
	}
	for _, tc := range grid {
		e := proto.NewResolveError(tc.err)
		if e.Type != tc.typ {
			t.Errorf("%s: type %s, expected %s", tc.err, e.Type, tc.typ)
		}
		if diff := deep.Equal(e.Nodes, tc.nodes); diff != nil {
			t.Errorf("%s: %v", tc.err, diff)
		}
		if e.Message != tc.err.Error() {
			t.Errorf("message %q, expected %q", e.Message, tc.err.Error())
		}
	}
}
