// Copyright 2020, Square, Inc.

package lifecycle_test

import (
	"errors"
	"io/ioutil"
	"testing"

	"github.com/go-test/deep"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/graph"
	"github.com/square/taskgraph/id"
	"github.com/square/taskgraph/lifecycle"
	"github.com/square/taskgraph/resource"
)

var cluster = resource.Spec{
	Name:                "cluster",
	CreateOperatorType:  "cluster_create",
	DestroyOperatorType: "cluster_destroy",
	ProvidesArgs:        []string{"cluster_name"},
	Properties:          map[string]interface{}{"cluster_name": "nightly"},
}

func registry(t *testing.T, specs ...resource.Spec) *resource.Registry {
	r, err := resource.NewRegistry(specs)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func quietLogger() *log.Entry {
	l := log.New()
	l.Out = ioutil.Discard
	return log.NewEntry(l)
}

// operators adds one operator node per name; uses maps node -> required resources.
func operators(t *testing.T, names []string, uses map[string][]string) *graph.Graph {
	g := graph.New("test")
	for _, name := range names {
		n := &graph.Node{
			Id:        name,
			Name:      name,
			Type:      "op",
			Kind:      graph.KindOperator,
			Config:    map[string]interface{}{},
			Resources: uses[name],
		}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func resolve(t *testing.T, reg *resource.Registry, g *graph.Graph) (*lifecycle.Result, error) {
	r := lifecycle.NewResolver(reg, id.NewNamer(), quietLogger())
	return r.Resolve(g, []string{"test"}, g.Order)
}

func hasEdge(g *graph.Graph, from, to string) bool {
	_, ok := g.Edge(from, to)
	return ok
}

func TestResolveSentinel(t *testing.T) {
	g := operators(t, []string{"A", "B", "C"}, map[string][]string{
		"A": {"cluster"},
		"B": {"cluster"},
		"C": {"cluster"},
	})
	res, err := resolve(t, registry(t, cluster), g)
	if err != nil {
		t.Fatal(err)
	}

	expect := &lifecycle.Instance{
		Resource:  "cluster",
		Create:    "cluster-create",
		Destroy:   "cluster-destroy",
		Sentinel:  "cluster-sentinel",
		Consumers: []string{"A", "B", "C"},
	}
	inst, ok := res.Instance("cluster")
	if !ok {
		t.Fatal("no instance for cluster")
	}
	if diff := deep.Equal(inst, expect); diff != nil {
		t.Error(diff)
	}

	for _, c := range []string{"A", "B", "C"} {
		if !hasEdge(g, "cluster-create", c) {
			t.Errorf("missing edge cluster-create -> %s", c)
		}
		if !hasEdge(g, c, "cluster-sentinel") {
			t.Errorf("missing edge %s -> cluster-sentinel", c)
		}
		if hasEdge(g, c, "cluster-destroy") {
			t.Errorf("found direct edge %s -> cluster-destroy", c)
		}
	}
	if !hasEdge(g, "cluster-sentinel", "cluster-destroy") {
		t.Error("missing edge cluster-sentinel -> cluster-destroy")
	}
	e, _ := g.Edge("cluster-create", "A")
	if e.Resource != "cluster" {
		t.Errorf("edge annotated with %q, expected cluster", e.Resource)
	}

	sentinel, _ := g.Node("cluster-sentinel")
	if sentinel.Type != lifecycle.SentinelOperatorType || sentinel.Kind != graph.KindSentinel {
		t.Errorf("sentinel node: type %s kind %s", sentinel.Type, sentinel.Kind)
	}
	create, _ := g.Node("cluster-create")
	if create.Type != "cluster_create" || create.Config["cluster_name"] != "nightly" {
		t.Errorf("create node: type %s config %v", create.Type, create.Config)
	}

	surf := graph.Surfaces(g)
	expectSurf := graph.Surface{Upstream: []string{"cluster-create"}, Downstream: []string{"cluster-destroy"}}
	if diff := deep.Equal(surf, expectSurf); diff != nil {
		t.Error(diff)
	}
}

func TestResolveSingleConsumerSentinelDisabled(t *testing.T) {
	spec := cluster
	spec.DisableSentinelNode = true
	g := operators(t, []string{"A"}, map[string][]string{"A": {"cluster"}})
	res, err := resolve(t, registry(t, spec), g)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Node("cluster-sentinel"); ok {
		t.Error("sentinel node injected for a single consumer with sentinel disabled")
	}
	if !hasEdge(g, "A", "cluster-destroy") {
		t.Error("missing edge A -> cluster-destroy")
	}
	if res.Instances[0].Sentinel != "" {
		t.Errorf("instance sentinel = %q, expected none", res.Instances[0].Sentinel)
	}
	if g.Len() != 3 {
		t.Errorf("graph has %d nodes, expected 3", g.Len())
	}
}

func TestResolveSingleConsumerSentinelEnabled(t *testing.T) {
	g := operators(t, []string{"A"}, map[string][]string{"A": {"cluster"}})
	if _, err := resolve(t, registry(t, cluster), g); err != nil {
		t.Fatal(err)
	}
	if !hasEdge(g, "A", "cluster-sentinel") || !hasEdge(g, "cluster-sentinel", "cluster-destroy") {
		t.Error("single consumer not synchronized through the sentinel")
	}
}

func TestResolveManyConsumersSentinelDisabled(t *testing.T) {
	// Disabling the sentinel only applies to a single consumer.
	spec := cluster
	spec.DisableSentinelNode = true
	g := operators(t, []string{"A", "B"}, map[string][]string{"A": {"cluster"}, "B": {"cluster"}})
	if _, err := resolve(t, registry(t, spec), g); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Node("cluster-sentinel"); !ok {
		t.Fatal("no sentinel node for two consumers")
	}
	if hasEdge(g, "A", "cluster-destroy") || hasEdge(g, "B", "cluster-destroy") {
		t.Error("found direct consumer -> destroy edge")
	}
}

func TestResolveNoDestroy(t *testing.T) {
	spec := cluster
	spec.DestroyOperatorType = ""
	g := operators(t, []string{"A", "B"}, map[string][]string{"A": {"cluster"}, "B": {"cluster"}})
	res, err := resolve(t, registry(t, spec), g)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 3 {
		t.Errorf("graph has %d nodes, expected 3 (A, B, cluster-create)", g.Len())
	}
	inst := res.Instances[0]
	if inst.Destroy != "" || inst.Sentinel != "" {
		t.Errorf("instance has teardown nodes: %+v", inst)
	}
	if diff := deep.Equal(g.Downstream("cluster-create"), []string{"A", "B"}); diff != nil {
		t.Error(diff)
	}
}

func TestResolveElided(t *testing.T) {
	unused := resource.Spec{Name: "bucket", CreateOperatorType: "bucket_create", DestroyOperatorType: "bucket_destroy"}
	g := operators(t, []string{"A", "B"}, map[string][]string{"A": {"cluster"}})

	logger, hook := test.NewNullLogger()
	r := lifecycle.NewResolver(registry(t, cluster, unused), id.NewNamer(), log.NewEntry(logger))
	res, err := r.Resolve(g, []string{"test"}, g.Order)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(res.Elided, []string{"bucket"}); diff != nil {
		t.Error(diff)
	}
	for _, id := range []string{"bucket-create", "bucket-destroy", "bucket-sentinel"} {
		if _, ok := g.Node(id); ok {
			t.Errorf("node %s injected for a resource nothing requires", id)
		}
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Data["resource"] == "bucket" {
			warned = true
		}
	}
	if !warned {
		t.Error("no warning logged for elided resource bucket")
	}
}

func TestResolveProvidedArgs(t *testing.T) {
	g := operators(t, []string{"A", "B"}, map[string][]string{"A": {"cluster"}, "B": {"cluster"}})
	b, _ := g.Node("B")
	b.Config["cluster_name"] = "override"

	if _, err := resolve(t, registry(t, cluster), g); err != nil {
		t.Fatal(err)
	}

	expect := []graph.InjectedArg{{Name: "cluster_name", Resource: "cluster", From: "cluster-create"}}
	for _, name := range []string{"A", "B"} {
		n, _ := g.Node(name)
		if diff := deep.Equal(n.Args, expect); diff != nil {
			t.Errorf("%s: %v", name, diff)
		}
	}
	a, _ := g.Node("A")
	if a.Config["cluster_name"] != "nightly" {
		t.Errorf("A cluster_name = %v, expected value from resource properties", a.Config["cluster_name"])
	}
	if b.Config["cluster_name"] != "override" {
		t.Errorf("B cluster_name = %v, expected its own value to be kept", b.Config["cluster_name"])
	}
}

func TestResolveUnknownResource(t *testing.T) {
	g := operators(t, []string{"A"}, map[string][]string{"A": {"nope"}})
	_, err := resolve(t, registry(t, cluster), g)
	var unknown serr.UnknownResourceError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, expected UnknownResourceError", err)
	}
	expect := serr.UnknownResourceError{Resource: "nope", Node: "A"}
	if unknown != expect {
		t.Errorf("got %+v, expected %+v", unknown, expect)
	}
}

func TestResolveConflict(t *testing.T) {
	// "db.main" and "db_main" sanitize to the same identity.
	a := resource.Spec{Name: "db.main", CreateOperatorType: "db_create"}
	b := resource.Spec{Name: "db_main", CreateOperatorType: "db_create"}
	g := operators(t, []string{"A", "B"}, map[string][]string{"A": {"db.main"}, "B": {"db_main"}})
	_, err := resolve(t, registry(t, a, b), g)
	var conflict serr.ResolutionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, expected ResolutionConflictError", err)
	}
	expect := serr.ResolutionConflictError{
		Identity: "db_main-create",
		Owner:    "resource db.main",
		Claimant: "resource db_main",
	}
	if conflict != expect {
		t.Errorf("got %+v, expected %+v", conflict, expect)
	}
}

func TestResolveConflictWithOperator(t *testing.T) {
	namer := id.NewNamer()
	g := operators(t, []string{"cluster-create", "A"}, map[string][]string{"A": {"cluster"}})
	if err := namer.Claim("cluster-create", id.OperatorOwner("cluster-create")); err != nil {
		t.Fatal(err)
	}
	r := lifecycle.NewResolver(registry(t, cluster), namer, quietLogger())
	_, err := r.Resolve(g, []string{"test"}, g.Order)
	var conflict serr.ResolutionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, expected ResolutionConflictError", err)
	}
	if conflict.Owner != "operator cluster-create" {
		t.Errorf("conflict owner = %s, expected operator cluster-create", conflict.Owner)
	}
}

func TestResolveScopedIds(t *testing.T) {
	g := graph.New("inner")
	n := &graph.Node{Id: "gen.A", Name: "A", Type: "op", Resources: []string{"cluster"}}
	if err := g.AddNode(n); err != nil {
		t.Fatal(err)
	}
	r := lifecycle.NewResolver(registry(t, cluster), id.NewNamer(), quietLogger())
	res, err := r.Resolve(g, []string{"outer", "gen"}, g.Order)
	if err != nil {
		t.Fatal(err)
	}
	inst := res.Instances[0]
	if inst.Create != "gen.cluster-create" || inst.Destroy != "gen.cluster-destroy" {
		t.Errorf("ids not scoped: %+v", inst)
	}
	create, _ := g.Node(inst.Create)
	if diff := deep.Equal(create.Path, []string{"outer", "gen"}); diff != nil {
		t.Error(diff)
	}
}

func TestResolveExistingNode(t *testing.T) {
	g := operators(t, []string{"A", "B"}, map[string][]string{"B": {"cluster"}})
	if err := g.AddNode(&graph.Node{Id: "cluster-create", Type: "op"}); err != nil {
		t.Fatal(err)
	}
	r := lifecycle.NewResolver(registry(t, cluster), id.NewNamer(), quietLogger())
	_, err := r.Resolve(g, []string{"test"}, []string{"A", "B"})
	// The existing node is not owned by the resource.
	var conflict serr.ResolutionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, expected ResolutionConflictError", err)
	}
}

func TestResolveDeterministic(t *testing.T) {
	run := func() ([]string, []graph.Edge) {
		g := operators(t, []string{"A", "B", "C"}, map[string][]string{
			"A": {"cluster", "db"},
			"B": {"db"},
			"C": {"cluster"},
		})
		db := resource.Spec{Name: "db", CreateOperatorType: "db_create", DestroyOperatorType: "db_destroy"}
		if _, err := resolve(t, registry(t, cluster, db), g); err != nil {
			t.Fatal(err)
		}
		return g.Order, g.EdgeList()
	}
	order1, edges1 := run()
	order2, edges2 := run()
	if diff := deep.Equal(order1, order2); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(edges1, edges2); diff != nil {
		t.Error(diff)
	}
	expect := []string{
		"A", "B", "C",
		"cluster-create", "db-create",
		"cluster-sentinel", "cluster-destroy",
		"db-sentinel", "db-destroy",
	}
	if diff := deep.Equal(order1, expect); diff != nil {
		t.Error(diff)
	}
}
