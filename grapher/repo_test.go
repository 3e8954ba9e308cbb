// Copyright 2017, Square, Inc.

package grapher_test

import (
	"testing"

	"github.com/square/taskgraph/grapher"
)

func TestRepo(t *testing.T) {
	repo := grapher.NewRepo()
	a := &grapher.Result{Elided: []string{"a"}}
	b := &grapher.Result{Elided: []string{"b"}}
	repo.Set("a", a)
	repo.Set("b", b)

	got, ok := repo.Get("a")
	if !ok || got != a {
		t.Errorf("Get(a) = %v, %t, expected %v, true", got, ok, a)
	}
	items, err := repo.Items()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items["b"] != b {
		t.Errorf("Items() = %v, expected a and b", items)
	}

	repo.Remove("a")
	if _, ok := repo.Get("a"); ok {
		t.Error("a still in repo after Remove")
	}
	if _, ok := repo.Get("nope"); ok {
		t.Error("Get(nope) found a result")
	}
}
