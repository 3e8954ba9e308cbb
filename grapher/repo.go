// Copyright 2017-2020, Square, Inc.

package grapher

import (
	"fmt"

	"github.com/orcaman/concurrent-map"
)

// Repo is a small wrapper around a concurrent map that provides the ability to
// store and retrieve resolution results in a thread-safe way.
type Repo interface {
	Set(key string, value *Result)
	Get(key string) (*Result, bool)
	Remove(key string)
	Items() (map[string]*Result, error)
}

type repo struct {
	c cmap.ConcurrentMap
}

func NewRepo() Repo {
	return &repo{
		c: cmap.New(),
	}
}

// Set sets a Result in the repo.
func (r *repo) Set(key string, value *Result) {
	r.c.Set(key, value)
}

func (r *repo) Get(key string) (*Result, bool) {
	val, ok := r.c.Get(key)
	if !ok {
		return nil, false
	}
	res, ok := val.(*Result)
	return res, ok
}

// Remove removes a Result from the repo.
func (r *repo) Remove(key string) {
	r.c.Remove(key)
}

// Items returns a map of key => Result with all the Results in the repo.
func (r *repo) Items() (map[string]*Result, error) {
	results := map[string]*Result{}
	vals := r.c.Items()
	for key, val := range vals {
		res, ok := val.(*Result)
		if !ok {
			return results, fmt.Errorf("invalid result in repo for key=%s", key) // should be impossible
		}
		results[key] = res
	}

	return results, nil
}
