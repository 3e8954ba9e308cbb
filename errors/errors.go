// Copyright 2017-2020, Square, Inc.

// Package errors provides the errors reported when a workflow cannot be resolved
// into a task graph. Every error aborts the resolution pass that produced it; no
// partial graph is returned. The errors carry the node, resource, or path that
// caused them so the compiler and the graph service can report a precise location.
package errors

import (
	"fmt"
	"strings"
)

var _ error = DuplicateNodeError{}

// DuplicateNodeError is returned when a node identity is added to a graph twice.
type DuplicateNodeError struct {
	Node string
}

func (e DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %s", e.Node)
}

// --------------------------------------------------------------------------

var _ error = UnknownNodeError{}

// UnknownNodeError is returned when an edge or dependency refers to a node that
// does not exist. Referrer is the node (or generator) that made the reference, if known.
type UnknownNodeError struct {
	Node     string
	Referrer string
}

func (e UnknownNodeError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown node %s", e.Node)
	}
	return fmt.Sprintf("unknown node %s referenced by %s", e.Node, e.Referrer)
}

// --------------------------------------------------------------------------

var _ error = UnknownResourceError{}

type UnknownResourceError struct {
	Resource string
	Node     string
}

func (e UnknownResourceError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("resource %s not declared", e.Resource)
	}
	return fmt.Sprintf("resource %s required by node %s not declared", e.Resource, e.Node)
}

// --------------------------------------------------------------------------

var _ error = ResolutionConflictError{}

// ResolutionConflictError is returned when two owners claim the same node
// identity, e.g. two resources whose names are equal after sanitization.
type ResolutionConflictError struct {
	Identity string
	Owner    string // current owner of Identity
	Claimant string // owner that tried to claim it
}

func (e ResolutionConflictError) Error() string {
	return fmt.Sprintf("node identity %s claimed by %s conflicts with %s", e.Identity, e.Claimant, e.Owner)
}

// --------------------------------------------------------------------------

var _ error = CycleError{}

// CycleError is returned when the graph has a directed cycle. Path is the node
// sequence of one cycle, with the first node repeated at the end.
type CycleError struct {
	Path []string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// --------------------------------------------------------------------------

var _ error = InvalidEmbeddingError{}

type InvalidEmbeddingError struct {
	Path   []string // reference path of the embedded graph
	Reason string
}

func (e InvalidEmbeddingError) Error() string {
	return fmt.Sprintf("invalid embedding at reference path [%s]: %s", strings.Join(e.Path, ", "), e.Reason)
}

// --------------------------------------------------------------------------

var _ error = InvalidResourceSpecError{}

type InvalidResourceSpecError struct {
	Resource string
	Field    string
	Reason   string
}

func (e InvalidResourceSpecError) Error() string {
	name := e.Resource
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("resource %s: field `%s` %s", name, e.Field, e.Reason)
}

// --------------------------------------------------------------------------

var _ error = UnknownDagError{}

// UnknownDagError is returned when a generator targets a DAG that was not loaded,
// or a caller asks to resolve one.
type UnknownDagError struct {
	Dag      string
	Referrer string
}

func (e UnknownDagError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("dag %s not found", e.Dag)
	}
	return fmt.Sprintf("dag %s referenced by %s not found", e.Dag, e.Referrer)
}
