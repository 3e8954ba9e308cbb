// Copyright 2017-2020, Square, Inc.

// Package id provides deterministic node identities. Generated code must be
// stable across runs, so identities are derived from declared names and the
// scope path only; nothing is random and nothing depends on map order.
package id

import (
	"strings"

	serr "github.com/square/taskgraph/errors"
)

// Separator joins scope path segments and names.
const Separator = "."

// Role is the part a resource node plays in the resource lifecycle.
type Role string

const (
	RoleCreate   Role = "create"
	RoleDestroy  Role = "destroy"
	RoleSentinel Role = "sentinel"
)

// Sanitize maps every character outside [A-Za-z0-9_-] to '_'. Distinct names can
// sanitize to the same identity; Namer reports that as a conflict.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
}

// Join returns the identity of name within the scope at path. path is relative
// to the root scope, so top-level nodes are just their sanitized name.
func Join(path []string, name string) string {
	segs := make([]string, 0, len(path)+1)
	for _, p := range path {
		segs = append(segs, Sanitize(p))
	}
	segs = append(segs, Sanitize(name))
	return strings.Join(segs, Separator)
}

// Scoped drops the root DAG from an absolute reference path, giving the path
// Join expects.
func Scoped(refPath []string) []string {
	if len(refPath) <= 1 {
		return nil
	}
	return refPath[1:]
}

// ResourceNode returns the identity of the node playing role for resource.
func ResourceNode(path []string, resource string, role Role) string {
	return Join(path, Sanitize(resource)+"-"+string(role))
}

// Qualified returns name prefixed by the scoped part of refPath, separated by
// '/'. Unlike identities it is not sanitized, so it tells apart declared names
// that sanitize to the same identity.
func Qualified(refPath []string, name string) string {
	return strings.Join(append(append([]string{}, Scoped(refPath)...), name), "/")
}

// Owners, as recorded by Namer and reported in ResolutionConflictError. Pass a
// Qualified name.
func OperatorOwner(name string) string { return "operator " + name }
func ResourceOwner(name string) string { return "resource " + name }
func GeneratorOwner(name string) string { return "generator " + name }

// Namer records which owner claimed each identity in one resolution pass.
// It is not safe for concurrent use; a resolution pass is single-threaded.
type Namer struct {
	owners map[string]string // identity -> owner
}

func NewNamer() *Namer {
	return &Namer{
		owners: map[string]string{},
	}
}

// Claim records owner as the owner of identity. Claiming an identity again with
// the same owner is a no-op. A different owner gets ResolutionConflictError.
func (n *Namer) Claim(identity, owner string) error {
	if cur, ok := n.owners[identity]; ok {
		if cur == owner {
			return nil
		}
		return serr.ResolutionConflictError{Identity: identity, Owner: cur, Claimant: owner}
	}
	n.owners[identity] = owner
	return nil
}

// Owner returns the owner of identity, if claimed.
func (n *Namer) Owner(identity string) (string, bool) {
	o, ok := n.owners[identity]
	return o, ok
}
