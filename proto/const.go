// Copyright 2017-2020, Square, Inc.

package proto

// Node kinds, the text form of graph.Kind.
const (
	KIND_OPERATOR = "operator"
	KIND_CREATE   = "create"
	KIND_DESTROY  = "destroy"
	KIND_SENTINEL = "sentinel"
)

// Error types, one per resolution error plus the loader and check failures.
const (
	ERR_UNKNOWN           = "unknown"
	ERR_DUPLICATE_NODE    = "duplicate_node"
	ERR_UNKNOWN_NODE      = "unknown_node"
	ERR_UNKNOWN_RESOURCE  = "unknown_resource"
	ERR_CONFLICT          = "resolution_conflict"
	ERR_CYCLE             = "cycle"
	ERR_INVALID_EMBEDDING = "invalid_embedding"
	ERR_INVALID_RESOURCE  = "invalid_resource_spec"
	ERR_UNKNOWN_DAG       = "unknown_dag"
	ERR_INVALID_SPEC      = "invalid_spec"
	ERR_FAILED_CHECKS     = "failed_checks"
)

var KindValue = map[string]bool{
	KIND_OPERATOR: true,
	KIND_CREATE:   true,
	KIND_DESTROY:  true,
	KIND_SENTINEL: true,
}
