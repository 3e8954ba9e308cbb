/*
Package grapher resolves DAG specs into task graphs.

Resolution starts at a primary DAG and builds a tree of scopes: one scope for
the primary DAG and one for every generator, recursively. Each scope owns the
resource registry of its DAG, so resource names never leak between scopes.

A scope is resolved bottom-up:

	* add one operator node per declared operator
	* resolve every generator target in a child scope
	* embed each resolved child graph through its surfaces
	* add the declared operator edges and check the graph is acyclic
	* inject resource create, sentinel, and destroy nodes
	* freeze the graph

Node identities are the declared names qualified by the generator path, so
"stage" in generator "load" of the primary DAG is "load.stage". The same specs
always resolve to the same node identities and the same edge order.

A DAG that embeds itself, directly or through other DAGs, is an invalid
embedding. Every error aborts the whole resolution; no partial graph is returned.
*/
package grapher
