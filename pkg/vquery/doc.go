// Package vquery implements the Query Session Registry: a map from
// (requester node, query id) to a query context holding the readers a query
// allocated, so a later fetch or an explicit endQuery can find them again.
// Reader ids are local and monotonic, minted with sync/atomic rather than
// borrowed from the query id itself.
package vquery
