/*
   Bulk synchronous parallel (https://en.wikipedia.org/wiki/Bulk_synchronous_parallel)
   processing of in-memory graphs. Every superstep runs a compute function on
   each vertex; messages sent during a superstep are only visible in the next
   one, so a superstep never observes writes made by the superstep it belongs to.
*/
package bsp

import (
	"golang.org/x/xerrors"
)

var (
	// ErrUnknownEdgeSource is returned by AddEdge when the source vertex
	// has not been added to the graph.
	ErrUnknownEdgeSource = xerrors.New("source vertex is not part of the graph")

	// ErrInvalidMessageDestination is returned when a message is sent to a
	// vertex that is not part of the graph.
	ErrInvalidMessageDestination = xerrors.New("invalid message destination")
)

// Aggregator is implemented by types that combine values reported by
// vertices during a superstep. Implementations must be safe for concurrent
// use as compute workers call Aggregate in parallel.
type Aggregator interface {
	Type() string
	Set(val any)
	Get() any

	// Aggregate folds val into the current value.
	Aggregate(val any)

	// Delta returns the change in the aggregator's value since the last
	// call to Delta.
	Delta() any
}
