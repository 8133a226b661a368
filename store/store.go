/*
   Persistence for partitions. Every store writes partitions through
   partition.Sink and can read them back.
*/
package store

import (
	"context"
	"sort"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned when a partition has not been written.
var ErrNotFound = xerrors.New("partition not found")

// Store is implemented by partition stores.
type Store interface {
	partition.Sink

	// Partition returns the edges of the partition named by key in the
	// order they were written.
	Partition(ctx context.Context, key partition.Key) ([]citation.Edge, error)

	// Keys returns the keys of every stored partition in Key.Less order.
	Keys(ctx context.Context) ([]partition.Key, error)
}

// SortKeys orders keys by year, cumulative before incremental.
func SortKeys(keys []partition.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
