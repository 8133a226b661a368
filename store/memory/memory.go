/*
   In-memory partition and report store, used for dry runs and tests.
*/
package memory

import (
	"context"
	"sync"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/Ahmed-Sermani/citerank/store"
	"golang.org/x/xerrors"
)

var (
	_ store.Store = (*Store)(nil)
	_ report.Sink = (*Store)(nil)
)

// Store keeps partitions and reports in memory. It is safe for concurrent
// use.
type Store struct {
	mu sync.RWMutex

	partitions map[partition.Key][]citation.Edge
	reports    []*report.Report
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		partitions: make(map[partition.Key][]citation.Edge),
	}
}

// WritePartition stores a copy of p, replacing any previous edges under the
// same key.
func (s *Store) WritePartition(_ context.Context, p partition.Partition) error {
	edges := make([]citation.Edge, len(p.Edges))
	copy(edges, p.Edges)

	s.mu.Lock()
	s.partitions[p.Key] = edges
	s.mu.Unlock()
	return nil
}

func (s *Store) Partition(_ context.Context, key partition.Key) ([]citation.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges, found := s.partitions[key]
	if !found {
		return nil, xerrors.Errorf("partition %s: %w", key, store.ErrNotFound)
	}
	out := make([]citation.Edge, len(edges))
	copy(out, edges)
	return out, nil
}

func (s *Store) Keys(_ context.Context) ([]partition.Key, error) {
	s.mu.RLock()
	keys := make([]partition.Key, 0, len(s.partitions))
	for k := range s.partitions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	store.SortKeys(keys)
	return keys, nil
}

// WriteReport keeps r. Reports are returned by Reports in write order.
func (s *Store) WriteReport(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	s.reports = append(s.reports, r)
	s.mu.Unlock()
	return nil
}

// Reports returns the reports written so far.
func (s *Store) Reports() []*report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*report.Report(nil), s.reports...)
}
