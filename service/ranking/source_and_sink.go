package ranking

import (
	"context"
	"sync"

	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/pipeline"
	"github.com/Ahmed-Sermani/citerank/report"
)

// partitionSource feeds the partitions of a run into the pipeline.
type partitionSource struct {
	parts []partition.Partition
	next  int
}

func (s *partitionSource) Error() error { return nil }

func (s *partitionSource) Next(ctx context.Context) bool {
	if ctx.Err() != nil || s.next == len(s.parts) {
		return false
	}
	s.next++
	return true
}

func (s *partitionSource) Payload() pipeline.Payload {
	part := s.parts[s.next-1]
	payload := payloadPool.Get().(*rankPayload)
	payload.Key = part.Key
	payload.Edges = part.Edges
	return payload
}

// collectingSink gathers the report entries leaving the pipeline.
type collectingSink struct {
	mu      sync.Mutex
	entries []report.Entry
}

func (s *collectingSink) Consume(_ context.Context, p pipeline.Payload) error {
	payload := p.(*rankPayload)
	s.mu.Lock()
	s.entries = append(s.entries, payload.Entry)
	s.mu.Unlock()
	return nil
}
