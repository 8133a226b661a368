package ranking

import (
	"sync"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/pipeline"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/Ahmed-Sermani/citerank/report"
)

var (
	_ pipeline.Payload = (*rankPayload)(nil)

	payloadPool = sync.Pool{
		New: func() any { return new(rankPayload) },
	}
)

// rankPayload carries one partition through the ranking pipeline.
type rankPayload struct {
	Key   partition.Key
	Edges []citation.Edge

	Result *ranker.Result
	Entry  report.Entry
}

func (p *rankPayload) Clone() pipeline.Payload {
	newp := payloadPool.Get().(*rankPayload)
	newp.Key = p.Key
	newp.Edges = p.Edges // partitions are read-only
	newp.Result = p.Result
	newp.Entry = p.Entry
	newp.Entry.Top = append([]ranker.Scored(nil), p.Entry.Top...)
	return newp
}

// MarkAsProcessed resets the payload and returns it to the pool.
func (p *rankPayload) MarkAsProcessed() {
	p.Key = partition.Key{}
	p.Edges = nil
	p.Result = nil
	p.Entry = report.Entry{}
	payloadPool.Put(p)
}
