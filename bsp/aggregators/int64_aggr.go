package aggregators

import (
	"sync/atomic"

	"github.com/Ahmed-Sermani/citerank/bsp"
)

var _ bsp.Aggregator = (*IntAggregator)(nil)

// IntAggregator is a lock-free accumulator summing int values.
type IntAggregator struct {
	prevSum, curSum int64
}

func (a *IntAggregator) Type() string {
	return "IntAggregator"
}

func (a *IntAggregator) Get() any {
	return int(atomic.LoadInt64(&a.curSum))
}

func (a *IntAggregator) Set(v any) {
	v64 := int64(v.(int))
	atomic.StoreInt64(&a.curSum, v64)
	atomic.StoreInt64(&a.prevSum, v64)
}

func (a *IntAggregator) Aggregate(v any) {
	_ = atomic.AddInt64(&a.curSum, int64(v.(int)))
}

func (a *IntAggregator) Delta() any {
	for {
		curSum, prevSum := atomic.LoadInt64(&a.curSum), atomic.LoadInt64(&a.prevSum)
		if atomic.CompareAndSwapInt64(&a.prevSum, prevSum, curSum) {
			return int(curSum - prevSum)
		}
	}
}
