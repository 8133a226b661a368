package aggregators

import "github.com/Ahmed-Sermani/citerank/bsp"

var _ bsp.Aggregator = (*Float64MaxAggregator)(nil)

// Float64MaxAggregator keeps the largest float64 value it has seen.
type Float64MaxAggregator struct {
	cur, prev float64
}

func (a *Float64MaxAggregator) Type() string {
	return "Float64MaxAggregator"
}

func (a *Float64MaxAggregator) Get() any {
	return loadFloat64(&a.cur)
}

func (a *Float64MaxAggregator) Set(v any) {
	v64 := v.(float64)
	storeFloat64(&a.cur, v64)
	storeFloat64(&a.prev, v64)
}

func (a *Float64MaxAggregator) Aggregate(v any) {
	for v64 := v.(float64); ; {
		old := loadFloat64(&a.cur)
		if v64 <= old || casFloat64(&a.cur, old, v64) {
			return
		}
	}
}

// Delta returns how much the maximum grew since the last call.
func (a *Float64MaxAggregator) Delta() any {
	for {
		cur, prev := loadFloat64(&a.cur), loadFloat64(&a.prev)
		if casFloat64(&a.prev, prev, cur) {
			return cur - prev
		}
	}
}
