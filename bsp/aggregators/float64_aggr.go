package aggregators

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/Ahmed-Sermani/citerank/bsp"
)

var _ bsp.Aggregator = (*Float64Aggregator)(nil)

// Float64Aggregator is a lock-free accumulator summing float64 values.
type Float64Aggregator struct {
	curSum, prevSum float64
}

func (a *Float64Aggregator) Type() string {
	return "Float64Aggregator"
}

func (a *Float64Aggregator) Get() any {
	return loadFloat64(&a.curSum)
}

// Set overwrites the sum and resets the delta baseline.
func (a *Float64Aggregator) Set(v any) {
	v64 := v.(float64)
	storeFloat64(&a.curSum, v64)
	storeFloat64(&a.prevSum, v64)
}

func (a *Float64Aggregator) Aggregate(v any) {
	for v64 := v.(float64); ; {
		oldCur := loadFloat64(&a.curSum)
		if casFloat64(&a.curSum, oldCur, oldCur+v64) {
			return
		}
	}
}

func (a *Float64Aggregator) Delta() any {
	for {
		curSum, prevSum := loadFloat64(&a.curSum), loadFloat64(&a.prevSum)
		if casFloat64(&a.prevSum, prevSum, curSum) {
			return curSum - prevSum
		}
	}
}

// float64 values are accessed atomically through their uint64 bit patterns.
func loadFloat64(fp *float64) float64 {
	return math.Float64frombits(atomic.LoadUint64((*uint64)(unsafe.Pointer(fp))))
}

func storeFloat64(fp *float64, v float64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(fp)), math.Float64bits(v))
}

func casFloat64(fp *float64, old, new float64) bool {
	return atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(fp)),
		math.Float64bits(old),
		math.Float64bits(new),
	)
}
