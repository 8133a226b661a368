package aggregators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Ahmed-Sermani/citerank/bsp"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(AggregatorTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type AggregatorTestSuite struct{}

func (s *AggregatorTestSuite) TestIntAggregator(c *gc.C) {
	numValues := 100
	values := make([]any, numValues)
	var exp int
	for i := 0; i < numValues; i++ {
		next := rand.Intn(1 << 20)
		values[i] = next
		exp += next
	}

	got := s.testConcurrentAccess(new(IntAggregator), values).(int)
	c.Assert(got, gc.Equals, exp)
}

func (s *AggregatorTestSuite) TestFloat64Aggregator(c *gc.C) {
	numValues := 100
	values := make([]any, numValues)
	var exp float64
	for i := 0; i < numValues; i++ {
		next := rand.Float64()
		values[i] = next
		exp += next
	}

	got := s.testConcurrentAccess(new(Float64Aggregator), values).(float64)
	c.Assert(math.Abs(got-exp) < 1e-9, gc.Equals, true, gc.Commentf("got %v, want %v", got, exp))
}

func (s *AggregatorTestSuite) TestFloat64MaxAggregator(c *gc.C) {
	numValues := 100
	values := make([]any, numValues)
	var exp float64
	for i := 0; i < numValues; i++ {
		next := rand.Float64()
		values[i] = next
		exp = math.Max(exp, next)
	}

	got := s.testConcurrentAccess(new(Float64MaxAggregator), values).(float64)
	c.Assert(got, gc.Equals, exp)
}

func (s *AggregatorTestSuite) TestSetResetsDelta(c *gc.C) {
	a := new(Float64Aggregator)
	a.Set(0.5)
	a.Aggregate(0.25)
	c.Assert(a.Delta(), gc.Equals, 0.25)
	c.Assert(a.Delta(), gc.Equals, 0.0)

	m := new(Float64MaxAggregator)
	m.Set(0.0)
	m.Aggregate(0.75)
	m.Aggregate(0.5)
	c.Assert(m.Get(), gc.Equals, 0.75)
	c.Assert(m.Delta(), gc.Equals, 0.75)

	i := new(IntAggregator)
	i.Set(3)
	i.Aggregate(4)
	c.Assert(i.Get(), gc.Equals, 7)
	c.Assert(i.Delta(), gc.Equals, 4)
}

func (s *AggregatorTestSuite) testConcurrentAccess(a bsp.Aggregator, values []any) any {
	startedCh := make(chan struct{})
	syncCh := make(chan struct{})
	doneCh := make(chan struct{})
	for i := 0; i < len(values); i++ {
		go func(i int) {
			startedCh <- struct{}{}
			<-syncCh
			a.Aggregate(values[i])
			doneCh <- struct{}{}
		}(i)
	}

	for i := 0; i < len(values); i++ {
		<-startedCh
	}

	close(syncCh)

	for i := 0; i < len(values); i++ {
		<-doneCh
	}

	return a.Get()
}
