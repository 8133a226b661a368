package message_test

import (
	"sync"
	"testing"

	"github.com/Ahmed-Sermani/citerank/bsp/message"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(InMemoryQueueTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type InMemoryQueueTestSuite struct{}

type valueMsg float64

func (valueMsg) Type() string { return "value" }

func (s *InMemoryQueueTestSuite) TestEnqueueDrain(c *gc.C) {
	q := message.NewInMemoryQueueFactory()()
	c.Assert(q.PendingMessages(), gc.Equals, false)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Check(q.Enqueue(valueMsg(v)), gc.IsNil)
		}(i)
	}
	wg.Wait()
	c.Assert(q.PendingMessages(), gc.Equals, true)

	var sum float64
	it := q.Messages()
	for it.Next() {
		sum += float64(it.Message().(valueMsg))
	}
	c.Assert(it.Error(), gc.IsNil)
	c.Assert(sum, gc.Equals, float64(5050))
	c.Assert(q.PendingMessages(), gc.Equals, false)
	c.Assert(q.Close(), gc.IsNil)
}

func (s *InMemoryQueueTestSuite) TestDiscard(c *gc.C) {
	q := message.NewInMemoryQueue()
	c.Assert(q.Enqueue(valueMsg(1)), gc.IsNil)
	c.Assert(q.Enqueue(valueMsg(2)), gc.IsNil)
	c.Assert(q.DiscardMessages(), gc.IsNil)
	c.Assert(q.PendingMessages(), gc.Equals, false)
	c.Assert(q.Messages().Next(), gc.Equals, false)
}
