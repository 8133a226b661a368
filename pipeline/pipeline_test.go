package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Ahmed-Sermani/citerank/pipeline"
	"github.com/Ahmed-Sermani/citerank/pipeline/runners"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(PipelineTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type PipelineTestSuite struct{}

func (s *PipelineTestSuite) TestDataFlow(c *gc.C) {
	stages := make([]pipeline.StageRunner, 5)
	for i := range stages {
		stages[i] = runners.FIFO(appendStage(fmt.Sprint(i)))
	}

	src := &sourceStub{data: stringPayloads(3)}
	sink := new(sinkStub)

	p := pipeline.New(stages...)
	c.Assert(p.Process(context.TODO(), src, sink), gc.IsNil)
	c.Assert(sink.data, gc.DeepEquals, []string{"0-01234", "1-01234", "2-01234"})
	assertAllProcessed(c, src.data)
}

func (s *PipelineTestSuite) TestFixedWorkerPoolProcessesEverything(c *gc.C) {
	const numWorkers = 4
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	proc := pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return p, nil
	})

	src := &sourceStub{data: stringPayloads(20)}
	sink := new(sinkStub)
	p := pipeline.New(runners.FixedWorkerPool(proc, numWorkers))
	c.Assert(p.Process(context.TODO(), src, sink), gc.IsNil)

	sort.Strings(sink.data)
	exp := make([]string, 20)
	for i := range exp {
		exp[i] = fmt.Sprint(i)
	}
	sort.Strings(exp)
	c.Assert(sink.data, gc.DeepEquals, exp)
	c.Assert(peak <= numWorkers, gc.Equals, true)
	c.Assert(peak > 1, gc.Equals, true)
}

func (s *PipelineTestSuite) TestProcessorErrorHandling(c *gc.C) {
	expErr := errors.New("some error")
	stages := []pipeline.StageRunner{
		runners.FIFO(pipeline.ProcessorFunc(func(context.Context, pipeline.Payload) (pipeline.Payload, error) {
			return nil, expErr
		})),
	}

	src := &sourceStub{data: stringPayloads(3)}
	sink := new(sinkStub)

	err := pipeline.New(stages...).Process(context.TODO(), src, sink)
	c.Assert(err, gc.ErrorMatches, "(?s).*pipeline stage 0: some error.*")
	c.Assert(errors.Is(err, expErr), gc.Equals, true)
}

func (s *PipelineTestSuite) TestSourceErrorHandling(c *gc.C) {
	expErr := errors.New("some error")
	src := &sourceStub{data: stringPayloads(3), err: expErr}
	sink := new(sinkStub)

	err := pipeline.New(runners.FIFO(identity())).Process(context.TODO(), src, sink)
	c.Assert(err, gc.ErrorMatches, "(?s).*pipeline source: some error.*")
}

func (s *PipelineTestSuite) TestSinkErrorHandling(c *gc.C) {
	expErr := errors.New("some error")
	src := &sourceStub{data: stringPayloads(3)}
	sink := &sinkStub{err: expErr}

	err := pipeline.New(runners.FIFO(identity())).Process(context.TODO(), src, sink)
	c.Assert(err, gc.ErrorMatches, "(?s).*pipeline sink: some error.*")
}

func (s *PipelineTestSuite) TestDroppedPayloadsAreMarked(c *gc.C) {
	drop := pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		if p.(*stringPayload).val == "1" {
			return nil, nil
		}
		return p, nil
	})
	src := &sourceStub{data: stringPayloads(3)}
	sink := new(sinkStub)

	c.Assert(pipeline.New(runners.FIFO(drop)).Process(context.TODO(), src, sink), gc.IsNil)
	c.Assert(sink.data, gc.DeepEquals, []string{"0", "2"})
	assertAllProcessed(c, src.data)
}

func (s *PipelineTestSuite) TestCancelledContext(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())
	block := pipeline.ProcessorFunc(func(ctx context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		cancel()
		<-ctx.Done()
		return p, nil
	})
	src := &sourceStub{data: stringPayloads(10)}
	sink := new(sinkStub)

	c.Assert(pipeline.New(runners.FIFO(block)).Process(ctx, src, sink), gc.IsNil)
	c.Assert(len(sink.data) < 10, gc.Equals, true)
}

func assertAllProcessed(c *gc.C, payloads []pipeline.Payload) {
	for i, p := range payloads {
		c.Assert(p.(*stringPayload).processed, gc.Equals, true, gc.Commentf("payload %d not processed", i))
	}
}

func identity() pipeline.Processor {
	return pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		return p, nil
	})
}

func appendStage(suffix string) pipeline.Processor {
	return pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		sp := p.(*stringPayload)
		if suffix == "0" {
			sp.val += "-"
		}
		sp.val += suffix
		return sp, nil
	})
}

type sourceStub struct {
	index int
	data  []pipeline.Payload
	err   error
}

func (s *sourceStub) Next(context.Context) bool {
	if s.err != nil || s.index == len(s.data) {
		return false
	}
	s.index++
	return true
}

func (s *sourceStub) Error() error { return s.err }

func (s *sourceStub) Payload() pipeline.Payload { return s.data[s.index-1] }

type sinkStub struct {
	data []string
	err  error
}

func (s *sinkStub) Consume(_ context.Context, p pipeline.Payload) error {
	if s.err != nil {
		return s.err
	}
	s.data = append(s.data, p.(*stringPayload).val)
	return nil
}

type stringPayload struct {
	processed bool
	val       string
}

func (s *stringPayload) Clone() pipeline.Payload { return &stringPayload{val: s.val} }

func (s *stringPayload) MarkAsProcessed() { s.processed = true }

func stringPayloads(numValues int) []pipeline.Payload {
	out := make([]pipeline.Payload, numValues)
	for i := 0; i < len(out); i++ {
		out[i] = &stringPayload{val: fmt.Sprint(i)}
	}
	return out
}
